package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"taskboard/model"
	"taskboard/repository"
	"taskboard/services"
	"taskboard/storage/storagetest"
	"taskboard/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu       sync.Mutex
	triggers []workflow.Trigger
}

func (r *recordingNotifier) Notify(ctx context.Context, task model.Task, triggers []workflow.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, triggers...)
}

func (r *recordingNotifier) take() []workflow.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.triggers
	r.triggers = nil
	return out
}

type testServer struct {
	router   *gin.Engine
	repo     *repository.Memory
	notifier *recordingNotifier
	blobs    *storagetest.Memory
	svc      Services
	users    map[string]model.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &testServer{
		repo:     repository.NewMemory(),
		notifier: &recordingNotifier{},
		blobs:    storagetest.NewMemory(),
		users:    map[string]model.User{},
	}
	for _, u := range []model.User{
		{Username: "dev", Role: workflow.RoleDeveloper, Email: "dev@example.com"},
		{Username: "alice", Role: workflow.RoleTeam, Team: "A", Email: "alice@example.com"},
		{Username: "bob", Role: workflow.RoleTeam, Team: "B", Email: "bob@example.com"},
	} {
		hash, err := services.HashPassword("pw-" + u.Username)
		if err != nil {
			t.Fatal(err)
		}
		u.PasswordHash = hash
		if err := s.repo.CreateUser(context.Background(), &u); err != nil {
			t.Fatal(err)
		}
		s.users[u.Username] = u
	}

	s.svc = NewServices(Dependencies{
		Repo:      s.repo,
		Notifier:  s.notifier,
		Blobs:     s.blobs,
		JWTSecret: "test-secret",
		Log:       zap.NewNop().Sugar(),
	})
	s.router = NewRouter(s.svc, zap.NewNop().Sugar())
	return s
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		if err := json.NewEncoder(&body).Encode(r.body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func as(u model.User) map[string]string {
	h := map[string]string{"x-user-role": u.Role.String(), "x-user-id": strconv.FormatUint(uint64(u.ID), 10)}
	if u.Team != "" {
		h["x-user-team"] = u.Team
	}
	return h
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func (s *testServer) createTask(t *testing.T, title, team string) map[string]any {
	t.Helper()
	w := s.do(t, request{
		method:  http.MethodPost,
		path:    "/api/tasks",
		headers: as(s.users["alice"]),
		body:    map[string]any{"title": title, "team": team, "priority": 3, "requester_id": s.users["alice"].ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", w.Code, w.Body.String())
	}
	return decode[map[string]any](t, w)
}

func taskPath(task map[string]any, suffix string) string {
	return "/api/tasks/" + strconv.Itoa(int(task["id"].(float64))) + suffix
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, request{method: http.MethodGet, path: "/"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Api is running!") {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, request{method: http.MethodPost, path: "/api/login", body: map[string]string{"username": "alice", "password": "pw-alice"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaks password: %s", w.Body.String())
	}
	token := decode[map[string]any](t, w)["token"].(string)

	// The token's identity wins over the fallback headers.
	task := s.createTask(t, "Fix login", "A")
	w = s.do(t, request{
		method:  http.MethodPut,
		path:    taskPath(task, "/status"),
		headers: map[string]string{"Authorization": "Bearer " + token, "x-user-role": "DEVELOPER"},
		body:    map[string]string{"status": workflow.LabelInProgress, "userRole": "DEVELOPER"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("team token moving to in progress: %d %s", w.Code, w.Body.String())
	}

	for _, tc := range []struct {
		body map[string]string
		code int
	}{
		{map[string]string{"username": "alice", "password": "nope"}, http.StatusUnauthorized},
		{map[string]string{"username": "ghost", "password": "pw"}, http.StatusUnauthorized},
		{map[string]string{"username": "alice"}, http.StatusBadRequest},
	} {
		w := s.do(t, request{method: http.MethodPost, path: "/api/login", body: tc.body})
		if w.Code != tc.code {
			t.Errorf("login %v: %d, want %d", tc.body, w.Code, tc.code)
		}
	}
}

func TestCreateTaskScenario(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")

	if task["status"] != workflow.LabelNotStarted || task["priority"] != float64(3) {
		t.Errorf("task = %v", task)
	}
	if task["requester_username"] != "alice" || task["comment_count"] != float64(0) {
		t.Errorf("created task is not enriched: %v", task)
	}
	triggers := s.notifier.take()
	if len(triggers) != 1 || triggers[0].Recipient.Kind != workflow.RecipientDeveloper || triggers[0].Template != workflow.TemplateNewTask {
		t.Errorf("triggers = %+v", triggers)
	}

	w := s.do(t, request{method: http.MethodPost, path: "/api/tasks", headers: as(s.users["alice"]), body: map[string]any{"team": "A"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(errorMessage(t, w), "Title") {
		t.Errorf("missing title: %d %s", w.Code, w.Body.String())
	}
}

func TestStatusScenarios(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")
	s.notifier.take()

	// Developer starts the work; the team hears about it.
	w := s.do(t, request{
		method:  http.MethodPut,
		path:    taskPath(task, "/status"),
		headers: as(s.users["dev"]),
		body:    map[string]string{"status": workflow.LabelInProgress, "userRole": "DEVELOPER"},
	})
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["status"] != workflow.LabelInProgress {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	triggers := s.notifier.take()
	if len(triggers) != 1 || triggers[0].Template != workflow.TemplateTaskStarted || triggers[0].Recipient.Team != "A" {
		t.Errorf("triggers = %+v", triggers)
	}

	// Team may only close.
	w = s.do(t, request{
		method:  http.MethodPut,
		path:    taskPath(task, "/status"),
		headers: as(s.users["alice"]),
		body:    map[string]string{"status": workflow.LabelNotStarted, "userRole": "TEAM"},
	})
	if w.Code != http.StatusForbidden || !strings.Contains(errorMessage(t, w), workflow.LabelDone) {
		t.Errorf("team reopen: %d %s", w.Code, w.Body.String())
	}

	// Body role is honoured for header callers, as the frontend sends it.
	w = s.do(t, request{
		method: http.MethodPut,
		path:   taskPath(task, "/status"),
		body:   map[string]string{"status": workflow.LabelDone, "userRole": "TEAM"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("close: %d %s", w.Code, w.Body.String())
	}
	triggers = s.notifier.take()
	if len(triggers) != 1 || triggers[0].Template != workflow.TemplateTaskCompleted {
		t.Errorf("triggers = %+v", triggers)
	}

	w = s.do(t, request{
		method:  http.MethodPut,
		path:    "/api/tasks/999/status",
		headers: as(s.users["dev"]),
		body:    map[string]string{"status": workflow.LabelInProgress},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing task: %d", w.Code)
	}

	w = s.do(t, request{
		method: http.MethodPut,
		path:   taskPath(task, "/status"),
		body:   map[string]string{"status": workflow.LabelInProgress, "userRole": "ADMIN"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("unknown role: %d", w.Code)
	}
}

func TestListVisibility(t *testing.T) {
	s := newTestServer(t)
	s.createTask(t, "a1", "A")
	s.createTask(t, "b1", "B")
	s.createTask(t, "a2", "A")

	cases := []struct {
		headers map[string]string
		want    []string
	}{
		{as(s.users["dev"]), []string{"a2", "b1", "a1"}},
		{as(s.users["alice"]), []string{"a2", "a1"}},
		{map[string]string{"x-user-role": "TEAM", "x-user-team": "a"}, []string{}},
	}
	for _, tc := range cases {
		w := s.do(t, request{method: http.MethodGet, path: "/api/tasks", headers: tc.headers})
		if w.Code != http.StatusOK {
			t.Fatalf("list: %d %s", w.Code, w.Body.String())
		}
		tasks := decode[[]map[string]any](t, w)
		var titles []string
		for _, task := range tasks {
			titles = append(titles, task["title"].(string))
		}
		if strings.Join(titles, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%v sees %v, want %v", tc.headers, titles, tc.want)
		}
	}

	w := s.do(t, request{method: http.MethodGet, path: "/api/tasks", headers: map[string]string{"x-user-role": "ADMIN"}})
	if w.Code != http.StatusForbidden {
		t.Errorf("unknown role list: %d", w.Code)
	}
	w = s.do(t, request{method: http.MethodGet, path: "/api/tasks?sort=sideways", headers: as(s.users["dev"])})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad sort: %d", w.Code)
	}
}

func TestEditAndDelete(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")
	s.notifier.take()

	w := s.do(t, request{method: http.MethodPut, path: taskPath(task, ""), headers: as(s.users["bob"]), body: map[string]any{"title": "Hijack"}})
	if w.Code != http.StatusForbidden {
		t.Errorf("other team edit: %d", w.Code)
	}

	w = s.do(t, request{
		method:  http.MethodPut,
		path:    taskPath(task, ""),
		headers: as(s.users["alice"]),
		body:    map[string]any{"title": "Fix login page", "due_date": "2026-12-01", "priority": 1},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit: %d %s", w.Code, w.Body.String())
	}
	edited := decode[map[string]any](t, w)
	if edited["title"] != "Fix login page" || edited["priority"] != float64(1) || edited["status"] != workflow.LabelNotStarted {
		t.Errorf("edited = %v", edited)
	}
	if triggers := s.notifier.take(); len(triggers) != 1 || triggers[0].Template != workflow.TemplateTaskUpdated {
		t.Errorf("triggers = %+v", triggers)
	}

	w = s.do(t, request{method: http.MethodPut, path: taskPath(task, ""), headers: as(s.users["dev"]), body: map[string]any{"due_date": ""}})
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["due_date"] != nil {
		t.Errorf("clear due date: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, request{method: http.MethodDelete, path: taskPath(task, ""), headers: as(s.users["bob"])})
	if w.Code != http.StatusForbidden {
		t.Errorf("other team delete: %d", w.Code)
	}
	w = s.do(t, request{method: http.MethodDelete, path: taskPath(task, ""), headers: as(s.users["dev"])})
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, request{method: http.MethodDelete, path: taskPath(task, ""), headers: as(s.users["dev"])})
	if w.Code != http.StatusNotFound {
		t.Errorf("delete again: %d", w.Code)
	}
	w = s.do(t, request{method: http.MethodDelete, path: "/api/tasks/abc", headers: as(s.users["dev"])})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d", w.Code)
	}
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")

	w := s.do(t, request{method: http.MethodPost, path: taskPath(task, "/comments"), headers: as(s.users["dev"]), body: map[string]any{"content": "Looking into it"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", w.Code, w.Body.String())
	}
	if decode[map[string]any](t, w)["username"] != "dev" {
		t.Errorf("comment = %s", w.Body.String())
	}

	w = s.do(t, request{method: http.MethodGet, path: taskPath(task, "/comments"), headers: as(s.users["alice"])})
	if comments := decode[[]map[string]any](t, w); len(comments) != 1 {
		t.Errorf("comments = %v", comments)
	}

	w = s.do(t, request{method: http.MethodGet, path: "/api/tasks", headers: as(s.users["alice"])})
	if tasks := decode[[]map[string]any](t, w); tasks[0]["comment_count"] != float64(1) || tasks[0]["requester_username"] != "alice" {
		t.Errorf("enriched task = %v", tasks[0])
	}

	w = s.do(t, request{method: http.MethodPost, path: "/api/tasks/999/comments", headers: as(s.users["dev"]), body: map[string]any{"content": "hi"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing task comment: %d", w.Code)
	}
	w = s.do(t, request{method: http.MethodPost, path: taskPath(task, "/comments"), headers: as(s.users["dev"]), body: map[string]any{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty comment: %d", w.Code)
	}
}

func TestTokenCallerCannotWriteAsAnotherUser(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")

	w := s.do(t, request{method: http.MethodPost, path: "/api/login", body: map[string]string{"username": "alice", "password": "pw-alice"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	bearer := map[string]string{"Authorization": "Bearer " + decode[map[string]any](t, w)["token"].(string)}
	devID := s.users["dev"].ID

	w = s.do(t, request{method: http.MethodPost, path: taskPath(task, "/comments"), headers: bearer, body: map[string]any{"content": "approved", "user_id": devID}})
	if w.Code != http.StatusForbidden {
		t.Errorf("comment as another user: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, request{method: http.MethodPost, path: taskPath(task, "/attachments"), headers: bearer, body: map[string]any{"file_name": "a.txt", "file_path": "https://files.example.com/a.txt", "user_id": devID}})
	if w.Code != http.StatusForbidden {
		t.Errorf("attachment as another user: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, request{method: http.MethodPost, path: taskPath(task, "/comments"), headers: bearer, body: map[string]any{"content": "approved"}})
	if w.Code != http.StatusCreated || decode[map[string]any](t, w)["username"] != "alice" {
		t.Errorf("comment as token holder: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, request{method: http.MethodPost, path: taskPath(task, "/comments"), headers: bearer, body: map[string]any{"content": "again", "user_id": s.users["alice"].ID}})
	if w.Code != http.StatusCreated {
		t.Errorf("comment naming own id: %d %s", w.Code, w.Body.String())
	}
}

func TestAttachments(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, "Fix login", "A")
	s.blobs.Fail["broken.txt"] = true

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{"notes.txt": "hello", "broken.txt": "nope"} {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, taskPath(task, "/attachments"), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range as(s.users["alice"]) {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	result := decode[services.UploadResult](t, w)
	if len(result.Attachments) != 1 || len(result.Failed) != 1 || result.Failed[0].FileName != "broken.txt" {
		t.Fatalf("result = %+v", result)
	}
	if result.Attachments[0].UserID != s.users["alice"].ID {
		t.Errorf("uploader = %d", result.Attachments[0].UserID)
	}

	w = s.do(t, request{
		method:  http.MethodPost,
		path:    taskPath(task, "/attachments"),
		headers: as(s.users["dev"]),
		body:    map[string]any{"file_name": "design.png", "file_path": "https://cdn.example.com/design.png"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("metadata: %d %s", w.Code, w.Body.String())
	}
	meta := decode[model.Attachment](t, w)

	w = s.do(t, request{method: http.MethodGet, path: taskPath(task, "/attachments"), headers: as(s.users["alice"])})
	if list := decode[[]model.Attachment](t, w); len(list) != 2 {
		t.Errorf("attachments = %+v", list)
	}

	path := "/api/attachments/" + strconv.FormatUint(uint64(meta.ID), 10)
	w = s.do(t, request{method: http.MethodDelete, path: path, headers: as(s.users["bob"])})
	if w.Code != http.StatusForbidden {
		t.Errorf("other team delete: %d", w.Code)
	}
	w = s.do(t, request{method: http.MethodDelete, path: path, headers: as(s.users["alice"])})
	if w.Code != http.StatusNoContent {
		t.Errorf("team delete: %d %s", w.Code, w.Body.String())
	}
}

func TestDeviceTokenDisabled(t *testing.T) {
	s := newTestServer(t)
	alice := s.users["alice"]
	path := "/api/users/" + strconv.FormatUint(uint64(alice.ID), 10) + "/device-token"

	w := s.do(t, request{method: http.MethodPut, path: path, headers: as(alice), body: map[string]string{"token": "fcm"}})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("push disabled: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, request{method: http.MethodPut, path: path, headers: as(alice), body: map[string]string{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing token: %d", w.Code)
	}
}
