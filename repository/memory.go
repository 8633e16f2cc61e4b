package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/model"
	"taskboard/workflow"
)

// Memory keeps everything in process. It backs STORE_DRIVER=memory and the tests.
type Memory struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[uint]model.User
	tasks       map[uint]model.Task
	comments    map[uint]model.Comment
	attachments map[uint]model.Attachment
	nextID      uint
}

func NewMemory() *Memory {
	return &Memory{
		now:         time.Now,
		users:       make(map[uint]model.User),
		tasks:       make(map[uint]model.Task),
		comments:    make(map[uint]model.Comment),
		attachments: make(map[uint]model.Attachment),
	}
}

// SetClock replaces the timestamp source for created_at values.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	user.CreatedAt = m.now()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsersByRole(ctx context.Context, role workflow.Role) ([]model.User, error) {
	return m.filterUsers(func(u model.User) bool { return u.Role == role }), nil
}

func (m *Memory) ListUsersByTeam(ctx context.Context, team string) ([]model.User, error) {
	return m.filterUsers(func(u model.User) bool { return u.Team == team }), nil
}

func (m *Memory) filterUsers(keep func(model.User) bool) []model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []model.User
	for _, u := range m.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// enrich must be called with the lock held.
func (m *Memory) enrich(t model.Task) model.Task {
	if u, ok := m.users[t.RequesterID]; ok {
		t.RequesterUsername = u.Username
	}
	t.CommentCount = 0
	for _, c := range m.comments {
		if c.TaskID == t.ID {
			t.CommentCount++
		}
	}
	return t
}

func (m *Memory) CreateTask(ctx context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.ID = m.id()
	task.CreatedAt = m.now()
	stored := *task
	stored.RequesterUsername = ""
	stored.CommentCount = 0
	m.tasks[task.ID] = stored
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = m.enrich(t)
	return &t, nil
}

func (m *Memory) ListTasks(ctx context.Context) ([]model.Task, error) {
	return m.listTasks(func(model.Task) bool { return true }, func(a, b model.Task) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (m *Memory) ListOverdueTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	return m.listTasks(func(t model.Task) bool {
		return t.DueDate != nil && t.DueDate.Before(now) && t.Status != workflow.StatusDone
	}, func(a, b model.Task) bool {
		return a.DueDate.Before(*b.DueDate)
	}), nil
}

func (m *Memory) listTasks(keep func(model.Task) bool, less func(a, b model.Task) bool) []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if keep(t) {
			tasks = append(tasks, m.enrich(t))
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return tasks
}

func (m *Memory) UpdateTaskContent(ctx context.Context, id uint, changes TaskChanges) (*model.Task, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if changes.Title != nil {
		t.Title = *changes.Title
	}
	if changes.Description != nil {
		t.Description = *changes.Description
	}
	if changes.Priority != nil {
		t.Priority = *changes.Priority
	}
	if changes.DueDateSet {
		t.DueDate = changes.DueDate
	}
	m.tasks[id] = t
	m.mu.Unlock()
	return m.GetTask(ctx, id)
}

func (m *Memory) UpdateTaskStatus(ctx context.Context, id uint, status workflow.Status) (workflow.Status, *model.Task, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return workflow.StatusInvalid, nil, ErrNotFound
	}
	prior := t.Status
	t.Status = status
	m.tasks[id] = t
	m.mu.Unlock()

	task, err := m.GetTask(ctx, id)
	return prior, task, err
}

func (m *Memory) DeleteTask(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	for cid, c := range m.comments {
		if c.TaskID == id {
			delete(m.comments, cid)
		}
	}
	for aid, a := range m.attachments {
		if a.TaskID == id {
			delete(m.attachments, aid)
		}
	}
	return nil
}

func (m *Memory) CreateComment(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment.ID = m.id()
	comment.CreatedAt = m.now()
	stored := *comment
	stored.Username = ""
	m.comments[comment.ID] = stored
	return nil
}

func (m *Memory) ListComments(ctx context.Context, taskID uint) ([]model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	comments := make([]model.Comment, 0)
	for _, c := range m.comments {
		if c.TaskID == taskID {
			if u, ok := m.users[c.UserID]; ok {
				c.Username = u.Username
			}
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (m *Memory) CreateAttachment(ctx context.Context, attachment *model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attachment.ID = m.id()
	attachment.CreatedAt = m.now()
	m.attachments[attachment.ID] = *attachment
	return nil
}

func (m *Memory) ListAttachments(ctx context.Context, taskID uint) ([]model.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	attachments := make([]model.Attachment, 0)
	for _, a := range m.attachments {
		if a.TaskID == taskID {
			attachments = append(attachments, a)
		}
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].ID < attachments[j].ID })
	return attachments, nil
}

func (m *Memory) GetAttachment(ctx context.Context, id uint) (*model.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) DeleteAttachment(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attachments[id]; !ok {
		return ErrNotFound
	}
	delete(m.attachments, id)
	return nil
}
