package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/model"
	"taskboard/workflow"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLite(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewGorm(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func newMemory(t *testing.T) Repository {
	return NewMemory()
}

var backends = map[string]func(t *testing.T) Repository{
	"memory": newMemory,
	"sqlite": newSQLite,
}

func seedUsers(t *testing.T, repo Repository) (dev, teamA, teamB model.User) {
	t.Helper()
	ctx := context.Background()
	dev = model.User{Username: "dev", PasswordHash: "x", Role: workflow.RoleDeveloper, Email: "dev@example.com"}
	teamA = model.User{Username: "alice", PasswordHash: "x", Role: workflow.RoleTeam, Team: "A", Email: "alice@example.com"}
	teamB = model.User{Username: "bob", PasswordHash: "x", Role: workflow.RoleTeam, Team: "B", Email: "bob@example.com"}
	for _, u := range []*model.User{&dev, &teamA, &teamB} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.Username, err)
		}
	}
	return dev, teamA, teamB
}

func newTask(title, team string, requester uint) *model.Task {
	return &model.Task{
		Title:       title,
		Team:        team,
		Priority:    workflow.PriorityMedium,
		Status:      workflow.StatusNotStarted,
		RequesterID: requester,
	}
}

func TestUsers(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			dev, teamA, _ := seedUsers(t, repo)

			got, err := repo.FindUserByUsername(ctx, "alice")
			if err != nil {
				t.Fatalf("FindUserByUsername: %v", err)
			}
			if got.ID != teamA.ID || got.Role != workflow.RoleTeam || got.Team != "A" {
				t.Errorf("got %+v", got)
			}

			if _, err := repo.FindUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing user error = %v, want ErrNotFound", err)
			}
			if _, err := repo.FindUserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing id error = %v, want ErrNotFound", err)
			}

			devs, err := repo.ListUsersByRole(ctx, workflow.RoleDeveloper)
			if err != nil {
				t.Fatal(err)
			}
			if len(devs) != 1 || devs[0].ID != dev.ID {
				t.Errorf("developers = %+v", devs)
			}

			members, err := repo.ListUsersByTeam(ctx, "A")
			if err != nil {
				t.Fatal(err)
			}
			if len(members) != 1 || members[0].Username != "alice" {
				t.Errorf("team A = %+v", members)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			dev, teamA, _ := seedUsers(t, repo)

			first := newTask("first", "A", teamA.ID)
			second := newTask("second", "B", teamA.ID)
			for _, task := range []*model.Task{first, second} {
				if err := repo.CreateTask(ctx, task); err != nil {
					t.Fatalf("CreateTask: %v", err)
				}
				if task.ID == 0 {
					t.Fatal("CreateTask did not assign an id")
				}
			}

			for _, content := range []string{"one", "two"} {
				c := &model.Comment{TaskID: first.ID, UserID: dev.ID, Content: content}
				if err := repo.CreateComment(ctx, c); err != nil {
					t.Fatalf("CreateComment: %v", err)
				}
			}

			got, err := repo.GetTask(ctx, first.ID)
			if err != nil {
				t.Fatalf("GetTask: %v", err)
			}
			if got.RequesterUsername != "alice" || got.CommentCount != 2 || got.Status != workflow.StatusNotStarted {
				t.Errorf("GetTask = %+v", got)
			}

			tasks, err := repo.ListTasks(ctx)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
				t.Errorf("ListTasks order = %+v", tasks)
			}

			comments, err := repo.ListComments(ctx, first.ID)
			if err != nil {
				t.Fatalf("ListComments: %v", err)
			}
			if len(comments) != 2 || comments[0].Content != "one" || comments[0].Username != "dev" {
				t.Errorf("ListComments = %+v", comments)
			}

			prior, updated, err := repo.UpdateTaskStatus(ctx, first.ID, workflow.StatusInProgress)
			if err != nil {
				t.Fatalf("UpdateTaskStatus: %v", err)
			}
			if prior != workflow.StatusNotStarted || updated.Status != workflow.StatusInProgress {
				t.Errorf("prior = %v, updated = %v", prior, updated.Status)
			}

			prior, _, err = repo.UpdateTaskStatus(ctx, first.ID, workflow.StatusDone)
			if err != nil {
				t.Fatal(err)
			}
			if prior != workflow.StatusInProgress {
				t.Errorf("second prior = %v", prior)
			}

			if _, _, err := repo.UpdateTaskStatus(ctx, 9999, workflow.StatusDone); !errors.Is(err, ErrNotFound) {
				t.Errorf("UpdateTaskStatus missing = %v, want ErrNotFound", err)
			}

			if err := repo.DeleteTask(ctx, first.ID); err != nil {
				t.Fatalf("DeleteTask: %v", err)
			}
			if _, err := repo.GetTask(ctx, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetTask after delete = %v", err)
			}
			if comments, _ := repo.ListComments(ctx, first.ID); len(comments) != 0 {
				t.Errorf("comments survived delete: %+v", comments)
			}
			if err := repo.DeleteTask(ctx, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("second DeleteTask = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestUpdateTaskContent(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			_, teamA, _ := seedUsers(t, repo)

			due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
			task := newTask("draft", "A", teamA.ID)
			task.DueDate = &due
			if err := repo.CreateTask(ctx, task); err != nil {
				t.Fatal(err)
			}

			title := "final"
			high := workflow.PriorityHigh
			got, err := repo.UpdateTaskContent(ctx, task.ID, TaskChanges{Title: &title, Priority: &high})
			if err != nil {
				t.Fatalf("UpdateTaskContent: %v", err)
			}
			if got.Title != "final" || got.Priority != workflow.PriorityHigh || got.DueDate == nil {
				t.Errorf("after update = %+v", got)
			}

			got, err = repo.UpdateTaskContent(ctx, task.ID, TaskChanges{DueDateSet: true})
			if err != nil {
				t.Fatal(err)
			}
			if got.DueDate != nil {
				t.Errorf("due date not cleared: %v", got.DueDate)
			}

			if _, err := repo.UpdateTaskContent(ctx, 9999, TaskChanges{Title: &title}); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing task = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListOverdueTasks(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			_, teamA, _ := seedUsers(t, repo)

			now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
			past := now.Add(-48 * time.Hour)
			future := now.Add(48 * time.Hour)

			overdue := newTask("late", "A", teamA.ID)
			overdue.DueDate = &past
			finished := newTask("late but done", "A", teamA.ID)
			finished.DueDate = &past
			finished.Status = workflow.StatusDone
			upcoming := newTask("upcoming", "A", teamA.ID)
			upcoming.DueDate = &future
			undated := newTask("undated", "A", teamA.ID)

			for _, task := range []*model.Task{overdue, finished, upcoming, undated} {
				if err := repo.CreateTask(ctx, task); err != nil {
					t.Fatal(err)
				}
			}

			tasks, err := repo.ListOverdueTasks(ctx, now)
			if err != nil {
				t.Fatalf("ListOverdueTasks: %v", err)
			}
			if len(tasks) != 1 || tasks[0].ID != overdue.ID {
				t.Errorf("overdue = %+v", tasks)
			}
		})
	}
}

func TestAttachments(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			_, teamA, _ := seedUsers(t, repo)

			task := newTask("with files", "A", teamA.ID)
			if err := repo.CreateTask(ctx, task); err != nil {
				t.Fatal(err)
			}

			a := &model.Attachment{TaskID: task.ID, UserID: teamA.ID, FileName: "brief.pdf", FilePath: "https://files/brief.pdf", FileType: "application/pdf", FileSize: 42}
			if err := repo.CreateAttachment(ctx, a); err != nil {
				t.Fatalf("CreateAttachment: %v", err)
			}

			list, err := repo.ListAttachments(ctx, task.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 1 || list[0].FileName != "brief.pdf" || list[0].FileSize != 42 {
				t.Errorf("ListAttachments = %+v", list)
			}

			got, err := repo.GetAttachment(ctx, a.ID)
			if err != nil || got.UserID != teamA.ID {
				t.Errorf("GetAttachment = %+v, %v", got, err)
			}

			if err := repo.DeleteAttachment(ctx, a.ID); err != nil {
				t.Fatalf("DeleteAttachment: %v", err)
			}
			if err := repo.DeleteAttachment(ctx, a.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("second delete = %v, want ErrNotFound", err)
			}
		})
	}
}
