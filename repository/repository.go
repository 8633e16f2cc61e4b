package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/model"
	"taskboard/workflow"
)

var ErrNotFound = errors.New("record not found")

type Users interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id uint) (*model.User, error)
	ListUsersByRole(ctx context.Context, role workflow.Role) ([]model.User, error)
	ListUsersByTeam(ctx context.Context, team string) ([]model.User, error)
}

// TaskChanges lists the content fields to overwrite. Nil pointers are left alone.
type TaskChanges struct {
	Title       *string
	Description *string
	Priority    *workflow.Priority
	DueDate     *time.Time
	// DueDateSet distinguishes clearing the due date from leaving it untouched.
	DueDateSet bool
}

func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Priority == nil && !c.DueDateSet
}

type Tasks interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id uint) (*model.Task, error)
	// ListTasks returns every task, newest first, with requester username and comment count.
	ListTasks(ctx context.Context) ([]model.Task, error)
	UpdateTaskContent(ctx context.Context, id uint, changes TaskChanges) (*model.Task, error)
	// UpdateTaskStatus writes the new status and returns the status it replaced.
	// Both happen atomically.
	UpdateTaskStatus(ctx context.Context, id uint, status workflow.Status) (workflow.Status, *model.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	ListOverdueTasks(ctx context.Context, now time.Time) ([]model.Task, error)
}

type Comments interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListComments returns a task's comments oldest first, with author username.
	ListComments(ctx context.Context, taskID uint) ([]model.Comment, error)
}

type Attachments interface {
	CreateAttachment(ctx context.Context, attachment *model.Attachment) error
	ListAttachments(ctx context.Context, taskID uint) ([]model.Attachment, error)
	GetAttachment(ctx context.Context, id uint) (*model.Attachment, error)
	DeleteAttachment(ctx context.Context, id uint) error
}

type Repository interface {
	Users
	Tasks
	Comments
	Attachments
}

var (
	_ Repository = (*Gorm)(nil)
	_ Repository = (*Memory)(nil)
)
