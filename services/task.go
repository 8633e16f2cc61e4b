package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskboard/apperror"
	"taskboard/model"
	"taskboard/repository"
	"taskboard/workflow"

	"go.uber.org/zap"
)

// Notifier hands triggers off for delivery. It must not block the caller.
type Notifier interface {
	Notify(ctx context.Context, task model.Task, triggers []workflow.Trigger)
}

type TaskService struct {
	repo     repository.Repository
	notifier Notifier
	machine  workflow.Machine
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewTaskService(repo repository.Repository, notifier Notifier, machine workflow.Machine, log *zap.SugaredLogger) *TaskService {
	return &TaskService{repo: repo, notifier: notifier, machine: machine, log: log, now: time.Now}
}

type NewTask struct {
	Title       string
	Description string
	Team        string
	Priority    int
	RequesterID uint
	DueDate     *time.Time
	Attachments []NewAttachment
}

type NewAttachment struct {
	UserID   uint
	FileName string
	FilePath string
	FileType string
	FileSize int64
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperror.Validation("due_date must be YYYY-MM-DD or RFC 3339")
	}
	t = t.UTC()
	return &t, nil
}

func (s *TaskService) CreateTask(ctx context.Context, in NewTask) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	team := strings.TrimSpace(in.Team)
	switch {
	case title == "":
		return nil, apperror.Validation("title is required")
	case team == "":
		return nil, apperror.Validation("team is required")
	case in.RequesterID == 0:
		return nil, apperror.Validation("requester_id is required")
	}

	priority := workflow.PriorityMedium
	if in.Priority != 0 {
		priority = workflow.Priority(in.Priority)
		if !priority.Valid() {
			return nil, apperror.Validation("priority must be 1, 2, or 3")
		}
	}

	if _, err := s.repo.FindUserByID(ctx, in.RequesterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Validation("requester does not exist")
		}
		return nil, apperror.Dependency("failed to load requester", err)
	}

	task := &model.Task{
		Title:       title,
		Description: in.Description,
		Team:        team,
		Priority:    priority,
		Status:      workflow.StatusNotStarted,
		RequesterID: in.RequesterID,
		DueDate:     in.DueDate,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, apperror.Dependency("failed to create task", err)
	}

	// Attachment rows are best effort; the task is already the record of the request.
	for _, meta := range in.Attachments {
		attachment := meta.toModel(task.ID)
		if attachment.UserID == 0 {
			attachment.UserID = in.RequesterID
		}
		if err := s.repo.CreateAttachment(ctx, &attachment); err != nil {
			s.log.Errorw("failed to save attachment metadata", "taskId", task.ID, "file", meta.FileName, "error", err)
		}
	}

	// Re-read so the response carries the same joined fields as list and get.
	if created, err := s.repo.GetTask(ctx, task.ID); err != nil {
		s.log.Errorw("failed to reload created task", "taskId", task.ID, "error", err)
	} else {
		task = created
	}

	s.notify(ctx, *task, workflow.DecideNotifications(task.Team, workflow.StatusInvalid, task.Status, workflow.EventCreated))
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, caller workflow.Caller, order SortOrder) ([]model.Task, error) {
	if !caller.Role.Valid() {
		return nil, apperror.Authorization("unrecognized role")
	}
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, apperror.Dependency("failed to list tasks", err)
	}
	visible := workflow.VisibleTasks(tasks, caller.Role, caller.Team)
	SortTasks(visible, order)
	return visible, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("task not found")
	}
	if err != nil {
		return nil, apperror.Dependency("failed to load task", err)
	}
	return task, nil
}

// EditTask overwrites the supplied content fields. Status is never touched here.
func (s *TaskService) EditTask(ctx context.Context, caller workflow.Caller, id uint, changes repository.TaskChanges) (*model.Task, error) {
	if changes.Empty() {
		return nil, apperror.Validation("no fields to update")
	}
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		changes.Title = &title
	}
	if changes.Priority != nil && !changes.Priority.Valid() {
		return nil, apperror.Validation("priority must be 1, 2, or 3")
	}

	current, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanManage(caller, current.Team) {
		return nil, apperror.Authorization("you don't have permission to update this task")
	}

	updated, err := s.repo.UpdateTaskContent(ctx, id, changes)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("task not found")
	}
	if err != nil {
		return nil, apperror.Dependency("failed to update task", err)
	}

	if changed(current, changes) {
		s.notify(ctx, *updated, workflow.DecideNotifications(updated.Team, updated.Status, updated.Status, workflow.EventEdited))
	}
	return updated, nil
}

func changed(current *model.Task, c repository.TaskChanges) bool {
	if c.Title != nil && *c.Title != current.Title {
		return true
	}
	if c.Description != nil && *c.Description != current.Description {
		return true
	}
	if c.Priority != nil && *c.Priority != current.Priority {
		return true
	}
	if c.DueDateSet {
		switch {
		case c.DueDate == nil || current.DueDate == nil:
			return c.DueDate != current.DueDate
		default:
			return !c.DueDate.Equal(*current.DueDate)
		}
	}
	return false
}

// ChangeStatus applies a role-checked status change and reports it to the
// parties the new status concerns.
func (s *TaskService) ChangeStatus(ctx context.Context, role workflow.Role, id uint, requested string) (*model.Task, error) {
	target, _ := workflow.ParseStatus(requested)
	if err := s.machine.Authorize(role, target); err != nil {
		return nil, err
	}

	if s.machine.Strict {
		current, err := s.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.machine.Transition(role, current.Status, target); err != nil {
			return nil, err
		}
	}

	prior, task, err := s.repo.UpdateTaskStatus(ctx, id, target)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("task not found")
	}
	if err != nil {
		return nil, apperror.Dependency("failed to update task status", err)
	}

	s.notify(ctx, *task, workflow.DecideNotifications(task.Team, prior, task.Status, workflow.EventStatusChanged))
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, caller workflow.Caller, id uint) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !workflow.CanManage(caller, task.Team) {
		return apperror.Authorization("you don't have permission to delete this task")
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("task not found")
		}
		return apperror.Dependency("failed to delete task", err)
	}
	return nil
}

// RemindOverdue raises the overdue trigger for every unfinished task past its due date.
func (s *TaskService) RemindOverdue(ctx context.Context) (int, error) {
	tasks, err := s.repo.ListOverdueTasks(ctx, s.now())
	if err != nil {
		return 0, apperror.Dependency("failed to list overdue tasks", err)
	}
	var reminded int
	for _, task := range tasks {
		triggers := workflow.DecideNotifications(task.Team, task.Status, task.Status, workflow.EventOverdue)
		if len(triggers) == 0 {
			continue
		}
		s.notify(ctx, task, triggers)
		reminded++
	}
	return reminded, nil
}

func (s *TaskService) notify(ctx context.Context, task model.Task, triggers []workflow.Trigger) {
	if len(triggers) == 0 || s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, task, triggers)
}

func (a NewAttachment) toModel(taskID uint) model.Attachment {
	return model.Attachment{
		TaskID:   taskID,
		UserID:   a.UserID,
		FileName: strings.TrimSpace(a.FileName),
		FilePath: strings.TrimSpace(a.FilePath),
		FileType: a.FileType,
		FileSize: a.FileSize,
	}
}
