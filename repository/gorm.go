package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/model"
	"taskboard/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the relational store used in production (MySQL) and in tests (SQLite).
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Migrate creates or updates the tables behind every model.
func (r *Gorm) Migrate() error {
	return r.db.AutoMigrate(&model.User{}, &model.Task{}, &model.Comment{}, &model.Attachment{})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Gorm) CreateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Gorm) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Gorm) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Gorm) ListUsersByRole(ctx context.Context, role workflow.Role) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Gorm) ListUsersByTeam(ctx context.Context, team string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("team = ?", team).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// enrichedTasks selects tasks with the requester username and the comment count.
func (r *Gorm) enrichedTasks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.*, users.username AS requester_username, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.task_id = tasks.id) AS comment_count").
		Joins("LEFT JOIN users ON users.id = tasks.requester_id")
}

func (r *Gorm) CreateTask(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *Gorm) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.enrichedTasks(ctx).Where("tasks.id = ?", id).Take(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *Gorm) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.enrichedTasks(ctx).Order("tasks.created_at DESC").Order("tasks.id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Gorm) ListOverdueTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.enrichedTasks(ctx).
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ? AND tasks.status <> ?", now, workflow.StatusDone).
		Order("tasks.due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Gorm) UpdateTaskContent(ctx context.Context, id uint, changes TaskChanges) (*model.Task, error) {
	updates := make(map[string]interface{})
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.Priority != nil {
		updates["priority"] = int(*changes.Priority)
	}
	if changes.DueDateSet {
		updates["due_date"] = changes.DueDate
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&model.Task{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.GetTask(ctx, id)
}

func (r *Gorm) UpdateTaskStatus(ctx context.Context, id uint, status workflow.Status) (workflow.Status, *model.Task, error) {
	var prior workflow.Status
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			Where("id = ?", id).
			Take(&current).Error; err != nil {
			return err
		}
		prior = current.Status
		return tx.Model(&model.Task{}).Where("id = ?", id).Update("status", status).Error
	})
	if err != nil {
		return workflow.StatusInvalid, nil, translate(err)
	}

	task, err := r.GetTask(ctx, id)
	if err != nil {
		return prior, nil, err
	}
	return prior, task, nil
}

func (r *Gorm) DeleteTask(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&model.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func (r *Gorm) CreateComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *Gorm) ListComments(ctx context.Context, taskID uint) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("comments.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.task_id = ?", taskID).
		Order("comments.created_at ASC").Order("comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *Gorm) CreateAttachment(ctx context.Context, attachment *model.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *Gorm) ListAttachments(ctx context.Context, taskID uint) ([]model.Attachment, error) {
	var attachments []model.Attachment
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id").Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *Gorm) GetAttachment(ctx context.Context, id uint) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, translate(err)
	}
	return &attachment, nil
}

func (r *Gorm) DeleteAttachment(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Attachment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
