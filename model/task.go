package model

import (
	"time"

	"taskboard/workflow"
)

type Task struct {
	ID          uint              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string            `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description string            `gorm:"column:description;type:text" json:"description"`
	Team        string            `gorm:"column:team;type:varchar(100);not null;index" json:"team"`
	Priority    workflow.Priority `gorm:"column:priority;not null;default:2" json:"priority"`
	Status      workflow.Status   `gorm:"column:status;type:varchar(32);not null" json:"status"`
	RequesterID uint              `gorm:"column:requester_id;not null;index" json:"requester_id"`
	DueDate     *time.Time        `gorm:"column:due_date" json:"due_date"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Read-only, filled by list/get queries
	RequesterUsername string `gorm:"column:requester_username;->;-:migration" json:"requester_username"`
	CommentCount      int64  `gorm:"column:comment_count;->;-:migration" json:"comment_count"`

	// Relations
	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t Task) OwningTeam() string {
	return t.Team
}
