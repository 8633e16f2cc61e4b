package model

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID    uint      `gorm:"column:task_id;not null;index" json:"task_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Username string `gorm:"column:username;->;-:migration" json:"username"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
