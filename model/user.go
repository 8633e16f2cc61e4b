package model

import (
	"time"

	"taskboard/workflow"
)

type User struct {
	ID           uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string        `gorm:"column:username;type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string        `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         workflow.Role `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Team         string        `gorm:"column:team;type:varchar(100);index" json:"team,omitempty"`
	Email        string        `gorm:"column:email;type:varchar(255)" json:"email"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
