// model/attachment.go
package model

import (
	"time"
)

type Attachment struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID    uint      `gorm:"column:task_id;not null;index" json:"task_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	FileName  string    `gorm:"column:file_name;type:varchar(255);not null" json:"file_name"`
	FilePath  string    `gorm:"column:file_path;type:varchar(1024);not null" json:"file_path"`
	FileType  string    `gorm:"column:file_type;type:varchar(100)" json:"file_type"`
	FileSize  int64     `gorm:"column:file_size" json:"file_size"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

func (Attachment) TableName() string {
	return "attachments"
}
