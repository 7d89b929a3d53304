package models

import "time"

// Comment is a discussion entry on a task.
type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task   *Task `gorm:"foreignKey:TaskID" json:"-"`
	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}
