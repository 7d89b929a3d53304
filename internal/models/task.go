package models

import "time"

// TaskStatus is the board column a task sits in. Transitions are enforced by
// the CRUD layer; the scorers only read the value.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskPriority orders tasks within a project.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Task is a single work item within a project.
type Task struct {
	ID             uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID      uint         `gorm:"index;not null" json:"project_id"`
	Title          string       `gorm:"size:255;not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         TaskStatus   `gorm:"size:16;default:todo;index" json:"status"`
	Priority       TaskPriority `gorm:"size:16;default:medium" json:"priority"`
	AssigneeID     *uint        `gorm:"index" json:"assignee_id"`
	DueDate        *time.Time   `json:"due_date"`
	EstimatedHours *float64     `json:"estimated_hours"`
	ActualHours    *float64     `json:"actual_hours"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	CompletedAt    *time.Time   `json:"completed_at"`

	Project  *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"-"`
	Comments []Comment `gorm:"foreignKey:TaskID" json:"-"`
}
