// Package snapshot loads read-only, request-scoped projections of projects
// and their tasks for the scoring pipeline. Snapshots are fetched fresh for
// every analysis call; nothing is cached between calls.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

// ErrProjectNotFound is returned when the project id does not resolve.
// It is distinct from a project with zero tasks, which is a valid input.
var ErrProjectNotFound = errors.New("snapshot: project not found")

// Project is an immutable view of a project's scoring-relevant fields.
type Project struct {
	ID        uint
	Name      string
	Status    models.ProjectStatus
	StartDate *time.Time
	EndDate   *time.Time
	Budget    *float64
	CreatedAt time.Time
}

// Task is an immutable view of one task's scoring-relevant fields.
type Task struct {
	ID             uint
	ProjectID      uint
	Status         models.TaskStatus
	Priority       models.TaskPriority
	AssigneeID     *uint
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// Loader reads snapshots from the database.
type Loader struct {
	db *gorm.DB
}

// NewLoader returns a Loader backed by conn.
func NewLoader(conn *gorm.DB) *Loader {
	return &Loader{db: conn}
}

// Project fetches a single project snapshot.
func (l *Loader) Project(ctx context.Context, id uint) (Project, error) {
	var row models.Project
	err := l.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("snapshot: load project %d: %w", id, err)
	}
	return fromProject(row), nil
}

// Tasks fetches all task snapshots for a project, ordered by id.
func (l *Loader) Tasks(ctx context.Context, projectID uint) ([]Task, error) {
	var rows []models.Task
	err := l.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("snapshot: load tasks for project %d: %w", projectID, err)
	}
	tasks := make([]Task, len(rows))
	for i, row := range rows {
		tasks[i] = fromTask(row)
	}
	return tasks, nil
}

func fromProject(row models.Project) Project {
	return Project{
		ID:        row.ID,
		Name:      row.Name,
		Status:    row.Status,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		Budget:    row.Budget,
		CreatedAt: row.CreatedAt,
	}
}

func fromTask(row models.Task) Task {
	return Task{
		ID:             row.ID,
		ProjectID:      row.ProjectID,
		Status:         row.Status,
		Priority:       row.Priority,
		AssigneeID:     row.AssigneeID,
		DueDate:        row.DueDate,
		EstimatedHours: row.EstimatedHours,
		ActualHours:    row.ActualHours,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		CompletedAt:    row.CompletedAt,
	}
}

// Open reports whether the task still counts toward remaining work.
func (t Task) Open() bool {
	return t.Status != models.TaskDone && t.Status != models.TaskCancelled
}

// Overdue reports whether the task is past due and not done.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != models.TaskDone
}

// Stuck reports whether the task has sat in progress without updates for
// longer than window.
func (t Task) Stuck(now time.Time, window time.Duration) bool {
	return t.Status == models.TaskInProgress && now.Sub(t.UpdatedAt) > window
}
