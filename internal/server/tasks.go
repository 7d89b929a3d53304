package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

type taskRequest struct {
	Title          string              `json:"title" binding:"required"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	AssigneeID     *uint               `json:"assignee_id"`
	DueDate        *time.Time          `json:"due_date"`
	EstimatedHours *float64            `json:"estimated_hours"`
	ActualHours    *float64            `json:"actual_hours"`
}

func validTaskStatus(st models.TaskStatus) bool {
	switch st {
	case models.TaskTodo, models.TaskInProgress, models.TaskInReview,
		models.TaskDone, models.TaskCancelled:
		return true
	}
	return false
}

func validTaskPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical:
		return true
	}
	return false
}

// loadTask fetches a task and enforces access through its project.
func (s *Server) loadTask(c *gin.Context, id uint) (models.Task, bool) {
	var task models.Task
	err := s.db.First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found or access denied"})
		return models.Task{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return models.Task{}, false
	}
	if _, ok := s.loadProject(c, task.ProjectID); !ok {
		return models.Task{}, false
	}
	return task, true
}

func (s *Server) handleTaskList() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}

		query := s.db.Where("project_id = ?", id)
		if st := c.Query("status"); st != "" {
			query = query.Where("status = ?", st)
		}
		if assignee := c.Query("assignee_id"); assignee != "" {
			query = query.Where("assignee_id = ?", assignee)
		}

		tasks := []models.Task{}
		if err := query.Order("id").Find(&tasks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func (s *Server) handleTaskCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}

		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Status == "" {
			req.Status = models.TaskTodo
		}
		if req.Priority == "" {
			req.Priority = models.PriorityMedium
		}
		if !validTaskStatus(req.Status) || !validTaskPriority(req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task status or priority"})
			return
		}

		task := models.Task{
			ProjectID:      id,
			Title:          req.Title,
			Description:    req.Description,
			Status:         req.Status,
			Priority:       req.Priority,
			AssigneeID:     req.AssigneeID,
			DueDate:        req.DueDate,
			EstimatedHours: req.EstimatedHours,
			ActualHours:    req.ActualHours,
		}
		if task.Status == models.TaskDone {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
		if err := s.db.Create(&task).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

func (s *Server) handleTaskGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		task, ok := s.loadTask(c, id)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func (s *Server) handleTaskUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		task, ok := s.loadTask(c, id)
		if !ok {
			return
		}

		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Status != "" && !validTaskStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task status"})
			return
		}
		if req.Priority != "" && !validTaskPriority(req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task priority"})
			return
		}

		// Completion timestamp follows the status transition.
		if req.Status == models.TaskDone && task.Status != models.TaskDone {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
		if req.Status != models.TaskDone && req.Status != "" {
			task.CompletedAt = nil
		}

		task.Title = req.Title
		task.Description = req.Description
		if req.Status != "" {
			task.Status = req.Status
		}
		if req.Priority != "" {
			task.Priority = req.Priority
		}
		task.AssigneeID = req.AssigneeID
		task.DueDate = req.DueDate
		task.EstimatedHours = req.EstimatedHours
		task.ActualHours = req.ActualHours

		if err := s.db.Save(&task).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func (s *Server) handleTaskDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		task, ok := s.loadTask(c, id)
		if !ok {
			return
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&task).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
	}
}
