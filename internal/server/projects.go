package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

type projectRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Status      models.ProjectStatus  `json:"status"`
	StartDate   *time.Time            `json:"start_date"`
	EndDate     *time.Time            `json:"end_date"`
	Budget      *float64              `json:"budget"`
}

func validProjectStatus(st models.ProjectStatus) bool {
	switch st {
	case models.ProjectPlanning, models.ProjectActive, models.ProjectOnHold,
		models.ProjectCompleted, models.ProjectCancelled:
		return true
	}
	return false
}

func (s *Server) handleProjectList() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := s.accessibleProjectIDs(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		projects := []models.Project{}
		if len(ids) > 0 {
			if err := s.db.Where("id IN ?", ids).Order("id").Find(&projects).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
		}
		c.JSON(http.StatusOK, projects)
	}
}

func (s *Server) handleProjectCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Status == "" {
			req.Status = models.ProjectPlanning
		}
		if !validProjectStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project status"})
			return
		}

		project := models.Project{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			OwnerID:     currentUserID(c),
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Budget:      req.Budget,
		}
		if err := s.db.Create(&project).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, project)
	}
}

func (s *Server) handleProjectGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		project, ok := s.loadProject(c, id)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func (s *Server) handleProjectUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		project, ok := s.loadProject(c, id)
		if !ok {
			return
		}
		// Only the owner or an admin may modify a project; assignees get
		// read access through loadProject but no more.
		if !isAdmin(c) && project.OwnerID != currentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the project owner can modify it"})
			return
		}

		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Status != "" && !validProjectStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project status"})
			return
		}

		project.Name = req.Name
		project.Description = req.Description
		if req.Status != "" {
			project.Status = req.Status
		}
		project.StartDate = req.StartDate
		project.EndDate = req.EndDate
		project.Budget = req.Budget
		if err := s.db.Save(&project).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func (s *Server) handleProjectDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		project, ok := s.loadProject(c, id)
		if !ok {
			return
		}
		if !isAdmin(c) && project.OwnerID != currentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the project owner can delete it"})
			return
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("task_id IN (?)",
				tx.Model(&models.Task{}).Select("id").Where("project_id = ?", project.ID),
			).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Insight{}).Error; err != nil {
				return err
			}
			return tx.Delete(&project).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
	}
}
