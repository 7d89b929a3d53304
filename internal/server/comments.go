package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

type commentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (s *Server) handleCommentList() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadTask(c, id); !ok {
			return
		}

		comments := []models.Comment{}
		if err := s.db.Where("task_id = ?", id).Order("id").Find(&comments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

func (s *Server) handleCommentCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadTask(c, id); !ok {
			return
		}

		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		comment := models.Comment{
			TaskID:   id,
			AuthorID: currentUserID(c),
			Body:     req.Body,
		}
		if err := s.db.Create(&comment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

func (s *Server) handleCommentDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var comment models.Comment
		err := s.db.First(&comment, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !isAdmin(c) && comment.AuthorID != currentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete a comment"})
			return
		}

		if err := s.db.Delete(&comment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
	}
}
