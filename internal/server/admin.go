package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

// requireAdmin rejects non-admin callers. Runs after requireAuth.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func (s *Server) loadUser(c *gin.Context, id uint) (models.User, bool) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return models.User{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return models.User{}, false
	}
	return user, true
}

func (s *Server) handleAdminUserList() gin.HandlerFunc {
	return func(c *gin.Context) {
		users := []models.User{}
		if err := s.db.Order("id").Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

type adminUserRequest struct {
	FullName *string      `json:"full_name"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

func (s *Server) handleAdminUserUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req adminUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Role != nil && *req.Role != models.RoleMember && *req.Role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("role %q is not valid", *req.Role)})
			return
		}
		if req.IsActive != nil && !*req.IsActive && id == currentUserID(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate your own account"})
			return
		}

		user, ok := s.loadUser(c, id)
		if !ok {
			return
		}
		if req.FullName != nil {
			user.FullName = *req.FullName
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if err := s.db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (s *Server) handleAdminUserActivate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		user, ok := s.loadUser(c, id)
		if !ok {
			return
		}
		user.IsActive = true
		if err := s.db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user activated"})
	}
}

func (s *Server) handleAdminUserDeactivate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if id == currentUserID(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate your own account"})
			return
		}
		user, ok := s.loadUser(c, id)
		if !ok {
			return
		}
		user.IsActive = false
		if err := s.db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
	}
}

func (s *Server) handleAdminMakeAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		user, ok := s.loadUser(c, id)
		if !ok {
			return
		}
		user.Role = models.RoleAdmin
		if err := s.db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s is now an admin", user.Email)})
	}
}

func (s *Server) handleAdminRemoveAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if id == currentUserID(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot remove your own admin role"})
			return
		}
		user, ok := s.loadUser(c, id)
		if !ok {
			return
		}
		user.Role = models.RoleMember
		if err := s.db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s is no longer an admin", user.Email)})
	}
}
