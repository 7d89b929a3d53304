package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

// Context keys set by requireAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// requireAuth validates the bearer token and stashes the caller's identity.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxRole, models.Role(claims.Role))
		c.Next()
	}
}

// currentUserID returns the authenticated caller's id.
func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// isAdmin reports whether the caller has the admin role.
func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(ctxRole)
	return role == models.RoleAdmin
}

// pathID parses a numeric :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// canAccessProject reports whether the caller may see the project: admins,
// the owner, and anyone assigned a task in it.
func (s *Server) canAccessProject(c *gin.Context, project models.Project) bool {
	if isAdmin(c) || project.OwnerID == currentUserID(c) {
		return true
	}
	var count int64
	s.db.Model(&models.Task{}).
		Where("project_id = ? AND assignee_id = ?", project.ID, currentUserID(c)).
		Count(&count)
	return count > 0
}

// loadProject fetches a project and enforces access. On failure it writes the
// response and returns false; not-found and forbidden are deliberately the
// same 404 so callers cannot probe for project ids.
func (s *Server) loadProject(c *gin.Context, id uint) (models.Project, bool) {
	var project models.Project
	err := s.db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found or access denied"})
		return models.Project{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return models.Project{}, false
	}
	if !s.canAccessProject(c, project) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found or access denied"})
		return models.Project{}, false
	}
	return project, true
}

// accessibleProjectIDs lists every project id the caller may see.
func (s *Server) accessibleProjectIDs(c *gin.Context) ([]uint, error) {
	if isAdmin(c) {
		var ids []uint
		if err := s.db.Model(&models.Project{}).Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		return ids, nil
	}
	userID := currentUserID(c)
	var owned []uint
	if err := s.db.Model(&models.Project{}).Where("owner_id = ?", userID).Pluck("id", &owned).Error; err != nil {
		return nil, err
	}
	var assigned []uint
	if err := s.db.Model(&models.Task{}).Where("assignee_id = ?", userID).Distinct().Pluck("project_id", &assigned).Error; err != nil {
		return nil, err
	}
	seen := map[uint]struct{}{}
	var ids []uint
	for _, id := range append(owned, assigned...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
