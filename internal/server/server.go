// Package server exposes the REST API: auth, project/task/comment CRUD, and
// the analysis endpoints backed by the insight pipeline.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/auth"
	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/herald"
	"github.com/compasshq/compass/internal/insight"
)

// Server holds the shared dependencies every handler closes over.
type Server struct {
	db       *gorm.DB
	tokens   *auth.Manager
	insights *insight.Service
	herald   *herald.Herald
}

// New wires a Server. herald may be nil when no chat adapter is configured.
func New(conn *gorm.DB, tokens *auth.Manager, insights *insight.Service, h *herald.Herald) *Server {
	if h == nil {
		h = herald.New("high")
	}
	return &Server{db: conn, tokens: tokens, insights: insights, herald: h}
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/register", s.handleRegister())
	api.POST("/auth/login", s.handleLogin())

	authed := api.Group("", s.requireAuth())
	authed.GET("/auth/me", s.handleMe())

	authed.GET("/projects", s.handleProjectList())
	authed.POST("/projects", s.handleProjectCreate())
	authed.GET("/projects/:id", s.handleProjectGet())
	authed.PUT("/projects/:id", s.handleProjectUpdate())
	authed.DELETE("/projects/:id", s.handleProjectDelete())

	authed.GET("/projects/:id/tasks", s.handleTaskList())
	authed.POST("/projects/:id/tasks", s.handleTaskCreate())
	authed.GET("/tasks/:id", s.handleTaskGet())
	authed.PUT("/tasks/:id", s.handleTaskUpdate())
	authed.DELETE("/tasks/:id", s.handleTaskDelete())

	authed.GET("/tasks/:id/comments", s.handleCommentList())
	authed.POST("/tasks/:id/comments", s.handleCommentCreate())
	authed.DELETE("/comments/:id", s.handleCommentDelete())

	authed.POST("/projects/:id/analyze", s.handleAnalyze())
	authed.GET("/projects/:id/risk-assessment", s.handleRiskAssessment())
	authed.GET("/projects/:id/progress-prediction", s.handleProgressPrediction())
	authed.GET("/projects/:id/team-performance", s.handleTeamPerformance())
	authed.GET("/projects/:id/budget-forecast", s.handleBudgetForecast())

	authed.GET("/projects/:id/insights", s.handleProjectInsights())
	authed.POST("/insights/:id/acknowledge", s.handleInsightAcknowledge())
	authed.DELETE("/insights/:id", s.handleInsightDelete())
	authed.GET("/insights/trends", s.handleInsightTrends())

	authed.POST("/analyze/batch", s.handleBatchAnalyze())

	admin := authed.Group("/admin", s.requireAdmin())
	admin.GET("/users", s.handleAdminUserList())
	admin.PUT("/users/:id", s.handleAdminUserUpdate())
	admin.POST("/users/:id/activate", s.handleAdminUserActivate())
	admin.POST("/users/:id/deactivate", s.handleAdminUserDeactivate())
	admin.POST("/users/:id/make-admin", s.handleAdminMakeAdmin())
	admin.POST("/users/:id/remove-admin", s.handleAdminRemoveAdmin())
	authed.GET("/dashboard/insights", s.handleDashboardInsights())
	authed.GET("/dashboard/stats", s.handleDashboardStats())

	return router
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Server config.ServerConfig
	Out    io.Writer
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, opts StartOpts) error {
	port := opts.Server.Port
	if port <= 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
