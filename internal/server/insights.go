package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/insight"
	"github.com/compasshq/compass/internal/models"
)

// kindsForParam maps the ?kind= query value to analysis kinds.
func kindsForParam(kind string) ([]models.InsightType, bool) {
	switch kind {
	case "", "all":
		return insight.AllKinds(), true
	case "risk":
		return []models.InsightType{models.InsightRisk}, true
	case "progress":
		return []models.InsightType{models.InsightProgress}, true
	case "team":
		return []models.InsightType{models.InsightTeam}, true
	case "budget":
		return []models.InsightType{models.InsightBudget}, true
	}
	return nil, false
}

func (s *Server) handleAnalyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}

		kindParam := c.Query("kind")
		kinds, ok := kindsForParam(kindParam)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown analysis kind %q", kindParam)})
			return
		}

		report, err := s.insights.Generate(c.Request.Context(), id, kinds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}

		// Alerting is best-effort and never fails the request.
		if s.herald.Enabled() {
			if err := s.herald.Notify(c.Request.Context(), report.Insights); err != nil {
				log.Printf("server: notify insights: %v", err)
			}
		}

		if kindParam == "" {
			kindParam = "all"
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "analysis completed",
			"analysis_type": kindParam,
			"run_id":        report.RunID,
			"insights":      report.Insights,
			"errors":        report.Failures,
		})
	}
}

func (s *Server) handleRiskAssessment() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}
		res, source, err := s.insights.Risk(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": id, "data_source": source, "result": res})
	}
}

func (s *Server) handleProgressPrediction() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}
		res, source, err := s.insights.Progress(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": id, "data_source": source, "result": res})
	}
}

func (s *Server) handleTeamPerformance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}
		res, source, err := s.insights.Team(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": id, "data_source": source, "result": res})
	}
}

func (s *Server) handleBudgetForecast() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}
		res, source, err := s.insights.Budget(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": id, "data_source": source, "result": res})
	}
}

func (s *Server) handleProjectInsights() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, ok := s.loadProject(c, id); !ok {
			return
		}

		query := s.db.Where("project_id = ?", id)
		if t := c.Query("type"); t != "" {
			query = query.Where("type = ?", t)
		}
		if c.Query("unacknowledged") == "true" {
			query = query.Where("is_acknowledged = ?", false)
		}

		insights := []models.Insight{}
		if err := query.Order("created_at DESC, id DESC").Find(&insights).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, insights)
	}
}

// loadInsight fetches an insight and enforces access through its project.
func (s *Server) loadInsight(c *gin.Context, id uint) (models.Insight, bool) {
	var ins models.Insight
	err := s.db.First(&ins, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "insight not found or access denied"})
		return models.Insight{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return models.Insight{}, false
	}
	if _, ok := s.loadProject(c, ins.ProjectID); !ok {
		return models.Insight{}, false
	}
	return ins, true
}

func (s *Server) handleInsightAcknowledge() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		ins, ok := s.loadInsight(c, id)
		if !ok {
			return
		}

		userID := currentUserID(c)
		now := time.Now().UTC()
		ins.IsAcknowledged = true
		ins.AcknowledgedBy = &userID
		ins.AcknowledgedAt = &now
		if err := s.db.Save(&ins).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, ins)
	}
}

func (s *Server) handleInsightDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		ins, ok := s.loadInsight(c, id)
		if !ok {
			return
		}
		if err := s.db.Delete(&ins).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "insight deleted"})
	}
}

type batchAnalyzeRequest struct {
	ProjectIDs []uint `json:"project_ids" binding:"required"`
}

func (s *Server) handleBatchAnalyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchAnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		results := []gin.H{}
		errs := []string{}
		for _, id := range req.ProjectIDs {
			var project models.Project
			err := s.db.First(&project, id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !s.canAccessProject(c, project)) {
				errs = append(errs, fmt.Sprintf("project %d: not found or access denied", id))
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Sprintf("project %d: %v", id, err))
				continue
			}

			report, err := s.insights.Generate(c.Request.Context(), id, insight.AllKinds())
			if err != nil {
				errs = append(errs, fmt.Sprintf("project %d: %v", id, err))
				continue
			}
			for _, failure := range report.Failures {
				errs = append(errs, fmt.Sprintf("project %d: %s: %s", id, failure.Kind, failure.Error))
			}
			results = append(results, gin.H{
				"project_id":         id,
				"project_name":       project.Name,
				"run_id":             report.RunID,
				"insights_generated": len(report.Insights),
				"status":             "success",
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"analyzed_projects": results,
			"success_count":     len(results),
			"errors":            errs,
		})
	}
}

// queryDays parses a ?days= parameter with bounds.
func queryDays(c *gin.Context, def, min, max int) int {
	days := def
	if raw := c.Query("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			days = v
		}
	}
	if days < min {
		days = min
	}
	if days > max {
		days = max
	}
	return days
}

func (s *Server) handleDashboardInsights() gin.HandlerFunc {
	return func(c *gin.Context) {
		days := queryDays(c, 30, 1, 365)

		ids, err := s.accessibleProjectIDs(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(ids) == 0 {
			c.JSON(http.StatusOK, gin.H{
				"insights": []models.Insight{},
				"summary": gin.H{
					"total_insights": 0,
					"risk_alerts":    0,
					"predictions":    0,
					"unacknowledged": 0,
				},
				"period_days": days,
			})
			return
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		insights := []models.Insight{}
		err = s.db.
			Where("project_id IN ? AND created_at >= ?", ids, since).
			Order("created_at DESC, id DESC").
			Limit(100).
			Find(&insights).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var riskAlerts, predictions, unacknowledged int
		for _, ins := range insights {
			if ins.Type == models.InsightRisk && ins.ConfidenceScore > 0.7 {
				riskAlerts++
			}
			if ins.Type == models.InsightProgress {
				predictions++
			}
			if !ins.IsAcknowledged {
				unacknowledged++
			}
		}

		top := insights
		if len(top) > 20 {
			top = top[:20]
		}
		c.JSON(http.StatusOK, gin.H{
			"insights": top,
			"summary": gin.H{
				"total_insights": len(insights),
				"risk_alerts":    riskAlerts,
				"predictions":    predictions,
				"unacknowledged": unacknowledged,
			},
			"period_days": days,
		})
	}
}

func (s *Server) handleDashboardStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := s.accessibleProjectIDs(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		projectsByStatus := map[string]int64{}
		tasksByStatus := map[string]int64{}
		var overdueTasks, totalInsights int64

		if len(ids) > 0 {
			type statusCount struct {
				Status string
				Count  int64
			}
			var rows []statusCount
			err = s.db.Model(&models.Project{}).
				Select("status, count(*) as count").
				Where("id IN ?", ids).
				Group("status").
				Scan(&rows).Error
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			for _, row := range rows {
				projectsByStatus[row.Status] = row.Count
			}

			rows = nil
			err = s.db.Model(&models.Task{}).
				Select("status, count(*) as count").
				Where("project_id IN ?", ids).
				Group("status").
				Scan(&rows).Error
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			for _, row := range rows {
				tasksByStatus[row.Status] = row.Count
			}

			now := time.Now().UTC()
			s.db.Model(&models.Task{}).
				Where("project_id IN ? AND due_date IS NOT NULL AND due_date < ? AND status != ?", ids, now, models.TaskDone).
				Count(&overdueTasks)
			s.db.Model(&models.Insight{}).
				Where("project_id IN ?", ids).
				Count(&totalInsights)
		}

		c.JSON(http.StatusOK, gin.H{
			"projects_by_status": projectsByStatus,
			"tasks_by_status":    tasksByStatus,
			"overdue_tasks":      overdueTasks,
			"total_insights":     totalInsights,
		})
	}
}

func (s *Server) handleInsightTrends() gin.HandlerFunc {
	return func(c *gin.Context) {
		days := queryDays(c, 90, 7, 365)

		ids, err := s.accessibleProjectIDs(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(ids) == 0 {
			c.JSON(http.StatusOK, gin.H{"trends": []gin.H{}, "summary": gin.H{}})
			return
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		insights := []models.Insight{}
		err = s.db.
			Where("project_id IN ? AND created_at >= ?", ids, since).
			Find(&insights).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Bucket by ISO week and insight type.
		byWeek := map[string]map[string]int{}
		for _, ins := range insights {
			year, week := ins.CreatedAt.ISOWeek()
			key := fmt.Sprintf("%d-W%02d", year, week)
			if byWeek[key] == nil {
				byWeek[key] = map[string]int{}
			}
			byWeek[key][string(ins.Type)]++
		}

		weeks := make([]string, 0, len(byWeek))
		for week := range byWeek {
			weeks = append(weeks, week)
		}
		sort.Strings(weeks)

		trends := make([]gin.H, 0, len(weeks))
		for _, week := range weeks {
			total := 0
			for _, n := range byWeek[week] {
				total += n
			}
			trends = append(trends, gin.H{
				"week":             week,
				"insights_by_type": byWeek[week],
				"total":            total,
			})
		}

		avgPerWeek := 0.0
		if len(trends) > 0 {
			avgPerWeek = float64(len(insights)) / float64(len(trends))
		}
		c.JSON(http.StatusOK, gin.H{
			"trends": trends,
			"summary": gin.H{
				"total_insights": len(insights),
				"period_days":    days,
				"avg_per_week":   avgPerWeek,
			},
		})
	}
}
