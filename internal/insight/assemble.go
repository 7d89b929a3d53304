// Package insight turns scorer output into persisted insight records and
// runs the analysis pipeline end to end. Insights are append-only: a
// generation run inserts new rows and never touches prior ones.
package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/scoring"
)

// Fixed confidence defaults for scorers that do not produce their own.
const (
	riskConfidence   = 0.8
	teamConfidence   = 0.7
	budgetConfidence = 0.9
)

// riskNoteworthy is the score floor below which a risk run produces no
// insight row. Low-risk projects still return full analysis results, they
// just do not clutter the insight feed.
const riskNoteworthy = 0.3

// assembleRisk builds an insight from a risk result. The second return is
// false when the score is too low to be worth recording.
func assembleRisk(res scoring.RiskResult) (models.Insight, bool) {
	if res.Score <= riskNoteworthy {
		return models.Insight{}, false
	}
	priority := models.InsightMedium
	if res.Score > 0.6 {
		priority = models.InsightHigh
	}
	return models.Insight{
		Type:            models.InsightRisk,
		Priority:        priority,
		Title:           fmt.Sprintf("Project Risk Score: %.1f%%", res.Score*100),
		Description:     fmt.Sprintf("Risk analysis identified %d risk factors", len(res.Factors)),
		Recommendations: strings.Join(res.Recommendations, "; "),
		ConfidenceScore: riskConfidence,
	}, true
}

// assembleProgress builds an insight from a completion prediction. It always
// emits; the prediction itself is the payload.
func assembleProgress(res scoring.ProgressResult) (models.Insight, bool) {
	return models.Insight{
		Type:            models.InsightProgress,
		Priority:        models.InsightMedium,
		Title:           fmt.Sprintf("Predicted Completion: %s", res.PredictedCompletionDate.Format("2006-01-02")),
		Description:     fmt.Sprintf("Based on current progress, project completion predicted with %.1f%% confidence", res.Confidence*100),
		Recommendations: strings.Join(res.Recommendations, "; "),
		ConfidenceScore: res.Confidence,
	}, true
}

// assembleTeam builds an insight from a team result. Only runs that found
// bottlenecks are recorded.
func assembleTeam(res scoring.TeamResult) (models.Insight, bool) {
	if len(res.Bottlenecks) == 0 {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:            models.InsightTeam,
		Priority:        models.InsightMedium,
		Title:           fmt.Sprintf("Team Velocity: %.1f tasks/week", res.Velocity),
		Description:     fmt.Sprintf("Performance analysis identified %d bottlenecks", len(res.Bottlenecks)),
		Recommendations: strings.Join(res.Suggestions, "; "),
		ConfidenceScore: teamConfidence,
	}, true
}

// assembleBudget builds an insight from a budget forecast. Only runs that
// raised alerts are recorded.
func assembleBudget(res scoring.BudgetResult) (models.Insight, bool) {
	if len(res.Alerts) == 0 {
		return models.Insight{}, false
	}
	priority := models.InsightMedium
	if res.UtilizationPct > 90 {
		priority = models.InsightHigh
	}
	return models.Insight{
		Type:            models.InsightBudget,
		Priority:        priority,
		Title:           fmt.Sprintf("Budget Utilization: %.1f%%", res.UtilizationPct),
		Description:     fmt.Sprintf("Budget analysis shows %d alerts", len(res.Alerts)),
		Recommendations: strings.Join(res.Tips, "; "),
		ConfidenceScore: budgetConfidence,
	}, true
}

// stamp fills the fields shared by every insight in a generation run.
func stamp(ins models.Insight, projectID uint, runID, source string, now time.Time, ttl time.Duration) models.Insight {
	ins.ProjectID = projectID
	ins.RunID = runID
	ins.DataSource = source
	ins.CreatedAt = now
	if ttl > 0 {
		expires := now.Add(ttl)
		ins.ExpiresAt = &expires
	}
	return ins
}
