// Package scoring implements the rule-based project analyses: risk,
// completion prediction, team performance, and budget forecast. Every scorer
// is a pure function of a project snapshot, its tasks, and a reference time,
// so repeated calls over the same input produce identical output.
package scoring

import "time"

// Params holds the configurable constants shared by the scorers.
type Params struct {
	HourlyRate       float64 // cost of one actual/estimated hour
	DefaultTaskHours float64 // assumed estimate for tasks without one
}

// DefaultParams mirrors the config defaults.
func DefaultParams() Params {
	return Params{HourlyRate: 75, DefaultTaskHours: 8}
}

// RiskLevel buckets an overall risk score.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Factor severities and categories.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	CategorySchedule  = "schedule"
	CategoryResource  = "resource"
	CategoryQuality   = "quality"
	CategoryTechnical = "technical"
)

// RiskFactor is one triggered contribution to the overall risk score.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
	Category    string  `json:"category"`
}

// RiskResult is the output of ScoreRisk.
type RiskResult struct {
	Score           float64            `json:"overall_risk_score"`
	Level           RiskLevel          `json:"risk_level"`
	Factors         []RiskFactor       `json:"risk_factors"`
	Categories      map[string]float64 `json:"risk_categories"`
	Recommendations []string           `json:"recommendations"`
	CriticalIssues  []string           `json:"critical_issues"`
}

// ProgressResult is the output of PredictCompletion.
type ProgressResult struct {
	PredictedCompletionDate time.Time `json:"predicted_completion_date"`
	Confidence              float64   `json:"confidence_level"`
	CompletionProbability   float64   `json:"completion_probability"`
	Factors                 []string  `json:"factors_affecting_timeline"`
	Recommendations         []string  `json:"recommended_actions"`
}

// MemberStats summarizes one assignee's task record.
type MemberStats struct {
	AssigneeID        uint    `json:"assignee_id"`
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgCompletionDays float64 `json:"avg_completion_time_days"`
	OverdueTasks      int     `json:"overdue_tasks"`
	ProductivityScore float64 `json:"productivity_score"`
	PerformanceLevel  string  `json:"performance_level"`
}

// TeamResult is the output of ScoreTeam.
type TeamResult struct {
	Velocity        float64       `json:"team_velocity"`
	EfficiencyScore float64       `json:"team_efficiency_score"`
	Members         []MemberStats `json:"individual_performance"`
	Bottlenecks     []string      `json:"bottlenecks"`
	Suggestions     []string      `json:"optimization_suggestions"`
}

// BudgetResult is the output of ForecastBudget.
type BudgetResult struct {
	ProjectedCost  float64  `json:"projected_total_cost"`
	CurrentCost    float64  `json:"current_cost"`
	UtilizationPct float64  `json:"current_utilization"`
	VariancePct    float64  `json:"cost_variance"`
	HealthScore    float64  `json:"budget_health_score"`
	Alerts         []string `json:"budget_alerts"`
	Tips           []string `json:"cost_optimization_tips"`
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clamp100 bounds a percentage-style score to [0, 100].
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
