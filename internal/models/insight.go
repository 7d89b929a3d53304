package models

import "time"

// InsightType identifies which analysis produced an insight.
type InsightType string

const (
	InsightRisk     InsightType = "risk_analysis"
	InsightProgress InsightType = "progress_prediction"
	InsightTeam     InsightType = "team_performance"
	InsightBudget   InsightType = "budget_forecast"
)

// InsightPriority ranks how urgently an insight should be acted on.
type InsightPriority string

const (
	InsightLow      InsightPriority = "low"
	InsightMedium   InsightPriority = "medium"
	InsightHigh     InsightPriority = "high"
	InsightCritical InsightPriority = "critical"
)

// Data sources recorded on persisted insights.
const (
	SourceRules   = "rules"
	SourceAdvisor = "advisor"
)

// Insight is a persisted, user-facing record summarizing one scorer's output.
// Rows are append-only: generation never updates prior insights, and
// acknowledgement/deletion belongs to the CRUD layer.
type Insight struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID       uint            `gorm:"index;not null" json:"project_id"`
	RunID           string          `gorm:"size:36;index" json:"run_id"`
	Type            InsightType     `gorm:"size:32;not null;index" json:"type"`
	Priority        InsightPriority `gorm:"size:16;default:medium" json:"priority"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Recommendations string          `gorm:"type:text" json:"recommendations"`
	ConfidenceScore float64         `json:"confidence_score"`
	DataSource      string          `gorm:"size:32;default:rules" json:"data_source"`
	IsAcknowledged  bool            `gorm:"default:false" json:"is_acknowledged"`
	AcknowledgedBy  *uint           `json:"acknowledged_by"`
	AcknowledgedAt  *time.Time      `json:"acknowledged_at"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	ExpiresAt       *time.Time      `gorm:"index" json:"expires_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}
