// Package herald pushes freshly generated insights and daily digests to chat
// platforms (Slack, Discord). Delivery is outbound-only and best-effort: a
// failed send is logged by the caller and never blocks the analysis pipeline.
package herald

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/compasshq/compass/internal/models"
)

// Adapter is the interface platform implementations satisfy.
type Adapter interface {
	// Send delivers one event to the platform's configured channel.
	Send(ctx context.Context, evt Event) error
	// Close releases the platform connection.
	Close() error
}

// Event is an insight or digest formatted for chat display.
type Event struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
	Color    string // sidebar color hint
	Fields   []Field
}

// Field is a key-value pair rendered inside an event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// priorityRank orders insight priorities for threshold comparison.
func priorityRank(p models.InsightPriority) int {
	switch p {
	case models.InsightLow:
		return 0
	case models.InsightMedium:
		return 1
	case models.InsightHigh:
		return 2
	case models.InsightCritical:
		return 3
	}
	return 0
}

// Herald fans events out to every configured adapter.
type Herald struct {
	adapters    []Adapter
	minPriority models.InsightPriority
}

// New builds a Herald. With no adapters every call is a no-op.
func New(minPriority string, adapters ...Adapter) *Herald {
	return &Herald{
		adapters:    adapters,
		minPriority: models.InsightPriority(minPriority),
	}
}

// Enabled reports whether any adapter is configured.
func (h *Herald) Enabled() bool {
	return len(h.adapters) > 0
}

// Notify pushes the insights at or above the configured priority. Errors from
// individual adapters are collected, not short-circuited, so one broken
// platform cannot silence the others.
func (h *Herald) Notify(ctx context.Context, insights []models.Insight) error {
	if len(h.adapters) == 0 {
		return nil
	}
	var errs []string
	for _, ins := range insights {
		if priorityRank(ins.Priority) < priorityRank(h.minPriority) {
			continue
		}
		evt := FormatInsight(ins)
		for _, adapter := range h.adapters {
			if err := adapter.Send(ctx, evt); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("herald: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Broadcast sends one event to every adapter regardless of priority.
func (h *Herald) Broadcast(ctx context.Context, evt Event) error {
	var errs []string
	for _, adapter := range h.adapters {
		if err := adapter.Send(ctx, evt); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("herald: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Close shuts down every adapter, returning the first error seen.
func (h *Herald) Close() error {
	var first error
	for _, adapter := range h.adapters {
		if err := adapter.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// prioritySeverity maps an insight priority to an event severity.
func prioritySeverity(p models.InsightPriority) string {
	switch p {
	case models.InsightCritical:
		return "error"
	case models.InsightHigh:
		return "warning"
	default:
		return "info"
	}
}

// insightTypeLabel returns a human-friendly name for an insight type.
func insightTypeLabel(t models.InsightType) string {
	switch t {
	case models.InsightRisk:
		return "Risk Analysis"
	case models.InsightProgress:
		return "Progress Prediction"
	case models.InsightTeam:
		return "Team Performance"
	case models.InsightBudget:
		return "Budget Forecast"
	default:
		return string(t)
	}
}

// FormatInsight renders one insight as a chat event.
func FormatInsight(ins models.Insight) Event {
	severity := prioritySeverity(ins.Priority)

	var bodyParts []string
	if ins.Description != "" {
		bodyParts = append(bodyParts, ins.Description)
	}
	if ins.Recommendations != "" {
		bodyParts = append(bodyParts, "Recommendations: "+ins.Recommendations)
	}

	fields := []Field{
		{Name: "Type", Value: insightTypeLabel(ins.Type), Short: true},
		{Name: "Priority", Value: string(ins.Priority), Short: true},
		{Name: "Project", Value: fmt.Sprintf("#%d", ins.ProjectID), Short: true},
		{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", ins.ConfidenceScore*100), Short: true},
	}
	if ins.DataSource != "" {
		fields = append(fields, Field{Name: "Source", Value: ins.DataSource, Short: true})
	}

	return Event{
		Title:    ins.Title,
		Body:     strings.Join(bodyParts, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// timestampValue formats an event timestamp for a digest line.
func timestampValue(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
