package herald

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

// digestWindow is how far back the daily digest looks.
const digestWindow = 24 * time.Hour

// maxDigestHighlights caps how many individual insights a digest lists.
const maxDigestHighlights = 5

// BuildDailyDigest summarizes the insights generated in the last 24 hours.
// The second return is false when the window is empty, which suppresses the
// digest entirely rather than posting a "nothing happened" message.
func BuildDailyDigest(ctx context.Context, conn *gorm.DB, now time.Time) (Event, bool, error) {
	since := now.Add(-digestWindow)

	var insights []models.Insight
	err := conn.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at").
		Find(&insights).Error
	if err != nil {
		return Event{}, false, fmt.Errorf("herald: load digest window: %w", err)
	}
	if len(insights) == 0 {
		return Event{}, false, nil
	}

	byType := map[models.InsightType]int{}
	byPriority := map[models.InsightPriority]int{}
	projects := map[uint]struct{}{}
	var highlights []string
	for _, ins := range insights {
		byType[ins.Type]++
		byPriority[ins.Priority]++
		projects[ins.ProjectID] = struct{}{}
		if priorityRank(ins.Priority) >= priorityRank(models.InsightHigh) && len(highlights) < maxDigestHighlights {
			highlights = append(highlights, fmt.Sprintf("[%s] %s (project #%d)", ins.Priority, ins.Title, ins.ProjectID))
		}
	}

	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("%d insights across %d projects since %s",
		len(insights), len(projects), timestampValue(since)))
	if len(highlights) > 0 {
		bodyLines = append(bodyLines, "")
		bodyLines = append(bodyLines, highlights...)
	}

	severity := "info"
	if byPriority[models.InsightCritical] > 0 {
		severity = "error"
	} else if byPriority[models.InsightHigh] > 0 {
		severity = "warning"
	}

	fields := []Field{
		{Name: "Total", Value: fmt.Sprintf("%d", len(insights)), Short: true},
		{Name: "Projects", Value: fmt.Sprintf("%d", len(projects)), Short: true},
	}
	for _, kind := range []models.InsightType{models.InsightRisk, models.InsightProgress, models.InsightTeam, models.InsightBudget} {
		if byType[kind] > 0 {
			fields = append(fields, Field{Name: insightTypeLabel(kind), Value: fmt.Sprintf("%d", byType[kind]), Short: true})
		}
	}
	if n := byPriority[models.InsightHigh] + byPriority[models.InsightCritical]; n > 0 {
		fields = append(fields, Field{Name: "Needs Attention", Value: fmt.Sprintf("%d", n), Short: true})
	}

	return Event{
		Title:    "Daily Insight Digest",
		Body:     strings.Join(bodyLines, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}, true, nil
}
