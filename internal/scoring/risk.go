package scoring

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/snapshot"
)

// Risk-level thresholds over the summed score.
const (
	riskCriticalAt = 0.7
	riskHighAt     = 0.5
	riskMediumAt   = 0.3
	riskLowAt      = 0.1
)

// ScoreRisk evaluates a project's risk from its task snapshot. Each triggered
// factor adds a fixed amount to the running score, capped at 1.0; the level
// follows the score monotonically.
func ScoreRisk(project snapshot.Project, tasks []snapshot.Task, now time.Time) RiskResult {
	if len(tasks) == 0 {
		return RiskResult{
			Score:           0.1,
			Level:           RiskLow,
			Factors:         []RiskFactor{},
			Categories:      map[string]float64{},
			Recommendations: []string{"Create tasks to enable risk assessment"},
			CriticalIssues:  []string{},
		}
	}

	tl := tallyTasks(tasks, now)
	var factors []RiskFactor

	// Overdue tasks.
	if frac := tl.overdueFraction(); frac > 0 {
		var impact float64
		var severity string
		switch {
		case frac > 0.30:
			impact, severity = 0.40, SeverityCritical
		case frac > 0.15:
			impact, severity = 0.25, SeverityHigh
		default:
			impact, severity = 0.10, SeverityMedium
		}
		factors = append(factors, RiskFactor{
			Factor:      "Overdue Tasks",
			Severity:    severity,
			Description: fmt.Sprintf("%d of %d tasks are overdue (%.1f%%)", tl.overdue, tl.total, frac*100),
			Impact:      impact,
			Category:    CategorySchedule,
		})
	}

	// Completion pace against the project deadline.
	if project.EndDate != nil {
		daysRemaining := project.EndDate.Sub(now).Hours() / 24
		rate := tl.completionRate()
		switch {
		case rate < 0.30 && daysRemaining < 30:
			factors = append(factors, RiskFactor{
				Factor:      "Behind Schedule",
				Severity:    SeverityHigh,
				Description: fmt.Sprintf("only %.0f%% complete with %.0f days to the deadline", rate*100, daysRemaining),
				Impact:      0.30,
				Category:    CategorySchedule,
			})
		case rate < 0.50 && daysRemaining < 60:
			factors = append(factors, RiskFactor{
				Factor:      "Behind Schedule",
				Severity:    SeverityMedium,
				Description: fmt.Sprintf("only %.0f%% complete with %.0f days to the deadline", rate*100, daysRemaining),
				Impact:      0.20,
				Category:    CategorySchedule,
			})
		}
	}

	// Unassigned open tasks.
	if tl.unassignedOpen > 0 {
		pct := float64(tl.unassignedOpen) / float64(tl.total)
		impact, severity := 0.10, SeverityLow
		if pct > 0.20 {
			impact, severity = 0.20, SeverityMedium
		}
		factors = append(factors, RiskFactor{
			Factor:      "Unassigned Tasks",
			Severity:    severity,
			Description: fmt.Sprintf("%d open tasks have no assignee (%.1f%%)", tl.unassignedOpen, pct*100),
			Impact:      impact,
			Category:    CategoryResource,
		})
	}

	// Workload imbalance across assignees.
	if maxOpen, avgOpen := tl.workload(); avgOpen > 0 {
		switch {
		case float64(maxOpen) > avgOpen*2.5:
			factors = append(factors, RiskFactor{
				Factor:      "Workload Imbalance",
				Severity:    SeverityHigh,
				Description: fmt.Sprintf("heaviest assignee carries %d open tasks against an average of %.1f", maxOpen, avgOpen),
				Impact:      0.25,
				Category:    CategoryResource,
			})
		case float64(maxOpen) > avgOpen*1.8:
			factors = append(factors, RiskFactor{
				Factor:      "Workload Imbalance",
				Severity:    SeverityMedium,
				Description: fmt.Sprintf("heaviest assignee carries %d open tasks against an average of %.1f", maxOpen, avgOpen),
				Impact:      0.15,
				Category:    CategoryResource,
			})
		}
	}

	// Tasks stalled in progress.
	if tl.stuck > 0 {
		stuckPct := float64(tl.stuck) / float64(tl.total)
		impact, severity := 0.20, SeverityHigh
		if stuckPct < 0.15 {
			impact, severity = 0.15, SeverityMedium
		}
		factors = append(factors, RiskFactor{
			Factor:      "Stalled Tasks",
			Severity:    severity,
			Description: fmt.Sprintf("%d tasks in progress with no update for over a week", tl.stuck),
			Impact:      impact,
			Category:    CategoryQuality,
		})
	}

	// Priority concentration.
	if float64(tl.highPriority)/float64(tl.total) > 0.40 {
		factors = append(factors, RiskFactor{
			Factor:      "High Complexity",
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("%d of %d tasks are high or critical priority", tl.highPriority, tl.total),
			Impact:      0.15,
			Category:    CategoryTechnical,
		})
	}

	// Long-running projects accumulate risk on their own.
	if project.StartDate != nil && project.EndDate != nil {
		if project.EndDate.Sub(*project.StartDate).Hours()/24 > 180 {
			factors = append(factors, RiskFactor{
				Factor:      "Long Duration",
				Severity:    SeverityLow,
				Description: "project span exceeds 180 days",
				Impact:      0.10,
				Category:    CategorySchedule,
			})
		}
	}

	score := 0.0
	categories := map[string]float64{}
	var criticalIssues []string
	for _, f := range factors {
		score += f.Impact
		categories[f.Category] = clamp01(categories[f.Category] + f.Impact)
		if f.Severity == SeverityCritical || f.Severity == SeverityHigh {
			criticalIssues = append(criticalIssues, f.Description)
		}
	}
	score = clamp01(score)

	return RiskResult{
		Score:           score,
		Level:           riskLevel(score),
		Factors:         factors,
		Categories:      categories,
		Recommendations: riskRecommendations(factors),
		CriticalIssues:  criticalIssues,
	}
}

// riskLevel maps a score to its level bucket.
func riskLevel(score float64) RiskLevel {
	switch {
	case score >= riskCriticalAt:
		return RiskCritical
	case score >= riskHighAt:
		return RiskHigh
	case score >= riskMediumAt:
		return RiskMedium
	case score >= riskLowAt:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// riskRecommendations derives one action per category that triggered at
// high or critical severity, deduplicated, with a monitoring default.
func riskRecommendations(factors []RiskFactor) []string {
	byCategory := map[string]string{
		CategorySchedule: "Revise the schedule and reprioritize critical tasks",
		CategoryResource: "Redistribute workload across the team",
		CategoryQuality:  "Review tasks stuck in progress and unblock them",
	}
	seen := map[string]bool{}
	var recs []string
	for _, f := range factors {
		if f.Severity != SeverityCritical && f.Severity != SeverityHigh {
			continue
		}
		rec, ok := byCategory[f.Category]
		if !ok || seen[rec] {
			continue
		}
		seen[rec] = true
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		recs = append(recs, "Project risk is under control - continue monitoring")
	}
	return recs
}
