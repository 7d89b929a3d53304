package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/snapshot"
)

// defaultEfficiency is reported when no task carries both estimated and
// actual hours.
const defaultEfficiency = 75.0

// Performance-level thresholds over the productivity score.
const (
	levelExcellentAt = 50
	levelVeryGoodAt  = 35
	levelGoodAt      = 25
	levelRegularAt   = 15
)

// ScoreTeam measures trailing velocity, per-assignee productivity, delivery
// bottlenecks, and overall estimate accuracy.
func ScoreTeam(project snapshot.Project, tasks []snapshot.Task, now time.Time) TeamResult {
	if len(tasks) == 0 {
		return TeamResult{
			Velocity:        0,
			EfficiencyScore: defaultEfficiency,
			Members:         []MemberStats{},
			Bottlenecks:     []string{"No tasks created yet"},
			Suggestions:     []string{"Create and assign tasks to start measuring team performance"},
		}
	}

	tl := tallyTasks(tasks, now)
	members := memberStats(tasks, now)
	bottlenecks := teamBottlenecks(tl, members)
	efficiency := teamEfficiency(tasks)

	return TeamResult{
		Velocity:        tl.velocity(),
		EfficiencyScore: efficiency,
		Members:         members,
		Bottlenecks:     bottlenecks,
		Suggestions:     teamSuggestions(tl.velocity(), efficiency, bottlenecks, members),
	}
}

// memberStats aggregates each assignee's record, sorted by assignee id for
// deterministic output.
func memberStats(tasks []snapshot.Task, now time.Time) []MemberStats {
	byAssignee := map[uint][]snapshot.Task{}
	for _, task := range tasks {
		if task.AssigneeID != nil {
			byAssignee[*task.AssigneeID] = append(byAssignee[*task.AssigneeID], task)
		}
	}

	ids := make([]uint, 0, len(byAssignee))
	for id := range byAssignee {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	members := make([]MemberStats, 0, len(ids))
	for _, id := range ids {
		own := byAssignee[id]
		stats := MemberStats{AssigneeID: id, TotalTasks: len(own)}

		var completionDays float64
		var timed int
		var ratioSum float64
		var ratioCount int
		for _, task := range own {
			if task.Status == models.TaskDone {
				stats.CompletedTasks++
				if task.CompletedAt != nil {
					completionDays += task.CompletedAt.Sub(task.CreatedAt).Hours() / 24
					timed++
				}
				if r, ok := hourRatio(task); ok {
					ratioSum += r
					ratioCount++
				}
			}
			if task.Overdue(now) {
				stats.OverdueTasks++
			}
		}

		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		if timed > 0 {
			stats.AvgCompletionDays = completionDays / float64(timed)
		}
		stats.ProductivityScore = productivityScore(stats.CompletionRate, ratioSum, ratioCount, stats.OverdueTasks)
		stats.PerformanceLevel = performanceLevel(stats.ProductivityScore)
		members = append(members, stats)
	}
	return members
}

// productivityScore builds a banded score from completion rate, adds a bonus
// for beating estimates, and deducts 10 points per overdue task, floored at 0.
func productivityScore(completionRate, ratioSum float64, ratioCount, overdue int) float64 {
	score := 0.0
	switch {
	case completionRate >= 90:
		score += 40
	case completionRate >= 75:
		score += 30
	case completionRate >= 60:
		score += 20
	case completionRate >= 40:
		score += 10
	}

	if ratioCount > 0 {
		switch avg := ratioSum / float64(ratioCount); {
		case avg >= 1.1: // consistently under estimate
			score += 20
		case avg >= 0.9:
			score += 10
		case avg >= 0.7:
			score += 5
		}
	}

	score -= float64(overdue) * 10
	if score < 0 {
		score = 0
	}
	return score
}

func performanceLevel(score float64) string {
	switch {
	case score >= levelExcellentAt:
		return "excellent"
	case score >= levelVeryGoodAt:
		return "very_good"
	case score >= levelGoodAt:
		return "good"
	case score >= levelRegularAt:
		return "regular"
	default:
		return "needs_improvement"
	}
}

// hourRatio returns estimated/actual hours for a task carrying both.
func hourRatio(task snapshot.Task) (float64, bool) {
	if task.EstimatedHours == nil || task.ActualHours == nil || *task.ActualHours <= 0 {
		return 0, false
	}
	return *task.EstimatedHours / *task.ActualHours, true
}

// teamEfficiency averages per-task estimate accuracy as a 0-100 score.
func teamEfficiency(tasks []snapshot.Task) float64 {
	var sum float64
	var n int
	for _, task := range tasks {
		if r, ok := hourRatio(task); ok {
			sum += r
			n++
		}
	}
	if n == 0 {
		return defaultEfficiency
	}
	return clamp100(sum / float64(n) * 100)
}

func teamBottlenecks(tl tally, members []MemberStats) []string {
	var bottlenecks []string
	if tl.stuck > 0 {
		bottlenecks = append(bottlenecks, fmt.Sprintf("%d tasks stuck in progress for over a week", tl.stuck))
	}
	if tl.unassignedOpen > 0 {
		bottlenecks = append(bottlenecks, fmt.Sprintf("%d unassigned open tasks", tl.unassignedOpen))
	}

	// Workload spread: compare busiest and least busy assignees.
	if len(members) > 1 {
		minOpen, maxOpen := -1, 0
		for _, n := range tl.assignees {
			if minOpen < 0 || n < minOpen {
				minOpen = n
			}
			if n > maxOpen {
				maxOpen = n
			}
		}
		imbalanced := maxOpen > 0 && (minOpen == 0 || float64(maxOpen)/float64(minOpen) > 2.5)
		if imbalanced {
			bottlenecks = append(bottlenecks, "Uneven task distribution among team members")
		}
	}
	return bottlenecks
}

func teamSuggestions(velocity, efficiency float64, bottlenecks []string, members []MemberStats) []string {
	var suggestions []string
	if velocity < 2 {
		suggestions = append(suggestions, "Consider breaking down large tasks into smaller ones")
	}
	if efficiency < 70 {
		suggestions = append(suggestions, "Review task estimates against actual hours")
	}
	if len(bottlenecks) > 0 {
		suggestions = append(suggestions, "Address identified bottlenecks to improve flow")
	}
	for _, m := range members {
		if m.CompletionRate < 50 {
			suggestions = append(suggestions, "Provide support to team members with low completion rates")
			break
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Team performance is good - maintain current practices")
	}
	return suggestions
}
