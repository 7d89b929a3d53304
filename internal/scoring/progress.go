package scoring

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/snapshot"
)

const (
	// defaultCompletionDays is assumed per task when no completion history
	// exists yet.
	defaultCompletionDays = 4.0
	// noTaskEstimateDays is the horizon predicted for projects without tasks
	// and without a deadline.
	noTaskEstimateDays = 30
)

// PredictCompletion estimates when the remaining work will land, based on the
// historical pace of completed tasks adjusted for team size, task complexity,
// and overdue pressure.
func PredictCompletion(project snapshot.Project, tasks []snapshot.Task, now time.Time) ProgressResult {
	if len(tasks) == 0 {
		predicted := now.AddDate(0, 0, noTaskEstimateDays)
		if project.EndDate != nil {
			predicted = *project.EndDate
		}
		return ProgressResult{
			PredictedCompletionDate: predicted,
			Confidence:              0.2,
			CompletionProbability:   0.5,
			Factors:                 []string{"No tasks defined - estimate based on project defaults"},
			Recommendations:         []string{"Define project tasks and a timeline"},
		}
	}

	tl := tallyTasks(tasks, now)

	avgDays := tl.avgCompletionDays
	if tl.timedCompletions == 0 {
		avgDays = defaultCompletionDays
	}
	remainingDays := float64(tl.open) * avgDays

	var factors []string

	// Team-size adjustment: parallel assignees shorten the critical path,
	// nobody assigned stretches it.
	activeAssignees := 0
	for _, open := range tl.assignees {
		if open > 0 {
			activeAssignees++
		}
	}
	switch {
	case activeAssignees > 1:
		remainingDays = remainingDays / float64(activeAssignees) * 0.8
		factors = append(factors, fmt.Sprintf("%d active assignees working in parallel", activeAssignees))
	case activeAssignees == 0 && tl.open > 0:
		remainingDays *= 1.5
		factors = append(factors, "No tasks assigned to team members")
	case activeAssignees == 1:
		factors = append(factors, "Single active assignee - potential bottleneck")
	}

	// Complexity adjustment.
	if tl.open > 0 && float64(tl.openHighPrio)/float64(tl.open) > 0.50 {
		remainingDays *= 1.3
		factors = append(factors, "Over half of the remaining tasks are high or critical priority")
	}

	// Overdue pressure, scaled by how much of the project is late.
	overdueFrac := tl.overdueFraction()
	if tl.overdue > 0 {
		remainingDays *= 1.2 + 0.3*overdueFrac
		factors = append(factors, fmt.Sprintf("%d overdue tasks affecting the schedule", tl.overdue))
	}

	if tl.completionRate() < 0.20 {
		factors = append(factors, "Project in early stages - estimates may shift")
	}

	predicted := now.Add(time.Duration(remainingDays * 24 * float64(time.Hour)))

	// Confidence starts high and sheds fixed penalties per uncertainty signal.
	confidence := 0.85
	if tl.completed < 3 {
		confidence -= 0.25
	}
	if tl.overdue > 0 {
		confidence -= 0.15
	}
	if activeAssignees == 0 {
		confidence -= 0.25
	}
	if tl.velocity() < 1 {
		confidence -= 0.10
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	return ProgressResult{
		PredictedCompletionDate: predicted,
		Confidence:              clamp01(confidence),
		CompletionProbability:   completionProbability(predicted, project.EndDate),
		Factors:                 factors,
		Recommendations:         progressRecommendations(tl, activeAssignees),
	}
}

// completionProbability compares the prediction against the project deadline.
// Predictions past the deadline lose probability in proportion to the days
// over; without a deadline the probability stays neutral.
func completionProbability(predicted time.Time, endDate *time.Time) float64 {
	if endDate == nil {
		return 0.5
	}
	daysOver := predicted.Sub(*endDate).Hours() / 24
	if daysOver <= 0 {
		return 0.9
	}
	p := 0.9 - daysOver*0.02
	if p < 0.1 {
		p = 0.1
	}
	return p
}

func progressRecommendations(tl tally, activeAssignees int) []string {
	var recs []string
	if tl.overdue > 0 {
		recs = append(recs, "Address overdue tasks immediately")
	}
	if activeAssignees < 2 && tl.open > 10 {
		recs = append(recs, "Consider adding more team members")
	}
	if tl.stuck > 0 {
		recs = append(recs, "Unblock tasks stalled in progress")
	}
	if len(recs) == 0 {
		recs = append(recs, "Project timeline looks realistic")
	}
	return recs
}
