package scoring

import (
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/snapshot"
)

// stuckWindow is how long a task may sit in progress without updates before
// it counts as stalled.
const stuckWindow = 7 * 24 * time.Hour

// velocityWindow is the trailing period velocity is measured over.
const velocityWindow = 4 * 7 * 24 * time.Hour

// tally holds the aggregate counts every scorer starts from, computed once
// per analysis over the task snapshot.
type tally struct {
	total          int
	completed      int
	open           int
	overdue        int
	unassignedOpen int
	stuck          int
	highPriority   int // high or critical priority, any status
	openHighPrio   int // high or critical priority among open tasks

	// assignees maps each assignee appearing on any task to their open-task
	// count; done-only contributors appear with a count of zero.
	assignees map[uint]int

	// avgCompletionDays is the mean created→completed span over tasks that
	// carry both timestamps; zero when no task does.
	avgCompletionDays float64
	timedCompletions  int

	recentCompletions int // completions inside the velocity window
}

func tallyTasks(tasks []snapshot.Task, now time.Time) tally {
	tl := tally{assignees: make(map[uint]int)}
	var completionDays float64

	for _, task := range tasks {
		tl.total++
		highPrio := task.Priority == models.PriorityHigh || task.Priority == models.PriorityCritical
		if highPrio {
			tl.highPriority++
		}

		if task.AssigneeID != nil {
			if _, ok := tl.assignees[*task.AssigneeID]; !ok {
				tl.assignees[*task.AssigneeID] = 0
			}
		}

		if task.Status == models.TaskDone {
			tl.completed++
			if task.CompletedAt != nil {
				completionDays += task.CompletedAt.Sub(task.CreatedAt).Hours() / 24
				tl.timedCompletions++
				if now.Sub(*task.CompletedAt) <= velocityWindow {
					tl.recentCompletions++
				}
			}
			continue
		}

		if task.Open() {
			tl.open++
			if task.AssigneeID == nil {
				tl.unassignedOpen++
			} else {
				tl.assignees[*task.AssigneeID]++
			}
			if highPrio {
				tl.openHighPrio++
			}
		}
		if task.Overdue(now) {
			tl.overdue++
		}
		if task.Stuck(now, stuckWindow) {
			tl.stuck++
		}
	}

	if tl.timedCompletions > 0 {
		tl.avgCompletionDays = completionDays / float64(tl.timedCompletions)
	}
	return tl
}

// completionRate is the fraction of all tasks that are done.
func (tl tally) completionRate() float64 {
	if tl.total == 0 {
		return 0
	}
	return float64(tl.completed) / float64(tl.total)
}

// overdueFraction is the fraction of all tasks that are past due.
func (tl tally) overdueFraction() float64 {
	if tl.total == 0 {
		return 0
	}
	return float64(tl.overdue) / float64(tl.total)
}

// workload returns the max and mean open-task counts across assignees.
func (tl tally) workload() (maxOpen int, avgOpen float64) {
	if len(tl.assignees) == 0 {
		return 0, 0
	}
	sum := 0
	for _, n := range tl.assignees {
		sum += n
		if n > maxOpen {
			maxOpen = n
		}
	}
	return maxOpen, float64(sum) / float64(len(tl.assignees))
}

// velocity is tasks completed per week over the trailing window.
func (tl tally) velocity() float64 {
	return float64(tl.recentCompletions) / 4
}
