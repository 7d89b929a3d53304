package scoring

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/snapshot"
)

// depletionHorizonDays is how close a projected budget run-out has to be
// before it raises an alert.
const depletionHorizonDays = 30

// ForecastBudget projects total cost from task hours and compares spend
// against the budget and the expected cost at the current completion level.
func ForecastBudget(project snapshot.Project, tasks []snapshot.Task, now time.Time, params Params) BudgetResult {
	if project.Budget == nil || *project.Budget <= 0 {
		return BudgetResult{
			Alerts: []string{"No budget defined for this project"},
			Tips:   []string{"Define a project budget to enable cost tracking"},
		}
	}
	budget := *project.Budget

	var actualHours, estimatedHours float64
	for _, task := range tasks {
		if task.ActualHours != nil {
			actualHours += *task.ActualHours
		}
		if task.EstimatedHours != nil {
			estimatedHours += *task.EstimatedHours
		} else {
			estimatedHours += params.DefaultTaskHours
		}
	}

	currentCost := actualHours * params.HourlyRate
	projectedCost := estimatedHours * params.HourlyRate
	utilization := currentCost / budget * 100

	// Variance against the expected spend at the current completion level.
	tl := tallyTasks(tasks, now)
	variance := 0.0
	if expected := budget * tl.completionRate(); expected > 0 {
		variance = (currentCost - expected) / expected * 100
	}

	health := 100.0
	switch {
	case utilization > 100:
		health -= 40
	case utilization > 80:
		health -= 20
	}
	if variance > 20 {
		health -= 20
	}
	if projectedCost > budget {
		health -= 20
	}
	health = clamp100(health)

	var alerts []string
	switch {
	case utilization > 90:
		alerts = append(alerts, fmt.Sprintf("Budget utilization is over 90%% (%.1f%%) - immediate attention required", utilization))
	case utilization > 80:
		alerts = append(alerts, fmt.Sprintf("Budget utilization is over 80%% (%.1f%%) - monitor closely", utilization))
	}
	if projectedCost > budget {
		alerts = append(alerts, fmt.Sprintf("Projected cost (%.2f) exceeds budget by %.2f", projectedCost, projectedCost-budget))
	}
	if variance > 20 {
		alerts = append(alerts, fmt.Sprintf("Cost variance is %.1f%% above expected at this completion level", variance))
	}
	if days, ok := depletionDays(project, now, budget, currentCost); ok && days < depletionHorizonDays {
		alerts = append(alerts, fmt.Sprintf("Budget projected to deplete in %.0f days at the current burn rate", days))
	}

	var tips []string
	if projectedCost > budget {
		tips = append(tips, "Consider reducing scope or optimizing task estimates")
	}
	if variance > 10 {
		tips = append(tips, "Review actual vs estimated hours to improve future estimates")
	}
	if utilization > 80 {
		tips = append(tips, "Identify high-cost task categories worth automating")
	}
	if len(alerts) == 0 {
		tips = append(tips, "Budget is on track - continue monitoring")
	}

	return BudgetResult{
		ProjectedCost:  projectedCost,
		CurrentCost:    currentCost,
		UtilizationPct: utilization,
		VariancePct:    variance,
		HealthScore:    health,
		Alerts:         alerts,
		Tips:           tips,
	}
}

// depletionDays projects how many days remain until spend reaches the budget,
// assuming the burn rate observed since the project start.
func depletionDays(project snapshot.Project, now time.Time, budget, currentCost float64) (float64, bool) {
	if project.StartDate == nil || currentCost <= 0 || currentCost >= budget {
		return 0, false
	}
	elapsed := now.Sub(*project.StartDate).Hours() / 24
	if elapsed < 1 {
		return 0, false
	}
	dailyBurn := currentCost / elapsed
	if dailyBurn <= 0 {
		return 0, false
	}
	return (budget - currentCost) / dailyBurn, true
}
