package advisor

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/snapshot"
)

// promptData carries the aggregates every analysis prompt embeds. The model
// sees the same numbers the rule-based scorers compute from, so both paths
// reason over identical input.
type promptData struct {
	Name           string
	Status         string
	Deadline       string
	Budget         string
	TotalTasks     int
	CompletedTasks int
	CompletionRate float64
	OverdueTasks   int
	OverdueRate    float64
	InProgress     int
	Unassigned     int
	Assignees      int
	ActualHours    float64
	EstimatedHours float64
}

func buildPromptData(project snapshot.Project, tasks []snapshot.Task, now time.Time) promptData {
	d := promptData{
		Name:     project.Name,
		Status:   string(project.Status),
		Deadline: "not set",
		Budget:   "not set",
	}
	if project.EndDate != nil {
		d.Deadline = project.EndDate.Format("2006-01-02")
	}
	if project.Budget != nil && *project.Budget > 0 {
		d.Budget = fmt.Sprintf("%.2f", *project.Budget)
	}

	assignees := map[uint]struct{}{}
	for _, task := range tasks {
		d.TotalTasks++
		switch {
		case !task.Open():
			if task.Status == models.TaskDone {
				d.CompletedTasks++
			}
		default:
			if task.AssigneeID == nil {
				d.Unassigned++
			}
		}
		if task.Status == models.TaskInProgress {
			d.InProgress++
		}
		if task.Overdue(now) {
			d.OverdueTasks++
		}
		if task.AssigneeID != nil {
			assignees[*task.AssigneeID] = struct{}{}
		}
		if task.ActualHours != nil {
			d.ActualHours += *task.ActualHours
		}
		if task.EstimatedHours != nil {
			d.EstimatedHours += *task.EstimatedHours
		}
	}
	d.Assignees = len(assignees)
	if d.TotalTasks > 0 {
		d.CompletionRate = float64(d.CompletedTasks) / float64(d.TotalTasks) * 100
		d.OverdueRate = float64(d.OverdueTasks) / float64(d.TotalTasks) * 100
	}
	return d
}

const projectSummaryTemplate = `Analyze this project:
- Name: {{ .Name }}
- Status: {{ .Status }}
- Deadline: {{ .Deadline }}
- Budget: {{ .Budget }}
- Total tasks: {{ .TotalTasks }}
- Completed tasks: {{ .CompletedTasks }} ({{ printf "%.1f" .CompletionRate }}%)
- Overdue tasks: {{ .OverdueTasks }} ({{ printf "%.1f" .OverdueRate }}%)
- Tasks in progress: {{ .InProgress }}
- Unassigned open tasks: {{ .Unassigned }}
- Distinct assignees: {{ .Assignees }}
- Hours logged: {{ printf "%.1f" .ActualHours }} of {{ printf "%.1f" .EstimatedHours }} estimated
`

var summaryTmpl = template.Must(template.New("summary").Parse(projectSummaryTemplate))

// renderSummary produces the user prompt shared by all four analyses.
func renderSummary(project snapshot.Project, tasks []snapshot.Task, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, buildPromptData(project, tasks, now)); err != nil {
		return "", fmt.Errorf("advisor: render prompt: %w", err)
	}
	return buf.String(), nil
}

// Per-kind system messages. Each pins the response to bare JSON matching the
// corresponding result shape.
const (
	riskSystem = `You are an expert project risk analyst. Respond ONLY with a valid JSON object, no markdown, with this structure:
{
  "overall_risk_score": 0.0,
  "risk_level": "minimal|low|medium|high|critical",
  "risk_factors": [{"factor": "name", "severity": "low|medium|high|critical", "description": "text", "impact": 0.0, "category": "schedule|resource|quality|technical"}],
  "risk_categories": {"schedule": 0.0},
  "recommendations": ["text"],
  "critical_issues": ["text"]
}`

	progressSystem = `You are an expert project scheduler. Respond ONLY with a valid JSON object, no markdown, with this structure:
{
  "predicted_completion_date": "YYYY-MM-DD",
  "confidence_level": 0.0,
  "completion_probability": 0.0,
  "factors_affecting_timeline": ["text"],
  "recommended_actions": ["text"]
}`

	teamSystem = `You are an expert engineering manager. Respond ONLY with a valid JSON object, no markdown, with this structure:
{
  "team_velocity": 0.0,
  "team_efficiency_score": 0.0,
  "individual_performance": [{"assignee_id": 1, "total_tasks": 0, "completed_tasks": 0, "completion_rate": 0.0, "avg_completion_time_days": 0.0, "overdue_tasks": 0, "productivity_score": 0.0, "performance_level": "text"}],
  "bottlenecks": ["text"],
  "optimization_suggestions": ["text"]
}`

	budgetSystem = `You are an expert project cost analyst. Respond ONLY with a valid JSON object, no markdown, with this structure:
{
  "projected_total_cost": 0.0,
  "current_cost": 0.0,
  "current_utilization": 0.0,
  "cost_variance": 0.0,
  "budget_health_score": 0.0,
  "budget_alerts": ["text"],
  "cost_optimization_tips": ["text"]
}`
)
