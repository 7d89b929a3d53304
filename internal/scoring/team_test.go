package scoring

import (
	"strings"
	"testing"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/snapshot"
)

func TestScoreTeam_EmptyInput(t *testing.T) {
	got := ScoreTeam(snapshot.Project{}, nil, testNow)
	if got.Velocity != 0 {
		t.Errorf("Velocity = %v, want 0", got.Velocity)
	}
	if got.EfficiencyScore != defaultEfficiency {
		t.Errorf("EfficiencyScore = %v, want default %v", got.EfficiencyScore, defaultEfficiency)
	}
	if len(got.Bottlenecks) != 1 || !strings.Contains(got.Bottlenecks[0], "No tasks") {
		t.Errorf("Bottlenecks = %v, want a create-tasks entry", got.Bottlenecks)
	}
}

func TestScoreTeam_Velocity(t *testing.T) {
	// 8 tasks completed inside the trailing 4 weeks, 2 before it.
	var tasks []snapshot.Task
	for i := 0; i < 8; i++ {
		done := testNow.AddDate(0, 0, -(i + 1))
		tasks = append(tasks, snapshot.Task{
			ID: uint(i + 1), Status: models.TaskDone, Priority: models.PriorityMedium,
			AssigneeID: uintPtr(1), CreatedAt: done.AddDate(0, 0, -3), UpdatedAt: done, CompletedAt: &done,
		})
	}
	for i := 8; i < 10; i++ {
		done := testNow.AddDate(0, 0, -40)
		tasks = append(tasks, snapshot.Task{
			ID: uint(i + 1), Status: models.TaskDone, Priority: models.PriorityMedium,
			AssigneeID: uintPtr(1), CreatedAt: done.AddDate(0, 0, -3), UpdatedAt: done, CompletedAt: &done,
		})
	}

	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	if got.Velocity != 2.0 {
		t.Errorf("Velocity = %v, want 2.0 (8 completions / 4 weeks)", got.Velocity)
	}
}

func TestScoreTeam_BottleneckDetection(t *testing.T) {
	// 5 open tasks all on user 1; three other members only have done tasks.
	var tasks []snapshot.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, snapshot.Task{
			ID: uint(i + 1), Status: models.TaskTodo, Priority: models.PriorityMedium,
			AssigneeID: uintPtr(1), CreatedAt: testNow.AddDate(0, 0, -10), UpdatedAt: testNow,
		})
	}
	for id := uint(2); id <= 4; id++ {
		done := testNow.AddDate(0, 0, -3)
		tasks = append(tasks, snapshot.Task{
			ID: uint(10 + id), Status: models.TaskDone, Priority: models.PriorityMedium,
			AssigneeID: uintPtr(id), CreatedAt: testNow.AddDate(0, 0, -8), UpdatedAt: done, CompletedAt: &done,
		})
	}

	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	found := false
	for _, b := range got.Bottlenecks {
		if strings.Contains(b, "Uneven task distribution") {
			found = true
		}
	}
	if !found {
		t.Errorf("Bottlenecks = %v, want an uneven-distribution entry", got.Bottlenecks)
	}
}

func TestScoreTeam_StuckAndUnassignedBottlenecks(t *testing.T) {
	tasks := makeTasks(6)
	tasks[0].Status = models.TaskInProgress
	tasks[0].UpdatedAt = testNow.AddDate(0, 0, -10)
	tasks[1].AssigneeID = nil

	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	joined := strings.Join(got.Bottlenecks, " | ")
	if !strings.Contains(joined, "stuck in progress") {
		t.Errorf("Bottlenecks = %v, want a stuck entry", got.Bottlenecks)
	}
	if !strings.Contains(joined, "unassigned") {
		t.Errorf("Bottlenecks = %v, want an unassigned entry", got.Bottlenecks)
	}
}

func TestScoreTeam_MemberStats(t *testing.T) {
	created := testNow.AddDate(0, 0, -10)
	done := testNow.AddDate(0, 0, -2)
	past := testNow.AddDate(0, 0, -1)
	tasks := []snapshot.Task{
		// User 1: 2 done (under estimate), nothing overdue.
		{ID: 1, Status: models.TaskDone, AssigneeID: uintPtr(1), CreatedAt: created, UpdatedAt: done, CompletedAt: &done,
			EstimatedHours: floatPtr(8), ActualHours: floatPtr(6), Priority: models.PriorityMedium},
		{ID: 2, Status: models.TaskDone, AssigneeID: uintPtr(1), CreatedAt: created, UpdatedAt: done, CompletedAt: &done,
			EstimatedHours: floatPtr(10), ActualHours: floatPtr(8), Priority: models.PriorityMedium},
		// User 2: 1 of 3 done, one overdue.
		{ID: 3, Status: models.TaskDone, AssigneeID: uintPtr(2), CreatedAt: created, UpdatedAt: done, CompletedAt: &done, Priority: models.PriorityMedium},
		{ID: 4, Status: models.TaskTodo, AssigneeID: uintPtr(2), CreatedAt: created, UpdatedAt: testNow, DueDate: &past, Priority: models.PriorityMedium},
		{ID: 5, Status: models.TaskTodo, AssigneeID: uintPtr(2), CreatedAt: created, UpdatedAt: testNow, Priority: models.PriorityMedium},
	}

	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	if len(got.Members) != 2 {
		t.Fatalf("len(Members) = %d, want 2", len(got.Members))
	}

	u1 := got.Members[0]
	if u1.AssigneeID != 1 || u1.CompletionRate != 100 {
		t.Errorf("member 1 = %+v, want assignee 1 at 100%%", u1)
	}
	// 100% completion (+40) plus under-estimate bonus (+20), no overdue.
	if u1.ProductivityScore != 60 {
		t.Errorf("member 1 productivity = %v, want 60", u1.ProductivityScore)
	}
	if u1.PerformanceLevel != "excellent" {
		t.Errorf("member 1 level = %q, want excellent", u1.PerformanceLevel)
	}

	u2 := got.Members[1]
	if u2.OverdueTasks != 1 {
		t.Errorf("member 2 overdue = %d, want 1", u2.OverdueTasks)
	}
	if u2.ProductivityScore < 0 {
		t.Errorf("member 2 productivity = %v, want >= 0", u2.ProductivityScore)
	}
}

func TestScoreTeam_EfficiencyBounds(t *testing.T) {
	created := testNow.AddDate(0, 0, -5)
	done := testNow.AddDate(0, 0, -1)
	tasks := []snapshot.Task{
		// Massively under estimate: raw ratio 10x must still clamp to 100.
		{ID: 1, Status: models.TaskDone, AssigneeID: uintPtr(1), CreatedAt: created, UpdatedAt: done, CompletedAt: &done,
			EstimatedHours: floatPtr(100), ActualHours: floatPtr(10), Priority: models.PriorityMedium},
	}
	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	if got.EfficiencyScore < 0 || got.EfficiencyScore > 100 {
		t.Errorf("EfficiencyScore = %v, want within [0,100]", got.EfficiencyScore)
	}
}

func TestScoreTeam_LowVelocitySuggestion(t *testing.T) {
	tasks := makeTasks(4) // nothing completed, velocity 0
	got := ScoreTeam(snapshot.Project{}, tasks, testNow)
	found := false
	for _, s := range got.Suggestions {
		if strings.Contains(s, "breaking down large tasks") {
			found = true
		}
	}
	if !found {
		t.Errorf("Suggestions = %v, want a task-breakdown entry for low velocity", got.Suggestions)
	}
}

func TestPerformanceLevel_Thresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{60, "excellent"},
		{50, "excellent"},
		{40, "very_good"},
		{30, "good"},
		{20, "regular"},
		{5, "needs_improvement"},
	}
	for _, tt := range tests {
		if got := performanceLevel(tt.score); got != tt.want {
			t.Errorf("performanceLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
