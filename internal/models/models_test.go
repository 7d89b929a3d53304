package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestUserSchema(t *testing.T) {
	typ := reflect.TypeOf(User{})
	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Email", "uniqueIndex")
	assertGormTag(t, typ, "Role", "default:member")
	assertFieldType(t, typ, "Role", "models.Role")
}

func TestProjectSchema(t *testing.T) {
	typ := reflect.TypeOf(Project{})
	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Status", "default:planning")
	assertGormTag(t, typ, "OwnerID", "index")
	assertFieldType(t, typ, "Budget", "*float64")
	assertFieldType(t, typ, "EndDate", "*time.Time")
}

func TestTaskSchema(t *testing.T) {
	typ := reflect.TypeOf(Task{})
	assertGormTag(t, typ, "ProjectID", "index")
	assertGormTag(t, typ, "Status", "default:todo")
	assertGormTag(t, typ, "Priority", "default:medium")
	assertFieldType(t, typ, "AssigneeID", "*uint")
	assertFieldType(t, typ, "EstimatedHours", "*float64")
	assertFieldType(t, typ, "ActualHours", "*float64")
	assertFieldType(t, typ, "CompletedAt", "*time.Time")
}

func TestCommentSchema(t *testing.T) {
	typ := reflect.TypeOf(Comment{})
	assertGormTag(t, typ, "TaskID", "index")
	assertGormTag(t, typ, "AuthorID", "index")
	assertGormTag(t, typ, "Body", "not null")
}

func TestInsightSchema(t *testing.T) {
	typ := reflect.TypeOf(Insight{})
	assertGormTag(t, typ, "ProjectID", "index")
	assertGormTag(t, typ, "Type", "index")
	assertGormTag(t, typ, "Priority", "default:medium")
	assertGormTag(t, typ, "DataSource", "default:rules")
	assertGormTag(t, typ, "ExpiresAt", "index")
	assertFieldType(t, typ, "AcknowledgedBy", "*uint")
}

func TestEnumValues(t *testing.T) {
	statuses := []TaskStatus{TaskTodo, TaskInProgress, TaskInReview, TaskDone, TaskCancelled}
	want := []string{"todo", "in_progress", "in_review", "done", "cancelled"}
	for i, s := range statuses {
		if string(s) != want[i] {
			t.Errorf("task status[%d] = %q, want %q", i, s, want[i])
		}
	}

	kinds := []InsightType{InsightRisk, InsightProgress, InsightTeam, InsightBudget}
	wantKinds := []string{"risk_analysis", "progress_prediction", "team_performance", "budget_forecast"}
	for i, k := range kinds {
		if string(k) != wantKinds[i] {
			t.Errorf("insight type[%d] = %q, want %q", i, k, wantKinds[i])
		}
	}
}
