package herald

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/compasshq/compass/internal/models"
)

func TestFormatInsight(t *testing.T) {
	ins := models.Insight{
		ProjectID:       7,
		Type:            models.InsightRisk,
		Priority:        models.InsightHigh,
		Title:           "Project Risk Score: 72.0%",
		Description:     "Risk analysis identified 3 risk factors",
		Recommendations: "replan; rebalance",
		ConfidenceScore: 0.8,
		DataSource:      models.SourceRules,
	}

	evt := FormatInsight(ins)

	if evt.Title != ins.Title {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Severity != "warning" {
		t.Errorf("Severity = %q, want warning for high priority", evt.Severity)
	}
	if evt.Color != ColorWarning {
		t.Errorf("Color = %q, want %q", evt.Color, ColorWarning)
	}
	if !strings.Contains(evt.Body, "Recommendations: replan; rebalance") {
		t.Errorf("Body = %q, missing recommendations", evt.Body)
	}

	fieldValue := func(name string) string {
		for _, f := range evt.Fields {
			if f.Name == name {
				return f.Value
			}
		}
		return ""
	}
	if got := fieldValue("Type"); got != "Risk Analysis" {
		t.Errorf("Type field = %q", got)
	}
	if got := fieldValue("Project"); got != "#7" {
		t.Errorf("Project field = %q", got)
	}
	if got := fieldValue("Confidence"); got != "80%" {
		t.Errorf("Confidence field = %q", got)
	}
	if got := fieldValue("Source"); got != "rules" {
		t.Errorf("Source field = %q", got)
	}
}

func TestFormatInsight_CriticalSeverity(t *testing.T) {
	evt := FormatInsight(models.Insight{Priority: models.InsightCritical, Title: "t"})
	if evt.Severity != "error" || evt.Color != ColorError {
		t.Errorf("Severity = %q, Color = %q", evt.Severity, evt.Color)
	}
}

func TestNotify_FiltersByPriority(t *testing.T) {
	mock := NewMockAdapter()
	h := New("high", mock)

	insights := []models.Insight{
		{Title: "low one", Priority: models.InsightLow},
		{Title: "medium one", Priority: models.InsightMedium},
		{Title: "high one", Priority: models.InsightHigh},
		{Title: "critical one", Priority: models.InsightCritical},
	}
	if err := h.Notify(context.Background(), insights); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	sent := mock.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d events, want 2: %+v", len(sent), sent)
	}
	if sent[0].Title != "high one" || sent[1].Title != "critical one" {
		t.Errorf("sent = %q, %q", sent[0].Title, sent[1].Title)
	}
}

func TestNotify_NoAdaptersIsNoop(t *testing.T) {
	h := New("high")
	if h.Enabled() {
		t.Error("Enabled() = true with no adapters")
	}
	if err := h.Notify(context.Background(), []models.Insight{{Priority: models.InsightCritical}}); err != nil {
		t.Errorf("Notify: %v", err)
	}
}

func TestNotify_CollectsAdapterErrors(t *testing.T) {
	broken := NewMockAdapter()
	broken.FailWith(errors.New("slack down"))
	working := NewMockAdapter()
	h := New("low", broken, working)

	err := h.Notify(context.Background(), []models.Insight{{Title: "a", Priority: models.InsightHigh}})
	if err == nil {
		t.Fatal("Notify returned nil, want the adapter error")
	}
	if !strings.Contains(err.Error(), "slack down") {
		t.Errorf("err = %v", err)
	}
	if len(working.Sent()) != 1 {
		t.Errorf("working adapter got %d events, one broken adapter must not block the rest", len(working.Sent()))
	}
}

func TestBroadcast(t *testing.T) {
	a, b := NewMockAdapter(), NewMockAdapter()
	h := New("high", a, b)

	if err := h.Broadcast(context.Background(), Event{Title: "digest"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(a.Sent()) != 1 || len(b.Sent()) != 1 {
		t.Errorf("sent = %d, %d, want 1 each", len(a.Sent()), len(b.Sent()))
	}
}

func TestClose(t *testing.T) {
	a, b := NewMockAdapter(), NewMockAdapter()
	h := New("high", a, b)
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("adapters not closed")
	}
}

func TestPriorityRank(t *testing.T) {
	order := []models.InsightPriority{models.InsightLow, models.InsightMedium, models.InsightHigh, models.InsightCritical}
	for i := 1; i < len(order); i++ {
		if priorityRank(order[i-1]) >= priorityRank(order[i]) {
			t.Errorf("rank(%s) >= rank(%s)", order[i-1], order[i])
		}
	}
	if priorityRank("bogus") != 0 {
		t.Errorf("unknown priority rank = %d, want 0", priorityRank("bogus"))
	}
}
