package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/snapshot"
)

// Risk asks the model for a risk assessment. Any failure is ErrUnavailable.
func (c *Client) Risk(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.RiskResult, error) {
	raw, err := c.analyze(ctx, riskSystem, project, tasks, now)
	if err != nil {
		return scoring.RiskResult{}, err
	}

	var res scoring.RiskResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return scoring.RiskResult{}, unavailable(fmt.Errorf("parse risk response: %w", err))
	}
	if !validRiskLevel(res.Level) {
		return scoring.RiskResult{}, unavailable(fmt.Errorf("unknown risk level %q", res.Level))
	}
	res.Score = clamp01(res.Score)
	for i := range res.Factors {
		res.Factors[i].Impact = clamp01(res.Factors[i].Impact)
	}
	return res, nil
}

// progressWire mirrors ProgressResult but takes the date as a plain string
// so both YYYY-MM-DD and RFC 3339 completions parse.
type progressWire struct {
	PredictedCompletionDate string   `json:"predicted_completion_date"`
	Confidence              float64  `json:"confidence_level"`
	CompletionProbability   float64  `json:"completion_probability"`
	Factors                 []string `json:"factors_affecting_timeline"`
	Recommendations         []string `json:"recommended_actions"`
}

// Progress asks the model for a completion prediction.
func (c *Client) Progress(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.ProgressResult, error) {
	raw, err := c.analyze(ctx, progressSystem, project, tasks, now)
	if err != nil {
		return scoring.ProgressResult{}, err
	}

	var wire progressWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return scoring.ProgressResult{}, unavailable(fmt.Errorf("parse progress response: %w", err))
	}
	predicted, err := parseDate(wire.PredictedCompletionDate)
	if err != nil {
		return scoring.ProgressResult{}, unavailable(err)
	}
	return scoring.ProgressResult{
		PredictedCompletionDate: predicted,
		Confidence:              clamp01(wire.Confidence),
		CompletionProbability:   clamp01(wire.CompletionProbability),
		Factors:                 wire.Factors,
		Recommendations:         wire.Recommendations,
	}, nil
}

// Team asks the model for a team performance analysis.
func (c *Client) Team(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.TeamResult, error) {
	raw, err := c.analyze(ctx, teamSystem, project, tasks, now)
	if err != nil {
		return scoring.TeamResult{}, err
	}

	var res scoring.TeamResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return scoring.TeamResult{}, unavailable(fmt.Errorf("parse team response: %w", err))
	}
	res.EfficiencyScore = clamp100(res.EfficiencyScore)
	return res, nil
}

// Budget asks the model for a budget forecast.
func (c *Client) Budget(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.BudgetResult, error) {
	raw, err := c.analyze(ctx, budgetSystem, project, tasks, now)
	if err != nil {
		return scoring.BudgetResult{}, err
	}

	var res scoring.BudgetResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return scoring.BudgetResult{}, unavailable(fmt.Errorf("parse budget response: %w", err))
	}
	res.HealthScore = clamp100(res.HealthScore)
	return res, nil
}

// analyze renders the shared summary, runs the chat exchange, and returns
// the completion stripped down to its JSON payload.
func (c *Client) analyze(ctx context.Context, system string, project snapshot.Project, tasks []snapshot.Task, now time.Time) (string, error) {
	user, err := renderSummary(project, tasks, now)
	if err != nil {
		return "", unavailable(err)
	}
	text, err := c.chat(ctx, system, user)
	if err != nil {
		return "", unavailable(err)
	}
	clean := stripFences(text)
	if !json.Valid([]byte(clean)) {
		return "", unavailable(errors.New("completion is not valid JSON"))
	}
	return clean, nil
}

// stripFences removes a markdown code fence wrapper if present. Models
// routinely wrap JSON in ```json blocks despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// parseDate accepts the date formats models actually emit.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable completion date %q", s)
}

func validRiskLevel(level scoring.RiskLevel) bool {
	switch level {
	case scoring.RiskMinimal, scoring.RiskLow, scoring.RiskMedium, scoring.RiskHigh, scoring.RiskCritical:
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
