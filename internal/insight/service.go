package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/snapshot"
)

// Advisor is the optional hosted-model analysis path. When a call fails for
// any reason the pipeline silently falls back to the rule-based scorer, so
// implementations never need to guarantee availability.
type Advisor interface {
	Risk(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.RiskResult, error)
	Progress(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.ProgressResult, error)
	Team(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.TeamResult, error)
	Budget(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.BudgetResult, error)
}

// Failure records one insight that could not be persisted during a run.
type Failure struct {
	Kind  models.InsightType `json:"kind"`
	Error string             `json:"error"`
}

// Report is the outcome of one generation run. Failures lists kinds whose
// insight could not be saved; the remaining kinds are unaffected.
type Report struct {
	RunID    string           `json:"run_id"`
	Insights []models.Insight `json:"insights"`
	Failures []Failure        `json:"errors,omitempty"`
}

// AllKinds lists every analysis kind in generation order.
func AllKinds() []models.InsightType {
	return []models.InsightType{
		models.InsightRisk,
		models.InsightProgress,
		models.InsightTeam,
		models.InsightBudget,
	}
}

// Service runs analyses over project snapshots and persists the results.
type Service struct {
	db      *gorm.DB
	loader  *snapshot.Loader
	params  scoring.Params
	ttl     time.Duration
	advisor Advisor

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

// NewService wires a Service. advisor may be nil, which disables the
// hosted-model path entirely.
func NewService(conn *gorm.DB, cfg config.AnalyticsConfig, advisor Advisor) *Service {
	return &Service{
		db:     conn,
		loader: snapshot.NewLoader(conn),
		params: scoring.Params{
			HourlyRate:       cfg.HourlyRate,
			DefaultTaskHours: cfg.DefaultTaskHours,
		},
		ttl:     time.Duration(cfg.InsightTTLDays) * 24 * time.Hour,
		advisor: advisor,
		now:     time.Now,
	}
}

// load fetches the snapshot pair every analysis starts from.
func (s *Service) load(ctx context.Context, projectID uint) (snapshot.Project, []snapshot.Task, error) {
	project, err := s.loader.Project(ctx, projectID)
	if err != nil {
		return snapshot.Project{}, nil, err
	}
	tasks, err := s.loader.Tasks(ctx, projectID)
	if err != nil {
		return snapshot.Project{}, nil, err
	}
	return project, tasks, nil
}

// Risk runs the risk analysis for one project. The second return names the
// data source that produced the result, "rules" or "advisor".
func (s *Service) Risk(ctx context.Context, projectID uint) (scoring.RiskResult, string, error) {
	project, tasks, err := s.load(ctx, projectID)
	if err != nil {
		return scoring.RiskResult{}, "", err
	}
	res, source := s.risk(ctx, project, tasks, s.now())
	return res, source, nil
}

// Progress runs the completion prediction for one project.
func (s *Service) Progress(ctx context.Context, projectID uint) (scoring.ProgressResult, string, error) {
	project, tasks, err := s.load(ctx, projectID)
	if err != nil {
		return scoring.ProgressResult{}, "", err
	}
	res, source := s.progress(ctx, project, tasks, s.now())
	return res, source, nil
}

// Team runs the team performance analysis for one project.
func (s *Service) Team(ctx context.Context, projectID uint) (scoring.TeamResult, string, error) {
	project, tasks, err := s.load(ctx, projectID)
	if err != nil {
		return scoring.TeamResult{}, "", err
	}
	res, source := s.team(ctx, project, tasks, s.now())
	return res, source, nil
}

// Budget runs the budget forecast for one project.
func (s *Service) Budget(ctx context.Context, projectID uint) (scoring.BudgetResult, string, error) {
	project, tasks, err := s.load(ctx, projectID)
	if err != nil {
		return scoring.BudgetResult{}, "", err
	}
	res, source := s.budget(ctx, project, tasks, s.now())
	return res, source, nil
}

func (s *Service) risk(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.RiskResult, string) {
	if s.advisor != nil {
		if res, err := s.advisor.Risk(ctx, project, tasks, now); err == nil {
			return res, models.SourceAdvisor
		}
	}
	return scoring.ScoreRisk(project, tasks, now), models.SourceRules
}

func (s *Service) progress(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.ProgressResult, string) {
	if s.advisor != nil {
		if res, err := s.advisor.Progress(ctx, project, tasks, now); err == nil {
			return res, models.SourceAdvisor
		}
	}
	return scoring.PredictCompletion(project, tasks, now), models.SourceRules
}

func (s *Service) team(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.TeamResult, string) {
	if s.advisor != nil {
		if res, err := s.advisor.Team(ctx, project, tasks, now); err == nil {
			return res, models.SourceAdvisor
		}
	}
	return scoring.ScoreTeam(project, tasks, now), models.SourceRules
}

func (s *Service) budget(ctx context.Context, project snapshot.Project, tasks []snapshot.Task, now time.Time) (scoring.BudgetResult, string) {
	if s.advisor != nil {
		if res, err := s.advisor.Budget(ctx, project, tasks, now); err == nil {
			return res, models.SourceAdvisor
		}
	}
	return scoring.ForecastBudget(project, tasks, now, s.params), models.SourceRules
}

// Generate runs the requested analysis kinds against one snapshot and
// persists whatever they deem noteworthy. All insights of a run share a
// RunID. A save failure for one kind is recorded in the report and does not
// stop the remaining kinds.
func (s *Service) Generate(ctx context.Context, projectID uint, kinds []models.InsightType) (Report, error) {
	project, tasks, err := s.load(ctx, projectID)
	if err != nil {
		return Report{}, err
	}
	now := s.now()
	report := Report{RunID: uuid.NewString(), Insights: []models.Insight{}}

	for _, kind := range kinds {
		var (
			ins    models.Insight
			source string
			emit   bool
		)
		switch kind {
		case models.InsightRisk:
			var res scoring.RiskResult
			res, source = s.risk(ctx, project, tasks, now)
			ins, emit = assembleRisk(res)
		case models.InsightProgress:
			var res scoring.ProgressResult
			res, source = s.progress(ctx, project, tasks, now)
			ins, emit = assembleProgress(res)
		case models.InsightTeam:
			var res scoring.TeamResult
			res, source = s.team(ctx, project, tasks, now)
			ins, emit = assembleTeam(res)
		case models.InsightBudget:
			var res scoring.BudgetResult
			res, source = s.budget(ctx, project, tasks, now)
			ins, emit = assembleBudget(res)
		default:
			report.Failures = append(report.Failures, Failure{Kind: kind, Error: fmt.Sprintf("unknown analysis kind %q", kind)})
			continue
		}
		if !emit {
			continue
		}
		ins = stamp(ins, projectID, report.RunID, source, now, s.ttl)
		if err := s.db.WithContext(ctx).Create(&ins).Error; err != nil {
			report.Failures = append(report.Failures, Failure{Kind: kind, Error: err.Error()})
			continue
		}
		report.Insights = append(report.Insights, ins)
	}
	return report, nil
}

// PurgeExpired deletes insights whose expiry has passed and reports how many
// rows went away.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", s.now()).
		Delete(&models.Insight{})
	if res.Error != nil {
		return 0, fmt.Errorf("insight: purge expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}
