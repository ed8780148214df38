package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
)

const emailAnalysesTable = "email_analyses"

// DashboardService computes the headline dashboard counters
type DashboardService struct {
	metrics repository.MetricsRepository
	now     func() time.Time
}

func NewDashboardService(metrics repository.MetricsRepository) *DashboardService {
	return &DashboardService{metrics: metrics, now: time.Now}
}

// Stats compares the current month with the previous one
func (s *DashboardService) Stats(ctx context.Context, accountID string) (*entity.DashboardStats, error) {
	return s.StatsForMonth(ctx, accountID, startOfMonth(s.now()))
}

// StatsForMonth compares the month starting at monthStart with the month
// before it.
func (s *DashboardService) StatsForMonth(ctx context.Context, accountID string, monthStart time.Time) (*entity.DashboardStats, error) {
	monthStart = startOfMonth(monthStart)
	nextMonth := monthStart.AddDate(0, 1, 0)
	prevMonth := monthStart.AddDate(0, -1, 0)

	emails, err := s.countAnalyses(ctx, accountID, monthStart, nextMonth, false)
	if err != nil {
		return nil, err
	}
	prevEmails, err := s.countAnalyses(ctx, accountID, prevMonth, monthStart, false)
	if err != nil {
		return nil, err
	}
	threats, err := s.countAnalyses(ctx, accountID, monthStart, nextMonth, true)
	if err != nil {
		return nil, err
	}
	prevThreats, err := s.countAnalyses(ctx, accountID, prevMonth, monthStart, true)
	if err != nil {
		return nil, err
	}

	return &entity.DashboardStats{
		EmailsAnalyzed:        emails,
		EmailsAnalyzedChange:  PercentChange(emails, prevEmails),
		ThreatsDetected:       threats,
		ThreatsDetectedChange: PercentChange(threats, prevThreats),
		ThreatRate:            ThreatRate(threats, emails),
	}, nil
}

// countAnalyses counts analyses in [from, to); threatsOnly keeps high and
// critical verdicts.
func (s *DashboardService) countAnalyses(ctx context.Context, accountID string, from, to time.Time, threatsOnly bool) (int64, error) {
	filters := entity.Filters{
		"account_id": entity.Equals(accountID),
		"created_at": entity.Range{Gte: from, Lt: to},
	}
	if threatsOnly {
		filters["threat_level"] = entity.In(entity.ThreatCritical, entity.ThreatHigh)
	}

	n, err := s.metrics.Count(ctx, emailAnalysesTable, filters)
	if err != nil {
		return 0, fmt.Errorf("failed to count email analyses: %w", err)
	}
	return n, nil
}
