package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
)

const reportPageSize = 100

// ReportMailer delivers a rendered threat report
type ReportMailer interface {
	SendThreatReport(ctx context.Context, to string, report entity.ThreatReport) error
}

// ReportSummary counts the outcome of one report run
type ReportSummary struct {
	Sent    int
	Skipped int
	Failed  int
}

// ReportService emails monthly threat summaries to accounts whose plan
// includes reports.
type ReportService struct {
	accounts     repository.AccountRepository
	access       *AccessResolver
	dashboard    *DashboardService
	threats      *ThreatAggregator
	mailer       ReportMailer
	dashboardURL string
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(
	accounts repository.AccountRepository,
	access *AccessResolver,
	dashboard *DashboardService,
	threats *ThreatAggregator,
	mailer ReportMailer,
	dashboardURL string,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		accounts:     accounts,
		access:       access,
		dashboard:    dashboard,
		threats:      threats,
		mailer:       mailer,
		dashboardURL: dashboardURL,
		logger:       logger,
		now:          time.Now,
	}
}

// SendMonthlyReports reports on the previous calendar month. A failure for
// one account is logged and counted; the run continues.
func (s *ReportService) SendMonthlyReports(ctx context.Context) (*ReportSummary, error) {
	month := startOfMonth(s.now()).AddDate(0, -1, 0)
	summary := &ReportSummary{}

	for offset := 0; ; offset += reportPageSize {
		accounts, err := s.accounts.List(ctx, offset, reportPageSize)
		if err != nil {
			return summary, fmt.Errorf("failed to list accounts: %w", err)
		}

		for _, account := range accounts {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			accountID := account.ID.String()

			ent, err := s.access.ResolveForAccount(ctx, accountID)
			if err != nil {
				s.logger.Error("Failed to resolve entitlements for report",
					zap.String("account_id", accountID),
					zap.Error(err))
				summary.Failed++
				continue
			}
			if !ent.HasReportsAccess || account.BillingEmail == "" {
				summary.Skipped++
				continue
			}

			report, err := s.buildReport(ctx, accountID, account.Name, month)
			if err != nil {
				s.logger.Error("Failed to build threat report",
					zap.String("account_id", accountID),
					zap.Error(err))
				summary.Failed++
				continue
			}
			if err := s.mailer.SendThreatReport(ctx, account.BillingEmail, *report); err != nil {
				s.logger.Error("Failed to send threat report",
					zap.String("account_id", accountID),
					zap.Error(err))
				summary.Failed++
				continue
			}
			summary.Sent++
		}

		if len(accounts) < reportPageSize {
			break
		}
	}

	s.logger.Info("Monthly threat reports finished",
		zap.String("period", month.Format("January 2006")),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *ReportService) buildReport(ctx context.Context, accountID, name string, month time.Time) (*entity.ThreatReport, error) {
	stats, err := s.dashboard.StatsForMonth(ctx, accountID, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.threats.CategoriesBetween(ctx, accountID, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	return &entity.ThreatReport{
		AccountName:  name,
		Period:       month.Format("January 2006"),
		Stats:        *stats,
		Categories:   categories,
		DashboardURL: s.dashboardURL,
	}, nil
}
