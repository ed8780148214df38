package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
)

// MetricsRepository counts rows of a table under AND-combined filters
type MetricsRepository interface {
	Count(ctx context.Context, table string, filters entity.Filters) (int64, error)
}

// ThreatStatsRepository reads the pre-aggregated threat tables. Ranges are
// half open: from <= date < to.
type ThreatStatsRepository interface {
	ListDaily(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatDaily, error)
	ListMonthly(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatMonthly, error)
}

type EmailAnalysisRepository interface {
	Create(ctx context.Context, analysis *model.EmailAnalysis) error
}
