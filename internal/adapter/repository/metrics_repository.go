package repository

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"gorm.io/gorm"
)

// countableTables limits Count to tables that carry dashboard metrics
var countableTables = map[string]bool{
	"email_analyses":       true,
	"threat_stats_daily":   true,
	"threat_stats_monthly": true,
	"api_keys":             true,
}

type metricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository creates a repository for generic row counts
func NewMetricsRepository(db *gorm.DB) repository.MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) Count(ctx context.Context, table string, filters entity.Filters) (int64, error) {
	tx, err := countQuery(r.db.WithContext(ctx), table, filters)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// countQuery applies filters in sorted column order so identical filter sets
// always render the same SQL.
func countQuery(db *gorm.DB, table string, filters entity.Filters) (*gorm.DB, error) {
	if !countableTables[table] {
		return nil, fmt.Errorf("table %q is not countable", table)
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	tx := db.Table(table)
	for _, col := range filters.Columns() {
		clause, args := filters[col].Clause(col)
		tx = tx.Where(clause, args...)
	}
	return tx, nil
}
