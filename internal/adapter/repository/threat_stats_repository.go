package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"gorm.io/gorm"
)

type threatStatsRepository struct {
	db *gorm.DB
}

// NewThreatStatsRepository creates a reader for the threat aggregate tables
func NewThreatStatsRepository(db *gorm.DB) repository.ThreatStatsRepository {
	return &threatStatsRepository{db: db}
}

func (r *threatStatsRepository) ListDaily(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatDaily, error) {
	var rows []model.ThreatStatDaily
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND stat_date >= ? AND stat_date < ?", accountID, from, to).
		Order("stat_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily threat stats: %w", err)
	}
	return rows, nil
}

func (r *threatStatsRepository) ListMonthly(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatMonthly, error) {
	var rows []model.ThreatStatMonthly
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND stat_month >= ? AND stat_month < ?", accountID, from, to).
		Order("stat_month ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly threat stats: %w", err)
	}
	return rows, nil
}
