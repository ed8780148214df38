package repository

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"gorm.io/gorm"
)

type emailAnalysisRepository struct {
	db *gorm.DB
}

func NewEmailAnalysisRepository(db *gorm.DB) repository.EmailAnalysisRepository {
	return &emailAnalysisRepository{db: db}
}

func (r *emailAnalysisRepository) Create(ctx context.Context, analysis *model.EmailAnalysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to record email analysis: %w", err)
	}
	return nil
}
