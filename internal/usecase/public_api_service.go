package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
)

// Analyzer scores an email
type Analyzer interface {
	Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.AnalysisResult, error)
}

// PlaceholderAnalyzer flags a few obvious phishing markers
type PlaceholderAnalyzer struct{}

var phishingMarkers = []string{"verify your account", "password", "urgent", "click here", "wire transfer"}

func (PlaceholderAnalyzer) Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.AnalysisResult, error) {
	content := strings.ToLower(req.Content)
	var hits []string
	for _, marker := range phishingMarkers {
		if strings.Contains(content, marker) {
			hits = append(hits, marker)
		}
	}

	result := &entity.AnalysisResult{
		ThreatLevel:     entity.ThreatLow,
		Confidence:      0.6,
		Categories:      []string{},
		Details:         map[string]interface{}{"markers": hits, "analysis_type": req.AnalysisType},
		Recommendations: []string{},
	}
	switch {
	case len(hits) >= 3:
		result.ThreatLevel = entity.ThreatHigh
		result.Confidence = 0.85
	case len(hits) > 0:
		result.ThreatLevel = entity.ThreatMedium
		result.Confidence = 0.7
	}
	if len(hits) > 0 {
		result.Categories = append(result.Categories, "phishing")
		result.Recommendations = append(result.Recommendations,
			"Do not click links or open attachments in this message",
			"Verify the sender through a known channel")
	}
	return result, nil
}

// AccountInfo is the public view of the calling key's account
type AccountInfo struct {
	Account      *model.Account
	Subscription *model.Subscription
	Tier         string
	Usage        *entity.APIUsage
}

// AnalysisRecord is a stored analysis returned to the caller
type AnalysisRecord struct {
	ID           string
	AccountID    string
	AnalysisType string
	Result       *entity.AnalysisResult
	CreatedAt    time.Time
}

// PublicAPIService backs the /api/v1 endpoints
type PublicAPIService struct {
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	keys          repository.APIKeyRepository
	analyses      repository.EmailAnalysisRepository
	analyzer      Analyzer
	logger        *zap.Logger
	now           func() time.Time
}

func NewPublicAPIService(
	accounts repository.AccountRepository,
	subscriptions repository.SubscriptionRepository,
	keys repository.APIKeyRepository,
	analyses repository.EmailAnalysisRepository,
	analyzer Analyzer,
	logger *zap.Logger,
) *PublicAPIService {
	if analyzer == nil {
		analyzer = PlaceholderAnalyzer{}
	}
	return &PublicAPIService{
		accounts:      accounts,
		subscriptions: subscriptions,
		keys:          keys,
		analyses:      analyses,
		analyzer:      analyzer,
		logger:        logger,
		now:           time.Now,
	}
}

// AccountInfo loads the account, its active subscription and key usage
func (s *PublicAPIService) AccountInfo(ctx context.Context, accountID string) (*AccountInfo, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, domainErrors.ErrAccountNotFound
	}

	sub, err := s.subscriptions.GetActiveByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	usage, err := s.keys.UsageByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get api usage: %w", err)
	}

	info := &AccountInfo{Account: account, Subscription: sub, Tier: entity.PlanFree, Usage: usage}
	if sub != nil {
		info.Tier = sub.PlanName
	}
	return info, nil
}

// Analyze runs the analyzer and records the verdict. A failed insert is
// logged and does not fail the request.
func (s *PublicAPIService) Analyze(ctx context.Context, req entity.AnalysisRequest) (*AnalysisRecord, error) {
	if req.AnalysisType == "" {
		req.AnalysisType = entity.AnalysisFull
	}
	switch req.AnalysisType {
	case entity.AnalysisFull, entity.AnalysisQuick, entity.AnalysisDeep:
	default:
		return nil, domainErrors.ErrInvalidAnalysisType
	}

	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.logger.Error("Analyzer failed",
			zap.String("account_id", req.AccountID),
			zap.Error(err))
		return nil, domainErrors.ErrAnalyzerFailure.WithCause(err)
	}

	record := &AnalysisRecord{
		ID:           uuid.NewString(),
		AccountID:    req.AccountID,
		AnalysisType: req.AnalysisType,
		Result:       result,
		CreatedAt:    s.now().UTC(),
	}

	accountUUID, err := uuid.Parse(req.AccountID)
	if err != nil {
		s.logger.Warn("Account id is not a uuid, analysis not stored",
			zap.String("account_id", req.AccountID))
		return record, nil
	}
	row := &model.EmailAnalysis{
		ID:           uuid.MustParse(record.ID),
		AccountID:    accountUUID,
		AnalysisType: record.AnalysisType,
		ThreatLevel:  result.ThreatLevel,
		Confidence:   result.Confidence,
		Categories:   model.StringArray(result.Categories),
		Source:       "api",
		CreatedAt:    record.CreatedAt,
	}
	if err := s.analyses.Create(ctx, row); err != nil {
		s.logger.Error("Failed to store analysis",
			zap.String("account_id", req.AccountID),
			zap.String("analysis_id", record.ID),
			zap.Error(err))
	}
	return record, nil
}
