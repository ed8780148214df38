package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*model.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) SetStripeCustomerID(ctx context.Context, accountID, customerID string) error {
	args := m.Called(ctx, accountID, customerID)
	return args.Error(0)
}

func (m *MockAccountRepository) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Account), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetActiveByAccountID(ctx context.Context, accountID string) (*model.Subscription, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetLatestByAccountID(ctx context.Context, accountID string) (*model.Subscription, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByStripeScheduleID(ctx context.Context, scheduleID string) (*model.Subscription, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, subscription *model.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

// MockBillingProvider is a mock implementation of BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Subscription), args.Error(1)
}

func (m *MockBillingProvider) ResumeSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Subscription), args.Error(1)
}

func (m *MockBillingProvider) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	args := m.Called(ctx, scheduleID)
	return args.Error(0)
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, profile provider.CustomerProfile) (*provider.Customer, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockBillingProvider) UpdateCustomer(ctx context.Context, customerID string, profile provider.CustomerProfile) (*provider.Customer, error) {
	args := m.Called(ctx, customerID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockBillingProvider) GetCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockBillingProvider) FindCustomerByAccount(ctx context.Context, accountID string) (*provider.Customer, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockBillingProvider) GetProviderName() string {
	return "mock"
}

// MockMetricsRepository is a mock implementation of MetricsRepository
type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) Count(ctx context.Context, table string, filters entity.Filters) (int64, error) {
	args := m.Called(ctx, table, filters)
	return args.Get(0).(int64), args.Error(1)
}

// MockThreatStatsRepository is a mock implementation of ThreatStatsRepository
type MockThreatStatsRepository struct {
	mock.Mock
}

func (m *MockThreatStatsRepository) ListDaily(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatDaily, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ThreatStatDaily), args.Error(1)
}

func (m *MockThreatStatsRepository) ListMonthly(ctx context.Context, accountID string, from, to time.Time) ([]model.ThreatStatMonthly, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ThreatStatMonthly), args.Error(1)
}

// recordingPublisher keeps every published message
type recordingPublisher struct {
	mu     sync.Mutex
	events []ResyncEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := message.(ResyncEvent); ok && channel == ResyncChannel {
		p.events = append(p.events, event)
	}
	return p.err
}

func (p *recordingPublisher) published() []ResyncEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ResyncEvent(nil), p.events...)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) ValidateKeyHash(ctx context.Context, keyHash string) (*entity.APIKeyValidation, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.APIKeyValidation), args.Error(1)
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) UsageByAccountID(ctx context.Context, accountID string) (*entity.APIUsage, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.APIUsage), args.Error(1)
}

// MockEmailAnalysisRepository is a mock implementation of EmailAnalysisRepository
type MockEmailAnalysisRepository struct {
	mock.Mock
}

func (m *MockEmailAnalysisRepository) Create(ctx context.Context, analysis *model.EmailAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

// MockReportMailer is a mock implementation of ReportMailer
type MockReportMailer struct {
	mock.Mock
}

func (m *MockReportMailer) SendThreatReport(ctx context.Context, to string, report entity.ThreatReport) error {
	args := m.Called(ctx, to, report)
	return args.Error(0)
}
