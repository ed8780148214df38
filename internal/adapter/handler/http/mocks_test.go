package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
)

// MockReconciler is a mock implementation of Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Authorize(ctx context.Context, accountID string, caller usecase.Caller) (*model.Account, error) {
	args := m.Called(ctx, accountID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockReconciler) Reactivate(ctx context.Context, accountID, subscriptionID string) (*usecase.ReconcileResult, error) {
	args := m.Called(ctx, accountID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileResult), args.Error(1)
}

func (m *MockReconciler) CancelScheduledChange(ctx context.Context, accountID, scheduleID string) (*usecase.ReconcileResult, error) {
	args := m.Called(ctx, accountID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileResult), args.Error(1)
}

func (m *MockReconciler) SyncProfile(ctx context.Context, accountID string) (*usecase.ProfileSyncResult, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProfileSyncResult), args.Error(1)
}

func (m *MockReconciler) Resync(ctx context.Context, accountID string) (*model.Subscription, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockReconciler) DebugSubscription(ctx context.Context, accountID string) (*usecase.SubscriptionDiagnostics, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SubscriptionDiagnostics), args.Error(1)
}

func (m *MockReconciler) DebugCustomer(ctx context.Context, accountID string) (*usecase.CustomerDiagnostics, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CustomerDiagnostics), args.Error(1)
}

// MockResolver is a mock implementation of EntitlementResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, ownerID string) (*entity.Entitlements, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Entitlements), args.Error(1)
}

func (m *MockResolver) ResolveOwner(ctx context.Context, ownerID string) (*model.Account, *entity.Entitlements, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Account), args.Get(1).(*entity.Entitlements), args.Error(2)
}

// MockStats is a mock implementation of StatsProvider
type MockStats struct {
	mock.Mock
}

func (m *MockStats) Stats(ctx context.Context, accountID string) (*entity.DashboardStats, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DashboardStats), args.Error(1)
}

// MockThreats is a mock implementation of ThreatSeries
type MockThreats struct {
	mock.Mock
}

func (m *MockThreats) History(ctx context.Context, accountID, mode string) ([]entity.ThreatPoint, error) {
	args := m.Called(ctx, accountID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ThreatPoint), args.Error(1)
}

func (m *MockThreats) Categories(ctx context.Context, accountID, mode string) ([]entity.CategoryCount, error) {
	args := m.Called(ctx, accountID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CategoryCount), args.Error(1)
}

// MockPublicAPI is a mock implementation of PublicAPI
type MockPublicAPI struct {
	mock.Mock
}

func (m *MockPublicAPI) AccountInfo(ctx context.Context, accountID string) (*usecase.AccountInfo, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AccountInfo), args.Error(1)
}

func (m *MockPublicAPI) Analyze(ctx context.Context, req entity.AnalysisRequest) (*usecase.AnalysisRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AnalysisRecord), args.Error(1)
}

// MockWebhookResyncer is a mock implementation of WebhookResyncer
type MockWebhookResyncer struct {
	mock.Mock
}

func (m *MockWebhookResyncer) ResyncByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockWebhookResyncer) ResyncBySchedule(ctx context.Context, scheduleID string) (*model.Subscription, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func newContext(method, target, body string, user *auth.AuthUser) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewRequestValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
