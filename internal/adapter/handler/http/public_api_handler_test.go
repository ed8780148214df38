package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/middleware/apikey"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func newPublicAPIHandler(api PublicAPI) *PublicAPIHandler {
	h := NewPublicAPIHandler(api, zap.NewNop())
	h.now = func() time.Time { return fixedNow }
	return h
}

func withKey(c echo.Context) echo.Context {
	apikey.SetValidation(c, &entity.APIKeyValidation{
		Valid:       true,
		KeyID:       "key-1",
		AccountID:   testAccountID,
		Permissions: []string{entity.PermissionRead},
		RateLimit:   60,
	})
	return c
}

func TestPublicAPIHandler_Account(t *testing.T) {
	api := new(MockPublicAPI)
	h := newPublicAPIHandler(api)

	created := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	api.On("AccountInfo", mock.Anything, testAccountID).Return(&usecase.AccountInfo{
		Account: &model.Account{ID: uuid.MustParse(testAccountID), Name: "Acme", BillingEmail: "billing@acme.test", CreatedAt: created},
		Subscription: &model.Subscription{
			PlanName:         entity.PlanTeam,
			Status:           model.SubscriptionStatusActive,
			Seats:            4,
			CurrentPeriodEnd: &periodEnd,
		},
		Tier:  entity.PlanTeam,
		Usage: &entity.APIUsage{ActiveKeys: 2, TotalRateLimit: 120},
	}, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/account", "", nil)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")
	require.NoError(t, h.Account(withKey(c)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"account": {
			"id": "`+testAccountID+`",
			"name": "Acme",
			"tier": "Team",
			"email": "billing@acme.test",
			"created_at": "2025-11-02T09:00:00Z",
			"subscription": {
				"plan_name": "Team",
				"status": "active",
				"seats": 4,
				"cancel_at_period_end": false,
				"current_period_end": "2026-04-01T00:00:00Z"
			}
		},
		"api_usage": {"active_keys": 2, "total_rate_limit": 120},
		"metadata": {"api_version": "v1", "timestamp": "2026-03-20T12:00:00Z", "request_id": "req-1"}
	}`, rec.Body.String())
}

func TestPublicAPIHandler_Account_NoSubscription(t *testing.T) {
	api := new(MockPublicAPI)
	h := newPublicAPIHandler(api)

	api.On("AccountInfo", mock.Anything, testAccountID).Return(&usecase.AccountInfo{
		Account: &model.Account{ID: uuid.MustParse(testAccountID)},
		Tier:    entity.PlanFree,
		Usage:   &entity.APIUsage{},
	}, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/account", "", nil)
	require.NoError(t, h.Account(withKey(c)))

	body := decodeBody(t, rec)
	account := body["account"].(map[string]interface{})
	assert.Equal(t, "Free", account["tier"])
	assert.Nil(t, account["subscription"])
	assert.NotEmpty(t, body["metadata"].(map[string]interface{})["request_id"])
}

func TestPublicAPIHandler_Analyze(t *testing.T) {
	api := new(MockPublicAPI)
	h := newPublicAPIHandler(api)

	want := entity.AnalysisRequest{
		AccountID:    testAccountID,
		Content:      "Please verify your account",
		Headers:      map[string]string{"From": "it@example.test"},
		AnalysisType: "quick",
	}
	api.On("Analyze", mock.Anything, want).Return(&usecase.AnalysisRecord{
		ID:           "an-1",
		AccountID:    testAccountID,
		AnalysisType: "quick",
		Result: &entity.AnalysisResult{
			ThreatLevel:     entity.ThreatMedium,
			Confidence:      0.7,
			Categories:      []string{"phishing"},
			Details:         map[string]interface{}{"matched_markers": 1},
			Recommendations: []string{"Do not click links in this email"},
		},
	}, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/analyze",
		`{"email_content":"Please verify your account","email_headers":{"From":"it@example.test"},"analysis_type":"quick"}`, nil)
	require.NoError(t, h.Analyze(withKey(c)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "an-1", body["id"])
	assert.Equal(t, "quick", body["analysis_type"])
	results := body["results"].(map[string]interface{})
	assert.Equal(t, "medium", results["threat_level"])
	assert.Equal(t, []interface{}{"phishing"}, results["categories"])
	assert.Equal(t, "v1", body["metadata"].(map[string]interface{})["api_version"])
}

func TestPublicAPIHandler_Analyze_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing content", `{"analysis_type":"full"}`, "email_content is required"},
		{"unknown type", `{"email_content":"hi","analysis_type":"slow"}`, "analysis_type must be one of full, quick, deep"},
		{"not json", `email_content=hi`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockPublicAPI)
			h := newPublicAPIHandler(api)

			c, rec := newContext(http.MethodPost, "/api/v1/analyze", tt.body, nil)
			require.NoError(t, h.Analyze(withKey(c)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
			api.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestPublicAPIHandler_Analyze_AnalyzerFailure(t *testing.T) {
	api := new(MockPublicAPI)
	h := newPublicAPIHandler(api)
	api.On("Analyze", mock.Anything, mock.Anything).Return(nil, domainErrors.ErrAnalyzerFailure)

	c, rec := newContext(http.MethodPost, "/api/v1/analyze", `{"email_content":"hi"}`, nil)
	require.NoError(t, h.Analyze(withKey(c)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "email analysis failed", decodeBody(t, rec)["error"])
}

func TestPublicAPIHandler_RequiresKey(t *testing.T) {
	h := newPublicAPIHandler(new(MockPublicAPI))

	c, rec := newContext(http.MethodPost, "/api/v1/account", "", nil)
	require.NoError(t, h.Account(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicAPIHandler_Docs(t *testing.T) {
	h := newPublicAPIHandler(new(MockPublicAPI))

	c, rec := newContext(http.MethodGet, "/api/v1/account", "", nil)
	require.NoError(t, h.AccountDocs(c))
	body := decodeBody(t, rec)
	assert.Equal(t, "/api/v1/account", body["endpoint"])
	assert.Equal(t, "Team", body["required_plan"])

	c, rec = newContext(http.MethodGet, "/api/v1/analyze", "", nil)
	require.NoError(t, h.AnalyzeDocs(c))
	body = decodeBody(t, rec)
	assert.Equal(t, http.MethodPost, body["method"])
	assert.Contains(t, body["request_body"], "email_content")
}
