package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/middleware/apikey"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	"go.uber.org/zap"
)

// APIVersion is reported in every public API response
const APIVersion = "v1"

// PublicAPI is the use case behind the /api/v1 endpoints
type PublicAPI interface {
	AccountInfo(ctx context.Context, accountID string) (*usecase.AccountInfo, error)
	Analyze(ctx context.Context, req entity.AnalysisRequest) (*usecase.AnalysisRecord, error)
}

type PublicAPIHandler struct {
	api    PublicAPI
	logger *zap.Logger
	now    func() time.Time
}

func NewPublicAPIHandler(api PublicAPI, logger *zap.Logger) *PublicAPIHandler {
	return &PublicAPIHandler{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

type analyzeRequest struct {
	EmailContent string            `json:"email_content" validate:"required"`
	EmailHeaders map[string]string `json:"email_headers"`
	AnalysisType string            `json:"analysis_type" validate:"omitempty,oneof=full quick deep"`
}

type responseMetadata struct {
	APIVersion string `json:"api_version"`
	Timestamp  string `json:"timestamp"`
	RequestID  string `json:"request_id"`
}

type publicSubscription struct {
	PlanName          string     `json:"plan_name"`
	Status            string     `json:"status"`
	Seats             int        `json:"seats"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
}

type publicAccount struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Tier         string              `json:"tier"`
	Email        string              `json:"email"`
	CreatedAt    time.Time           `json:"created_at"`
	Subscription *publicSubscription `json:"subscription"`
}

type accountResponse struct {
	Account  publicAccount    `json:"account"`
	APIUsage *entity.APIUsage `json:"api_usage"`
	Metadata responseMetadata `json:"metadata"`
}

type analyzeResponse struct {
	ID           string                 `json:"id"`
	AccountID    string                 `json:"account_id"`
	AnalysisType string                 `json:"analysis_type"`
	Results      *entity.AnalysisResult `json:"results"`
	Metadata     responseMetadata       `json:"metadata"`
}

type endpointDoc struct {
	Endpoint       string                 `json:"endpoint"`
	Method         string                 `json:"method"`
	Description    string                 `json:"description"`
	Authentication string                 `json:"authentication"`
	Permission     string                 `json:"permission"`
	RequiredPlan   string                 `json:"required_plan,omitempty"`
	RequestBody    map[string]string      `json:"request_body,omitempty"`
	Response       map[string]interface{} `json:"response"`
}

func (h *PublicAPIHandler) metadata(c echo.Context) responseMetadata {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return responseMetadata{
		APIVersion: APIVersion,
		Timestamp:  h.now().UTC().Format(time.RFC3339),
		RequestID:  requestID,
	}
}

// Account handles POST /api/v1/account
func (h *PublicAPIHandler) Account(c echo.Context) error {
	key, ok := apikey.FromContext(c)
	if !ok {
		return respondError(c, h.logger, errAuthRequired, "Account requested without API key")
	}

	info, err := h.api.AccountInfo(c.Request().Context(), key.AccountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load account info",
			zap.String("account_id", key.AccountID))
	}

	account := publicAccount{
		ID:        info.Account.ID.String(),
		Name:      info.Account.Name,
		Tier:      info.Tier,
		Email:     info.Account.BillingEmail,
		CreatedAt: info.Account.CreatedAt,
	}
	if sub := info.Subscription; sub != nil {
		account.Subscription = &publicSubscription{
			PlanName:          sub.PlanName,
			Status:            string(sub.Status),
			Seats:             sub.Seats,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		}
	}

	return c.JSON(http.StatusOK, accountResponse{
		Account:  account,
		APIUsage: info.Usage,
		Metadata: h.metadata(c),
	})
}

// Analyze handles POST /api/v1/analyze
func (h *PublicAPIHandler) Analyze(c echo.Context) error {
	key, ok := apikey.FromContext(c)
	if !ok {
		return respondError(c, h.logger, errAuthRequired, "Analysis requested without API key")
	}

	var req analyzeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err, "Invalid analyze request",
			zap.String("account_id", key.AccountID))
	}

	record, err := h.api.Analyze(c.Request().Context(), entity.AnalysisRequest{
		AccountID:    key.AccountID,
		Content:      req.EmailContent,
		Headers:      req.EmailHeaders,
		AnalysisType: req.AnalysisType,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to analyze email",
			zap.String("account_id", key.AccountID))
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		ID:           record.ID,
		AccountID:    record.AccountID,
		AnalysisType: record.AnalysisType,
		Results:      record.Result,
		Metadata:     h.metadata(c),
	})
}

// AccountDocs handles GET /api/v1/account
func (h *PublicAPIHandler) AccountDocs(c echo.Context) error {
	return c.JSON(http.StatusOK, endpointDoc{
		Endpoint:       "/api/v1/account",
		Method:         http.MethodPost,
		Description:    "Returns the account that owns the API key, its subscription and key usage",
		Authentication: "Bearer API key",
		Permission:     entity.PermissionRead,
		RequiredPlan:   entity.PlanTeam,
		Response: map[string]interface{}{
			"account":   "id, name, tier, email, created_at, subscription",
			"api_usage": "active_keys, total_rate_limit",
			"metadata":  "api_version, timestamp, request_id",
		},
	})
}

// AnalyzeDocs handles GET /api/v1/analyze
func (h *PublicAPIHandler) AnalyzeDocs(c echo.Context) error {
	return c.JSON(http.StatusOK, endpointDoc{
		Endpoint:       "/api/v1/analyze",
		Method:         http.MethodPost,
		Description:    "Analyzes an email for phishing and other threats",
		Authentication: "Bearer API key",
		Permission:     entity.PermissionRead,
		RequestBody: map[string]string{
			"email_content": "string, required",
			"email_headers": "object, optional",
			"analysis_type": "full | quick | deep, optional, defaults to full",
		},
		Response: map[string]interface{}{
			"id":            "analysis id",
			"account_id":    "owning account",
			"analysis_type": "the analysis type that ran",
			"results":       "threat_level, confidence, categories, details, recommendations",
			"metadata":      "api_version, timestamp, request_id",
		},
	})
}
