package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
)

// SupabaseAPIKeyValidator validates API keys through the validate_api_key
// Postgres function exposed by Supabase's REST API.
type SupabaseAPIKeyValidator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewSupabaseAPIKeyValidator creates a validator that calls
// {baseURL}/rest/v1/rpc/validate_api_key with the service role key.
func NewSupabaseAPIKeyValidator(baseURL, serviceRoleKey string, logger *zap.Logger) domainRepo.APIKeyValidator {
	return &SupabaseAPIKeyValidator{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  serviceRoleKey,
		logger:  logger,
	}
}

type validateAPIKeyRequest struct {
	KeyHash string `json:"p_key_hash"`
}

type validateAPIKeyRow struct {
	IsValid     bool     `json:"is_valid"`
	KeyID       string   `json:"key_id"`
	AccountID   string   `json:"account_id"`
	Permissions []string `json:"permissions"`
	RateLimit   int      `json:"rate_limit"`
}

// ValidateKeyHash runs the RPC. PostgREST returns either a single object or
// an array of rows depending on the function signature; both are accepted.
func (v *SupabaseAPIKeyValidator) ValidateKeyHash(ctx context.Context, keyHash string) (*entity.APIKeyValidation, error) {
	startTime := time.Now()
	rpcURL := v.baseURL + "/rest/v1/rpc/validate_api_key"

	body, err := json.Marshal(validateAPIKeyRequest{KeyHash: keyHash})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	requestDuration := time.Since(startTime)
	if err != nil {
		v.logger.Error("SupabaseAPIKeyValidator: HTTP request failed",
			zap.String("url", rpcURL),
			zap.Duration("request_duration", requestDuration),
			zap.Error(err))
		return nil, fmt.Errorf("validate_api_key request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("SupabaseAPIKeyValidator: Supabase API returned non-200 status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", payload),
			zap.Duration("request_duration", requestDuration))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			v.logger.Error("SupabaseAPIKeyValidator: Unauthorized access to Supabase API - check the service role key",
				zap.Int("status_code", resp.StatusCode))
		}
		return nil, fmt.Errorf("supabase API error: status %d", resp.StatusCode)
	}

	row, err := decodeValidateRow(payload)
	if err != nil {
		v.logger.Error("SupabaseAPIKeyValidator: Failed to decode JSON response",
			zap.ByteString("response_body", payload),
			zap.Error(err))
		return nil, err
	}

	v.logger.Debug("SupabaseAPIKeyValidator: API key validated",
		zap.Bool("valid", row != nil && row.IsValid),
		zap.Duration("request_duration", requestDuration))

	if row == nil || !row.IsValid {
		return &entity.APIKeyValidation{Valid: false}, nil
	}
	return &entity.APIKeyValidation{
		Valid:       true,
		KeyID:       row.KeyID,
		AccountID:   row.AccountID,
		Permissions: row.Permissions,
		RateLimit:   row.RateLimit,
	}, nil
}

func decodeValidateRow(payload []byte) (*validateAPIKeyRow, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var rows []validateAPIKeyRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}

	var row validateAPIKeyRow
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &row, nil
}
