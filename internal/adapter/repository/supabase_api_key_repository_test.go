package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"go.uber.org/zap"
)

func TestSupabaseAPIKeyValidator_ValidateKeyHash(t *testing.T) {
	logger := zap.NewNop()
	keyHash := entity.HashAPIKey("msk_live_abc123")

	tests := []struct {
		name               string
		mockServerResponse func(w http.ResponseWriter, r *http.Request)
		expected           *entity.APIKeyValidation
		expectedError      bool
	}{
		{
			name: "valid key as row array",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/rest/v1/rpc/validate_api_key", r.URL.Path)
				assert.Equal(t, "service-key", r.Header.Get("apikey"))
				assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, keyHash, body["p_key_hash"])

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[{"is_valid":true,"key_id":"key-1","account_id":"acc-1","permissions":["read","write"],"rate_limit":120}]`))
			},
			expected: &entity.APIKeyValidation{
				Valid:       true,
				KeyID:       "key-1",
				AccountID:   "acc-1",
				Permissions: []string{"read", "write"},
				RateLimit:   120,
			},
		},
		{
			name: "valid key as single object",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"is_valid":true,"account_id":"acc-2","permissions":["admin"],"rate_limit":60}`))
			},
			expected: &entity.APIKeyValidation{
				Valid:       true,
				AccountID:   "acc-2",
				Permissions: []string{"admin"},
				RateLimit:   60,
			},
		},
		{
			name: "unknown key - empty array",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[]`))
			},
			expected: &entity.APIKeyValidation{Valid: false},
		},
		{
			name: "expired key - is_valid false",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[{"is_valid":false}]`))
			},
			expected: &entity.APIKeyValidation{Valid: false},
		},
		{
			name: "unauthorized service key",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
			},
			expectedError: true,
		},
		{
			name: "malformed body",
			mockServerResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{not json`))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.mockServerResponse))
			defer server.Close()

			validator := NewSupabaseAPIKeyValidator(server.URL+"/", "service-key", logger)
			result, err := validator.ValidateKeyHash(context.Background(), keyHash)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSupabaseAPIKeyValidator_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	validator := NewSupabaseAPIKeyValidator(server.URL, "service-key", zap.NewNop())
	_, err := validator.ValidateKeyHash(ctx, "hash")
	assert.Error(t, err)
}
