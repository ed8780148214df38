package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
	"go.uber.org/zap"
)

const subscriptionJSON = `{
  "id": "sub_1",
  "object": "subscription",
  "customer": "cus_1",
  "status": "active",
  "cancel_at_period_end": %s,
  "current_period_start": 1772323200,
  "current_period_end": 1775001600,
  "items": {"object": "list", "data": [{"id": "si_1", "quantity": 3, "price": {"id": "price_team"}}]},
  "schedule": "sub_sched_1"
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	api := client.New("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return NewStripeProviderWithClient(api, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestStripeProvider_GetSubscription(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/subscriptions/sub_1", r.URL.Path)
		writeJSON(w, http.StatusOK, fmt.Sprintf(subscriptionJSON, "true"))
	})

	sub, err := p.GetSubscription(context.Background(), "sub_1")
	require.NoError(t, err)

	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.Equal(t, "active", sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodStart)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodEnd)
	assert.Equal(t, "price_team", sub.PriceID)
	assert.Equal(t, int64(3), sub.Quantity)
	assert.Equal(t, "sub_sched_1", sub.ScheduleID)
}

func TestStripeProvider_ResumeSubscription(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/subscriptions/sub_1", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "false", r.PostForm.Get("cancel_at_period_end"))
		writeJSON(w, http.StatusOK, fmt.Sprintf(subscriptionJSON, "false"))
	})

	sub, err := p.ResumeSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.False(t, sub.CancelAtPeriodEnd)
}

func TestStripeProvider_ReleaseSchedule(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/subscription_schedules/sub_sched_1/release", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"id":"sub_sched_1","object":"subscription_schedule","status":"released"}`)
	})

	assert.NoError(t, p.ReleaseSchedule(context.Background(), "sub_sched_1"))
}

func TestStripeProvider_ResourceMissing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":{"code":"resource_missing","message":"No such subscription: 'sub_gone'","type":"invalid_request_error"}}`)
	})

	_, err := p.GetSubscription(context.Background(), "sub_gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrResourceMissing))
}

func TestStripeProvider_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Request-Id", "req_123")
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":"parameter_invalid_empty","message":"Invalid schedule","type":"invalid_request_error"}}`)
	})

	err := p.ReleaseSchedule(context.Background(), "sub_sched_1")
	var providerErr *provider.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "parameter_invalid_empty", providerErr.Code)
	assert.Equal(t, "Invalid schedule", providerErr.Message)
	assert.Equal(t, http.StatusBadRequest, providerErr.HTTPStatus)
	assert.False(t, errors.Is(err, provider.ErrResourceMissing))
}

func TestStripeProvider_CreateCustomer(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.Equal(t, "customer-create-acc-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "billing@acme.test", r.PostForm.Get("email"))
		assert.Equal(t, "Acme Inc", r.PostForm.Get("name"))
		assert.Equal(t, "DE", r.PostForm.Get("address[country]"))
		assert.Equal(t, "DE123456789", r.PostForm.Get("metadata[tax_id]"))
		assert.Equal(t, "acc-1", r.PostForm.Get("metadata[account_id]"))
		assert.Equal(t, "eu_vat", r.PostForm.Get("tax_id_data[0][type]"))
		assert.Equal(t, "DE123456789", r.PostForm.Get("tax_id_data[0][value]"))
		writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer","email":"billing@acme.test","name":"Acme Inc","created":1772323200,"metadata":{"account_id":"acc-1","tax_id":"DE123456789"},"address":{"country":"DE","city":"Berlin"}}`)
	})

	cust, err := p.CreateCustomer(context.Background(), provider.CustomerProfile{
		AccountID: "acc-1",
		Email:     "billing@acme.test",
		Name:      "Acme Inc",
		Address:   &provider.Address{City: "Berlin", Country: "DE"},
		TaxID:     "DE123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", cust.ID)
	assert.Equal(t, "Berlin", cust.Address.City)
	assert.Equal(t, "DE123456789", cust.Metadata["tax_id"])
}

func TestStripeProvider_CreateCustomer_UnknownTaxCountry(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Empty(t, r.PostForm.Get("tax_id_data[0][type]"))
		assert.Equal(t, "BR-99", r.PostForm.Get("metadata[tax_id]"))
		writeJSON(w, http.StatusOK, `{"id":"cus_2","object":"customer"}`)
	})

	_, err := p.CreateCustomer(context.Background(), provider.CustomerProfile{
		AccountID: "acc-2",
		Address:   &provider.Address{Country: "BR"},
		TaxID:     "BR-99",
	})
	require.NoError(t, err)
}

func TestStripeProvider_UpdateCustomer_TaxID(t *testing.T) {
	profile := provider.CustomerProfile{
		AccountID: "acc-1",
		Name:      "Acme Ltd",
		Address:   &provider.Address{Country: "gb"},
		TaxID:     "GB123456789",
	}

	t.Run("attaches missing tax id", func(t *testing.T) {
		var created bool
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v1/customers/cus_1":
				writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer","name":"Acme Ltd"}`)
			case r.Method == http.MethodGet && r.URL.Path == "/v1/customers/cus_1/tax_ids":
				writeJSON(w, http.StatusOK, `{"object":"list","data":[{"id":"txi_old","object":"tax_id","type":"gb_vat","value":"GB000000000"}],"has_more":false,"url":"/v1/customers/cus_1/tax_ids"}`)
			case r.Method == http.MethodPost && r.URL.Path == "/v1/customers/cus_1/tax_ids":
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "gb_vat", r.PostForm.Get("type"))
				assert.Equal(t, "GB123456789", r.PostForm.Get("value"))
				created = true
				writeJSON(w, http.StatusOK, `{"id":"txi_1","object":"tax_id","type":"gb_vat","value":"GB123456789"}`)
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				writeJSON(w, http.StatusNotFound, `{}`)
			}
		})

		cust, err := p.UpdateCustomer(context.Background(), "cus_1", profile)
		require.NoError(t, err)
		assert.Equal(t, "Acme Ltd", cust.Name)
		assert.True(t, created)
	})

	t.Run("keeps existing tax id", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v1/customers/cus_1":
				writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer"}`)
			case r.Method == http.MethodGet && r.URL.Path == "/v1/customers/cus_1/tax_ids":
				writeJSON(w, http.StatusOK, `{"object":"list","data":[{"id":"txi_1","object":"tax_id","type":"gb_vat","value":"GB123456789"}],"has_more":false,"url":"/v1/customers/cus_1/tax_ids"}`)
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				writeJSON(w, http.StatusNotFound, `{}`)
			}
		})

		_, err := p.UpdateCustomer(context.Background(), "cus_1", profile)
		require.NoError(t, err)
	})

	t.Run("rejected tax id", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v1/customers/cus_1":
				writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer"}`)
			case r.Method == http.MethodGet:
				writeJSON(w, http.StatusOK, `{"object":"list","data":[],"has_more":false,"url":"/v1/customers/cus_1/tax_ids"}`)
			default:
				writeJSON(w, http.StatusBadRequest, `{"error":{"code":"tax_id_invalid","message":"Invalid value for gb_vat.","type":"invalid_request_error"}}`)
			}
		})

		_, err := p.UpdateCustomer(context.Background(), "cus_1", profile)
		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "tax_id_invalid", providerErr.Code)
	})
}

func TestStripeProvider_FindCustomerByAccount(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/customers/search", r.URL.Path)
			assert.Equal(t, "metadata['account_id']:'acc-1'", r.URL.Query().Get("query"))
			writeJSON(w, http.StatusOK, `{"object":"search_result","data":[{"id":"cus_1","object":"customer","metadata":{"account_id":"acc-1"}}],"has_more":false,"url":"/v1/customers/search"}`)
		})

		cust, err := p.FindCustomerByAccount(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", cust.ID)
	})

	t.Run("none", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"object":"search_result","data":[],"has_more":false,"url":"/v1/customers/search"}`)
		})

		_, err := p.FindCustomerByAccount(context.Background(), "acc-1")
		assert.ErrorIs(t, err, provider.ErrResourceMissing)
	})
}

func TestTaxIDType(t *testing.T) {
	tests := []struct {
		country string
		taxID   string
		want    stripe.TaxIDType
		ok      bool
	}{
		{"DE", "DE1", stripe.TaxIDTypeEUVAT, true},
		{"fr", "FR1", stripe.TaxIDTypeEUVAT, true},
		{"US", "12-3456789", stripe.TaxIDTypeUSEIN, true},
		{"KR", "1234567890", stripe.TaxIDTypeKRBRN, true},
		{"BR", "BR1", "", false},
		{"DE", "", "", false},
	}
	for _, tt := range tests {
		got, ok := taxIDType(provider.CustomerProfile{TaxID: tt.taxID, Address: &provider.Address{Country: tt.country}})
		assert.Equal(t, tt.ok, ok, tt.country)
		assert.Equal(t, tt.want, got, tt.country)
	}

	_, ok := taxIDType(provider.CustomerProfile{TaxID: "DE1"})
	assert.False(t, ok)
}

func TestStripeProvider_GetCustomer_Deleted(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer","deleted":true}`)
	})

	_, err := p.GetCustomer(context.Background(), "cus_1")
	assert.ErrorIs(t, err, provider.ErrResourceMissing)
}

func TestCustomerParams_Individual(t *testing.T) {
	params := customerParams(provider.CustomerProfile{AccountID: "acc-2", Name: "Jane Doe"})
	assert.Equal(t, "Jane Doe", *params.Name)
	assert.Nil(t, params.Email)
	assert.Nil(t, params.Address)
	assert.NotContains(t, params.Metadata, "tax_id")
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in   stripe.SubscriptionStatus
		want string
	}{
		{stripe.SubscriptionStatusActive, "active"},
		{stripe.SubscriptionStatusTrialing, "trialing"},
		{stripe.SubscriptionStatusPastDue, "past_due"},
		{stripe.SubscriptionStatusUnpaid, "past_due"},
		{stripe.SubscriptionStatusIncomplete, "past_due"},
		{stripe.SubscriptionStatusCanceled, "cancelled"},
		{stripe.SubscriptionStatusIncompleteExpired, "expired"},
		{stripe.SubscriptionStatusPaused, "expired"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStatus(tt.in), string(tt.in))
	}
}
