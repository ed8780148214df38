package provider

import (
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/config"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
	stripeProvider "github.com/wekeepgrowing/mailshield/internal/infrastructure/provider/stripe"
	"go.uber.org/zap"
)

// Factory creates billing providers from configuration
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// GetProvider returns the billing provider registered under name.
// An empty name selects Stripe.
func (f *Factory) GetProvider(name string) (provider.BillingProvider, error) {
	switch name {
	case "", stripeProvider.ProviderName:
		return f.createStripeProvider()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", name)
	}
}

// createStripeProvider creates a new Stripe provider instance
func (f *Factory) createStripeProvider() (provider.BillingProvider, error) {
	if f.config.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}

	return stripeProvider.NewStripeProvider(
		f.config.Stripe.SecretKey,
		f.logger.Named("stripe"),
	), nil
}
