// Package gateway builds the status checker for the configured payment gateway.
package gateway

import (
	"fmt"

	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	domainGateway "github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/gateway/checkapi"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/gateway/stripecheck"
	"go.uber.org/zap"
)

// NewChecker returns the status checker selected by gateway.provider
func NewChecker(cfg *config.GatewayConfig, logger *zap.Logger) (domainGateway.StatusChecker, error) {
	switch cfg.Provider {
	case config.ProviderCheckAPI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("check API base url not configured")
		}
		return checkapi.NewClient(checkapi.Options{
			BaseURL:       cfg.BaseURL,
			CheckPath:     cfg.CheckPath,
			StoreID:       cfg.StoreID,
			StorePassword: cfg.StorePassword,
			Timeout:       cfg.Timeout,
		}, logger), nil
	case config.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("Stripe secret key not configured")
		}
		return stripecheck.NewChecker(stripecheck.Options{
			SecretKey: cfg.StripeSecretKey,
			APIURL:    cfg.StripeAPIURL,
			Timeout:   cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", cfg.Provider)
	}
}
