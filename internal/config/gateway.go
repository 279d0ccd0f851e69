package config

import (
	"fmt"
	"time"
)

const (
	ProviderCheckAPI = "checkapi"
	ProviderStripe   = "stripe"

	defaultGatewayTimeout   = 10 * time.Second
	defaultAssumedTolerance = 72 * time.Hour
)

type GatewayConfig struct {
	Provider string `yaml:"provider"`

	// check API
	BaseURL       string `yaml:"base_url"`
	CheckPath     string `yaml:"check_path"`
	StoreID       string `yaml:"store_id"`
	StorePassword string `yaml:"store_password"`

	// stripe
	StripeSecretKey string `yaml:"stripe_secret_key"`
	StripeAPIURL    string `yaml:"stripe_api_url"`

	Timeout       time.Duration `yaml:"timeout"`
	WebhookSecret string        `yaml:"webhook_secret"`
	// AssumedTolerance is how long an assumed success may stay unverified
	// before re-verification flags it as unverifiable.
	AssumedTolerance time.Duration `yaml:"assumed_tolerance"`
}

func (c *GatewayConfig) Validate() error {
	switch c.Provider {
	case ProviderCheckAPI:
		if c.BaseURL == "" {
			return fmt.Errorf("gateway: base_url is required for %s", c.Provider)
		}
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("gateway: stripe_secret_key is required for %s", c.Provider)
		}
	default:
		return fmt.Errorf("gateway: unsupported provider %q", c.Provider)
	}
	return nil
}
