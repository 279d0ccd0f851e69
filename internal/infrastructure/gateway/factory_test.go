package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"go.uber.org/zap"
)

func TestNewChecker(t *testing.T) {
	checker, err := NewChecker(&config.GatewayConfig{Provider: config.ProviderCheckAPI, BaseURL: "http://gateway.local"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "checkapi", checker.Name())

	checker, err = NewChecker(&config.GatewayConfig{Provider: config.ProviderStripe, StripeSecretKey: "sk_test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "stripe", checker.Name())

	_, err = NewChecker(&config.GatewayConfig{Provider: config.ProviderStripe}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewChecker(&config.GatewayConfig{Provider: "paypal"}, zap.NewNop())
	assert.Error(t, err)
}
