package config

import (
	pkgconfig "github.com/wekeepgrowing/payment-reconciler/pkg/config"
)

// applyEnv overrides secrets and deployment specific values from the environment,
// e.g. PAYMENT_DATABASE_PASSWORD or PAYMENT_GATEWAY_STORE_PASSWORD.
func applyEnv(cfg *Config) {
	applyEnvFrom(pkgconfig.FromEnv(EnvPrefix), cfg)
}

func applyEnvFrom(src pkgconfig.Source, cfg *Config) {
	str, num, flag, dur := pkgconfig.String, pkgconfig.Int, pkgconfig.Bool, pkgconfig.Duration

	pkgconfig.Override(src, "service.environment", &cfg.Service.Environment, str)
	pkgconfig.Override(src, "service.client_url", &cfg.Service.ClientURL, str)
	pkgconfig.Override(src, "service.internal_token", &cfg.Service.InternalToken, str)

	pkgconfig.Override(src, "database.driver", &cfg.Database.Driver, str)
	pkgconfig.Override(src, "database.host", &cfg.Database.Host, str)
	pkgconfig.Override(src, "database.port", &cfg.Database.Port, num)
	pkgconfig.Override(src, "database.name", &cfg.Database.Name, str)
	pkgconfig.Override(src, "database.user", &cfg.Database.User, str)
	pkgconfig.Override(src, "database.password", &cfg.Database.Password, str)
	pkgconfig.Override(src, "database.path", &cfg.Database.Path, str)

	pkgconfig.Override(src, "server.http.port", &cfg.Server.HTTP.Port, num)
	pkgconfig.Override(src, "server.grpc.port", &cfg.Server.GRPC.Port, num)

	pkgconfig.Override(src, "log.level", &cfg.Log.Level, str)
	pkgconfig.Override(src, "log.development", &cfg.Log.Development, flag)

	pkgconfig.Override(src, "jwt.secret", &cfg.JWT.Secret, str)
	pkgconfig.Override(src, "session.secret", &cfg.Session.Secret, str)

	pkgconfig.Override(src, "gateway.provider", &cfg.Gateway.Provider, str)
	pkgconfig.Override(src, "gateway.base_url", &cfg.Gateway.BaseURL, str)
	pkgconfig.Override(src, "gateway.store_id", &cfg.Gateway.StoreID, str)
	pkgconfig.Override(src, "gateway.store_password", &cfg.Gateway.StorePassword, str)
	pkgconfig.Override(src, "gateway.stripe_secret_key", &cfg.Gateway.StripeSecretKey, str)
	pkgconfig.Override(src, "gateway.webhook_secret", &cfg.Gateway.WebhookSecret, str)
	pkgconfig.Override(src, "gateway.timeout", &cfg.Gateway.Timeout, dur)
	pkgconfig.Override(src, "gateway.assumed_tolerance", &cfg.Gateway.AssumedTolerance, dur)

	pkgconfig.Override(src, "redis.addr", &cfg.Redis.Addr, str)
	pkgconfig.Override(src, "redis.password", &cfg.Redis.Password, str)
	pkgconfig.Override(src, "redis.db", &cfg.Redis.DB, num)

	pkgconfig.Override(src, "messaging.driver", &cfg.Messaging.Driver, str)
	pkgconfig.Override(src, "messaging.url", &cfg.Messaging.URL, str)
}
