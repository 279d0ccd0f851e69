package config

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	ClientURL   string `yaml:"client_url"`
	// InternalToken guards /api/v1/internal routes. Empty disables them.
	InternalToken string `yaml:"internal_token"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// SessionConfig configures the cookie that remembers the last handled tran_id
// for a browser session.
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	CookieName string `yaml:"cookie_name"`
	MaxAge     int    `yaml:"max_age"`
	Secure     bool   `yaml:"secure"`
}
