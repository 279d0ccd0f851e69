package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/wekeepgrowing/payment-reconciler/pkg/logger"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override the YAML file.
const EnvPrefix = "payment"

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
	JWT       JWTConfig       `yaml:"jwt"`
	Session   SessionConfig   `yaml:"session"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Redis     RedisConfig     `yaml:"redis"`
	Messaging MessagingConfig `yaml:"messaging"`
	Plans     PlansConfig     `yaml:"plans"`
}

// LoadConfig reads the YAML file at CONFIG_PATH (default ./configs/payment.yaml),
// then applies PAYMENT_* environment overrides. A .env file in the working
// directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/payment.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "payment", Environment: "development"},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{Host: "0.0.0.0", Port: 8080},
			GRPC: GRPCConfig{Host: "0.0.0.0", Port: 9090},
		},
		Log: logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Session: SessionConfig{
			CookieName: "payment_return",
			MaxAge:     3600,
		},
		Gateway: GatewayConfig{
			Provider:         ProviderCheckAPI,
			CheckPath:        "/api/v1/transactions/check",
			Timeout:          defaultGatewayTimeout,
			AssumedTolerance: defaultAssumedTolerance,
		},
		Messaging: MessagingConfig{
			Driver:     MessagingNone,
			Channel:    "payment.transaction.settled",
			Exchange:   "payment.events",
			RoutingKey: "transaction.settled",
		},
		Plans: PlansConfig{DefaultPeriod: defaultPlanPeriod},
	}
}

func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if err := c.Messaging.Validate(); err != nil {
		return err
	}
	return c.Plans.Validate()
}
