package config

import "fmt"

const (
	MessagingNone     = "none"
	MessagingRedis    = "redis"
	MessagingRabbitMQ = "rabbitmq"
)

type RedisConfig struct {
	// Addr empty disables the plan cache.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// KeyPrefix namespaces plan cache keys.
	KeyPrefix string `yaml:"key_prefix"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type MessagingConfig struct {
	Driver string `yaml:"driver"`
	// URL is the AMQP url for the rabbitmq driver.
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	Channel    string `yaml:"channel"`
	RoutingKey string `yaml:"routing_key"`
}

func (c *MessagingConfig) Validate() error {
	switch c.Driver {
	case MessagingNone, MessagingRedis:
	case MessagingRabbitMQ:
		if c.URL == "" {
			return fmt.Errorf("messaging: url is required for rabbitmq")
		}
	default:
		return fmt.Errorf("messaging: unsupported driver %q", c.Driver)
	}
	return nil
}
