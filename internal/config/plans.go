package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const defaultPlanPeriod = 30 * 24 * time.Hour

type PlansConfig struct {
	DefaultPeriod time.Duration `yaml:"default_period"`
	Catalog       []PlanConfig  `yaml:"catalog"`
}

type PlanConfig struct {
	Name     string        `yaml:"name"`
	Period   time.Duration `yaml:"period"`
	Amount   string        `yaml:"amount"`
	Currency string        `yaml:"currency"`
}

func (c *PlansConfig) Validate() error {
	seen := make(map[string]bool, len(c.Catalog))
	for _, p := range c.Catalog {
		if p.Name == "" {
			return fmt.Errorf("plans: catalog entry without name")
		}
		if p.Name == "free" {
			return fmt.Errorf("plans: %q is reserved", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("plans: duplicate plan %q", p.Name)
		}
		seen[p.Name] = true
		if p.Amount != "" {
			if _, err := decimal.NewFromString(p.Amount); err != nil {
				return fmt.Errorf("plans: invalid amount for %q: %w", p.Name, err)
			}
		}
	}
	return nil
}
