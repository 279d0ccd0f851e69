package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PlanSpec describes one purchasable plan
type PlanSpec struct {
	Name   string
	Period time.Duration
	// Amount is the list price. Nil means any amount is accepted.
	Amount   *decimal.Decimal
	Currency string
}

// PlanCatalog holds the purchasable plans and their entitlement periods
type PlanCatalog struct {
	defaultPeriod time.Duration
	plans         map[string]PlanSpec
}

func NewPlanCatalog(defaultPeriod time.Duration, plans ...PlanSpec) *PlanCatalog {
	c := &PlanCatalog{
		defaultPeriod: defaultPeriod,
		plans:         make(map[string]PlanSpec, len(plans)),
	}
	for _, p := range plans {
		c.plans[p.Name] = p
	}
	return c
}

func (c *PlanCatalog) Lookup(name string) (PlanSpec, bool) {
	p, ok := c.plans[name]
	return p, ok
}

// Period returns the entitlement period of the plan, falling back to the
// default period for plans missing from the catalog or without one.
func (c *PlanCatalog) Period(name string) time.Duration {
	if p, ok := c.plans[name]; ok && p.Period > 0 {
		return p.Period
	}
	return c.defaultPeriod
}

func (c *PlanCatalog) Names() []string {
	names := make([]string, 0, len(c.plans))
	for name := range c.plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
