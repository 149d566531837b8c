package model

import "leadpilot/internal/domain"

// PlanTier identifies one of the three subscription tiers.
type PlanTier string

const (
	PlanPlus  PlanTier = "plus"
	PlanPro   PlanTier = "pro"
	PlanUltra PlanTier = "ultra"
)

// ParsePlanTier validates a wire-level tier string.
func ParsePlanTier(s string) (PlanTier, error) {
	switch PlanTier(s) {
	case PlanPlus, PlanPro, PlanUltra:
		return PlanTier(s), nil
	}
	return "", domain.ErrUnknownPlan
}

// Plan is a purchasable tier with a fixed monthly price in BRL and an
// ordered, editorial benefit list. The catalog is static; there is no
// plan CRUD in this system.
type Plan struct {
	Tier     PlanTier
	Name     string
	Tagline  string
	PriceBRL int
	Benefits []string
	Popular  bool
}

func (p *Plan) IsZero() bool { return p == nil || p.Tier == "" }

// Price pairs the base price with the discount-adjusted price for display.
type Price struct {
	Original   int `json:"original"`
	Discounted int `json:"discounted"`
}
