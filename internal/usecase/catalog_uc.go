package usecase

import (
	"math"

	"leadpilot/internal/domain/model"
)

// PlanCatalog is the static lookup of plan tiers to pricing and benefit
// copy. Purely editorial content; no side effects, no storage.
type PlanCatalog interface {
	// PriceFor returns the base and discount-adjusted price for a tier.
	// Unknown tiers fall back to the generic 119/99 pair.
	PriceFor(tier model.PlanTier, discountPercent int) model.Price
	// BenefitsFor returns the tier's ordered benefit list; unknown tiers get
	// the generic triple.
	BenefitsFor(tier model.PlanTier) []string
	// Plans returns the full catalog in display order for the pricing page.
	Plans() []model.Plan
	// Get returns one plan; domain.ErrUnknownPlan semantics are left to
	// ParsePlanTier, so callers pass validated tiers and Get never fails for
	// the closed enum.
	Get(tier model.PlanTier) model.Plan
}

var _ PlanCatalog = (*planCatalog)(nil)

type planCatalog struct {
	plans []model.Plan
}

// NewPlanCatalog builds the fixed three-tier catalog.
func NewPlanCatalog() PlanCatalog {
	return &planCatalog{plans: []model.Plan{
		{
			Tier:     model.PlanPlus,
			Name:     "Plus",
			Tagline:  "Para começar a prospectar",
			PriceBRL: 119,
			Benefits: []string{
				"30 milhões de empresas para prospectar",
				"Contatos desbloqueados sem limites",
				"Empresas abertas nas últimas 24h (5x mais chances)",
				"Filtros por localidade (estado e cidade)",
				"Filtros por segmento e tamanho da empresa",
				"Leads exclusivos nunca contatados antes",
				"ROI garantido já no primeiro mês",
			},
		},
		{
			Tier:     model.PlanPro,
			Name:     "Pro",
			Tagline:  "Para profissionais de vendas",
			PriceBRL: 499,
			Popular:  true,
			Benefits: []string{
				"Tudo do plano Plus +",
				"WhatsApp em massa para múltiplos leads de uma vez",
				"Economize 5h diárias em prospecção manual",
				"Templates personalizados com 70% de taxa de resposta",
				"Filtros avançados de leads de alta conversão",
				"Automação de acompanhamento de leads",
				"Estatísticas e relatórios de desempenho",
			},
		},
		{
			Tier:     model.PlanUltra,
			Name:     "Ultra IA",
			Tagline:  "Para equipes e empresas",
			PriceBRL: 999,
			Benefits: []string{
				"Tudo do plano Pro +",
				"Funcionário IA trabalhando 24h/7 dias por semana",
				"Prospecção automática enquanto você dorme",
				"Identificação de oportunidades via IA preditiva",
				"Respostas automáticas personalizadas",
				"Acompanhamento completo do funil de vendas",
				"Retorno sobre investimento de 10x garantido",
			},
		},
	}}
}

var fallbackBenefits = []string{
	"Acesso ilimitado a todos os leads",
	"Contatos desbloqueados ilimitados",
	"Filtros avançados e busca premium",
}

func (c *planCatalog) PriceFor(tier model.PlanTier, discountPercent int) model.Price {
	p := c.Get(tier)
	if p.IsZero() {
		return model.Price{Original: 119, Discounted: 99}
	}
	discounted := int(math.Round(float64(p.PriceBRL) * (1 - float64(discountPercent)/100)))
	if discounted < 0 {
		discounted = 0
	}
	return model.Price{Original: p.PriceBRL, Discounted: discounted}
}

func (c *planCatalog) BenefitsFor(tier model.PlanTier) []string {
	p := c.Get(tier)
	if p.IsZero() {
		return fallbackBenefits
	}
	return p.Benefits
}

func (c *planCatalog) Plans() []model.Plan {
	out := make([]model.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *planCatalog) Get(tier model.PlanTier) model.Plan {
	for _, p := range c.plans {
		if p.Tier == tier {
			return p
		}
	}
	return model.Plan{}
}
