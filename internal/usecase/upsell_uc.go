package usecase

import (
	"context"
	"fmt"
	"strings"

	"leadpilot/internal/domain/model"

	"github.com/rs/zerolog"
)

// EntitlementFunc answers whether a user has premium access. The product
// currently treats every user as non-premium; the real subscription check
// plugs in here without touching call sites.
type EntitlementFunc func(ctx context.Context, userID string) bool

// NoEntitlements is the current product behavior: nobody is premium.
func NoEntitlements(context.Context, string) bool { return false }

// Decision is the outcome of a gating check. Allowed means the underlying
// action proceeds; otherwise Request carries the banner to present.
type Decision struct {
	Allowed bool
	Request *model.UpsellRequest
}

// DecideInput is the command object callers hand to the decider instead of
// building banner copy inline.
type DecideInput struct {
	FeatureID string
	// Term is free-text context interpolated into some copy (the CNAE code
	// being searched, for example).
	Term    string
	Session *model.Session
}

// UpsellDecider maps a (feature, identity, entitlement) triple to the exact
// upsell banner to display. The mapping is a single editorial table, total
// over the known feature set with a fallback for anything unrecognized.
type UpsellDecider interface {
	Decide(ctx context.Context, in DecideInput) Decision
	// FilterInfo reports whether a popular-filter id is known and
	// premium-tagged. Untagged filters never gate.
	FilterInfo(id string) (label string, premium, known bool)
}

var _ UpsellDecider = (*upsellDecider)(nil)

type offer struct {
	title       string
	description string
	featureType model.FeatureType
	tier        model.PlanTier
	showPayment bool
	// anonOnly offers gate only users without a session; signed-in users
	// proceed to the real action.
	anonOnly bool
	// login* override the copy for anonymous users where the call site
	// frames the banner around account creation.
	loginTitle       string
	loginDescription string
}

type filterSpec struct {
	label    string
	premium  bool
	location bool
}

type upsellDecider struct {
	offers   map[string]offer
	filters  map[string]filterSpec
	entitled EntitlementFunc
	clock    DiscountClock
	log      *zerolog.Logger
}

// NewUpsellDecider wires the editorial table to the shared discount clock.
// entitled may be nil, which means NoEntitlements.
func NewUpsellDecider(clock DiscountClock, entitled EntitlementFunc, logger *zerolog.Logger) UpsellDecider {
	if entitled == nil {
		entitled = NoEntitlements
	}
	l := logger.With().Str("component", "UpsellDecider").Logger()
	return &upsellDecider{
		offers:   offerTable(),
		filters:  filterRegistry(),
		entitled: entitled,
		clock:    clock,
		log:      &l,
	}
}

func (d *upsellDecider) Decide(ctx context.Context, in DecideInput) Decision {
	hasSession := !in.Session.IsZero()

	if spec, ok := d.filters[in.FeatureID]; ok {
		return d.decideFilter(ctx, in, spec, hasSession)
	}

	o, ok := d.offers[in.FeatureID]
	if !ok {
		o = fallbackOffer
	}
	if o.anonOnly && hasSession {
		return Decision{Allowed: true}
	}

	req := &model.UpsellRequest{
		FeatureID:          in.FeatureID,
		Title:              o.title,
		Description:        o.description,
		FeatureType:        o.featureType,
		PlanTier:           o.tier,
		ShowLogin:          !hasSession,
		ShowPaymentOptions: o.showPayment,
	}
	if !hasSession && o.loginTitle != "" {
		req.Title = o.loginTitle
		req.Description = o.loginDescription
	}
	if strings.Contains(req.Description, "%s") {
		req.Description = fmt.Sprintf(req.Description, in.Term)
	}
	return d.fire(in.FeatureID, req)
}

func (d *upsellDecider) decideFilter(ctx context.Context, in DecideInput, spec filterSpec, hasSession bool) Decision {
	if !spec.premium {
		return Decision{Allowed: true}
	}
	if hasSession && d.entitled(ctx, in.Session.UserID) {
		return Decision{Allowed: true}
	}

	if !hasSession {
		return d.fire(in.FeatureID, &model.UpsellRequest{
			FeatureID:   in.FeatureID,
			Title:       "Login Necessário",
			Description: fmt.Sprintf("Para acessar o filtro %q, faça login ou cadastre-se primeiro.", spec.label),
			FeatureType: model.FeatureFilter,
			PlanTier:    model.PlanPlus,
			ShowLogin:   true,
		})
	}

	title, desc := filterCopy(in.FeatureID, spec)
	return d.fire(in.FeatureID, &model.UpsellRequest{
		FeatureID:   in.FeatureID,
		Title:       title,
		Description: desc,
		FeatureType: model.FeatureFilter,
		PlanTier:    model.PlanPlus,
	})
}

// fire is the single exit for every gating decision: it activates the
// discount countdown as a side effect.
func (d *upsellDecider) fire(featureID string, req *model.UpsellRequest) Decision {
	d.clock.Activate()
	d.log.Debug().
		Str("feature", featureID).
		Str("plan", string(req.PlanTier)).
		Bool("show_login", req.ShowLogin).
		Msg("upsell fired")
	return Decision{Request: req}
}

func (d *upsellDecider) FilterInfo(id string) (string, bool, bool) {
	spec, ok := d.filters[id]
	return spec.label, spec.premium, ok
}

func filterCopy(id string, spec filterSpec) (title, desc string) {
	switch {
	case spec.location:
		return "Leads em " + spec.label + " - Exclusivo Plus",
			"Encontre clientes próximos a você! Filtre empresas por estado e cidade para contatos locais e maiores chances de conversão. Economize em deslocamentos e foque em clientes da sua região."
	case id == "novas24h" || id == "novasMes":
		return "Empresas Recém-Abertas - Oportunidade Única",
			"Empresas novas têm 5x mais chances de contratar serviços. Seja o primeiro a entrar em contato antes da concorrência e feche negócios com quem ainda está definindo fornecedores."
	case id == "poucosContatos":
		return "Leads Virgens - Nunca Contatados",
			"Acesse empresas que ninguém contatou ainda! Sem concorrência, sem caixa de entrada lotada, apenas você oferecendo soluções para necessidades reais. Taxa de resposta 3x maior."
	case id == "altaConversao":
		return "Leads com Alta Taxa de Conversão",
			"Nossa IA identifica empresas com maior probabilidade de compra baseado em histórico de conversões similares. Economize tempo e foque em quem realmente está pronto para fechar negócio."
	default:
		return spec.label + " - Filtro Premium",
			"Desbloqueie filtros avançados para encontrar leads específicos para seu negócio. Economize horas de prospecção manual e encontre clientes ideais em segundos."
	}
}

var fallbackOffer = offer{
	title:       "Recurso Premium",
	description: "Desbloqueie todos os recursos premium para maximizar suas conversões e potencializar seu negócio.",
	featureType: model.FeatureAction,
	tier:        model.PlanPlus,
}

// offerTable is the editorial mapping behind every gated surface: bottom-nav
// tabs, feed card actions, bulk bar, search, and recommendation shelf.
func offerTable() map[string]offer {
	return map[string]offer{
		// Bottom navigation (premium tabs open straight into payment options).
		"conversations": {
			title:       "Gerenciador de Conversas",
			description: "Organize e acompanhe todas as suas conversas com leads em um só lugar. Nunca mais perca um lead importante!",
			featureType: model.FeatureNavigation,
			tier:        model.PlanPlus,
			showPayment: true,
		},
		"whatsapp-auto": {
			title:       "WhatsApp Automático",
			description: "Economize horas enviando mensagens personalizadas em massa para centenas de leads. Aumente suas chances de venda em até 5x com automação inteligente!",
			featureType: model.FeatureNavigation,
			tier:        model.PlanPro,
			showPayment: true,
		},
		"auto-piloto": {
			title:       "Auto Piloto - IA para Vendas",
			description: "Deixe nossa IA encontrar leads qualificados e enviar mensagens automaticamente enquanto você foca no fechamento. Imagine acordar toda manhã com novas conversas iniciadas sem qualquer esforço!",
			featureType: model.FeatureNavigation,
			tier:        model.PlanUltra,
			showPayment: true,
		},

		// Feed card actions.
		"unlock-contact": {
			title:       "Desbloqueie Contatos Ilimitados",
			description: "Tenha acesso a telefones, emails e dados completos de mais de 30 milhões de empresas. Seja o primeiro a contatar empresas recém-abertas com 5x mais chances de conversão. Assine agora com desconto especial!",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},
		"no-credits": {
			title:       "Sem créditos disponíveis",
			description: "Assine o plano Plus e tenha contatos ilimitados! Pare de perder oportunidades e comece a gerar resultados agora mesmo. Retorno garantido já no primeiro mês com apenas 5 novos clientes.",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
		},
		"whatsapp-direct": {
			title:       "WhatsApp Direto - Feche Negócios Mais Rápido",
			description: "Envie mensagens diretamente para decisores via WhatsApp e aumente suas taxas de resposta em 300%. Empresas respondem 5x mais rápido no WhatsApp do que por email ou ligação. Comece agora!",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},
		"send-email": {
			title:       "Comunicação Profissional por Email",
			description: "Entre ou crie sua conta para enviar emails profissionais personalizados diretamente para os leads.",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},
		"open-chat": {
			title:       "Chat Interno com Leads",
			description: "Acesse nosso sistema de chat interno e organize todas as suas conversas com leads em um só lugar. Crie sua conta gratuitamente!",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},
		"login-prompt": {
			title:       "Entre ou Crie sua Conta",
			description: "Desbloqueie o acesso a leads exclusivos e ferramentas avançadas para impulsionar suas vendas!",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},

		// Bulk selection bar. Bulk messaging is Pro-gated even for signed-in
		// users; bulk favoriting only needs an account.
		"bulk-message": {
			title:            "WhatsApp em Massa - Plano Pro",
			description:      "Envie mensagens para centenas de leads ao mesmo tempo e economize 5h por dia. Multiplique sua produtividade por 10x e fale com mais clientes em menos tempo. Utilize nossos templates com 70% de taxa de resposta e aumente suas vendas já no primeiro dia.",
			featureType:      model.FeatureAction,
			tier:             model.PlanPro,
			loginTitle:       "WhatsApp em Massa - Plano Pro",
			loginDescription: "Envie mensagens para centenas de leads ao mesmo tempo e economize 5h por dia de trabalho manual. Aumente suas taxas de resposta em 5x com templates personalizados e sequências automatizadas. Pare de perder tempo com prospecção manual!",
		},
		"bulk-favorite": {
			title:       "Organize seus Leads Favoritos",
			description: "Marque leads como favoritos para acompanhamento rápido e eficiente. Crie uma conta para começar a organizar suas oportunidades!",
			featureType: model.FeatureAction,
			tier:        model.PlanPlus,
			anonOnly:    true,
		},

		// Search surfaces.
		"advanced-search": {
			title:       "Busca Avançada Premium",
			description: "Desbloqueie a busca avançada para encontrar leads específicos para seu negócio.",
			featureType: model.FeatureSearch,
			tier:        model.PlanPlus,
		},
		"cnae-search": {
			title:       "Filtros CNAE Premium",
			description: "Para encontrar empresas com CNAE \"%s\", assine o plano Premium e desbloqueie filtros avançados!",
			featureType: model.FeatureFilter,
			tier:        model.PlanPlus,
		},

		// Recommendation shelf.
		"leads-premium": {
			title:       "Leads Premium",
			description: "Desbloqueie acesso a leads premium com 3x mais chances de conversão. Nossas análises identificam empresas prontas para comprar seus produtos ou serviços.",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanPlus,
		},
		"match-perfeito": {
			title:       "Match Perfeito",
			description: "Nossa IA analisa seu perfil e encontra empresas que mais combinam com seu produto ou serviço. Aumente suas taxas de conversão em até 67%!",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanUltra,
		},
		"empresas-locais": {
			title:       "Empresas Locais",
			description: "Encontre empresas perto de você para contato direto e fechamento rápido. Negócios locais preferem trabalhar com parceiros próximos.",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanPlus,
		},
		"empresas-novas-24h": {
			title:       "Empresas Novas (24h)",
			description: "Acesse Empresas Novas (24h) e encontre as melhores oportunidades para seu negócio. Desbloqueie este recurso premium!",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanPlus,
		},
		"abertas-mes": {
			title:       "Abertas Este Mês",
			description: "Acesse Abertas Este Mês e encontre as melhores oportunidades para seu negócio. Desbloqueie este recurso premium!",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanPlus,
		},
		"view-all": {
			title:       "Acesso Completo a Leads Premium",
			description: "Desbloqueie acesso ilimitado a mais de 30 milhões de empresas em nosso banco de dados. Encontre o cliente perfeito com filtros avançados, busca por CNAE e recomendações personalizadas baseadas em IA.",
			featureType: model.FeatureRecommendation,
			tier:        model.PlanUltra,
		},
	}
}

// filterRegistry is the popular-filter strip: recency/quality and location
// filters are premium-tagged, segment filters are free.
func filterRegistry() map[string]filterSpec {
	return map[string]filterSpec{
		"novas24h":       {label: "Abertas 24h", premium: true},
		"novasMes":       {label: "Abertas no mês", premium: true},
		"altaConversao":  {label: "Alta conversão", premium: true},
		"poucosContatos": {label: "Pouco contatadas", premium: true},

		"saopaulo":     {label: "São Paulo", premium: true, location: true},
		"riodejaneiro": {label: "Rio de Janeiro", premium: true, location: true},
		"minasgerais":  {label: "Minas Gerais", premium: true, location: true},
		"parana":       {label: "Paraná", premium: true, location: true},
		"bahia":        {label: "Bahia", premium: true, location: true},
		"sp-capital":   {label: "SP Capital", premium: true, location: true},
		"campinas":     {label: "Campinas", premium: true, location: true},
		"rj-capital":   {label: "RJ Capital", premium: true, location: true},
		"bh":           {label: "Belo Horizonte", premium: true, location: true},

		"servicos":   {label: "Serviços"},
		"comercio":   {label: "Comércio"},
		"educacao":   {label: "Educação"},
		"saude":      {label: "Saúde"},
		"tecnologia": {label: "Tecnologia"},
	}
}
