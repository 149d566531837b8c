package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	pixKey             = "17991610665"
	supportWhatsAppURL = "https://api.whatsapp.com/send?phone=5517981679818&text=Oi%2C%20tudo%20bem%3F%20Preciso%20de%20ajuda%20com%20LeadPilot%20."
	qrServerEndpoint   = "https://api.qrserver.com/v1/create-qr-code/"

	paymentFailedMessage = "Ocorreu um erro ao processar o pagamento"
	paymentFailedDetail  = "Por favor, entre em contato com o suporte via WhatsApp para assistência."
	pixCopiedMessage     = "Chave PIX copiada!"
	pixReceiptNote       = "Após o pagamento, envie o comprovante para suporte@leadpilot.com"
)

// PresenterView is the wire-ready projection of one open banner.
type PresenterView struct {
	ID            string               `json:"id"`
	State         model.PresenterState `json:"state"`
	PaymentMethod model.PaymentMethod  `json:"payment_method,omitempty"`
	Offer         model.UpsellRequest  `json:"offer"`
	Price         model.Price          `json:"price"`
	Benefits      []string             `json:"benefits"`
	ButtonText    string               `json:"button_text"`
	Discount      model.DiscountState  `json:"discount"`
	Pix           *model.PixCharge     `json:"pix,omitempty"`
}

// SubmitResult reports the outcome of a card submission. Declined is always
// true: there is no payment gateway behind this flow and the documented
// business behavior is an unconditional failure pointing at manual support.
type SubmitResult struct {
	Declined   bool   `json:"declined"`
	Message    string `json:"message"`
	Detail     string `json:"detail"`
	SupportURL string `json:"support_url"`
}

// UpsellPresenter is the banner state machine: Hidden -> Offer ->
// Payment(credit|pix) -> Hidden, held server-side in a registry keyed by
// presenter id. The registry is the single owner of the discount clock's
// tick: one rescheduled 1-second timer runs while at least one presenter is
// mounted, regardless of how many banners are open.
type UpsellPresenter interface {
	Open(ctx context.Context, req *model.UpsellRequest) (*PresenterView, error)
	Get(ctx context.Context, id string) (*PresenterView, error)
	ChooseUpgrade(ctx context.Context, id string) (*PresenterView, error)
	SetPaymentMethod(ctx context.Context, id string, m model.PaymentMethod) (*PresenterView, error)
	SwitchToPlusPlan(ctx context.Context, id string) (*PresenterView, error)
	SubmitCard(ctx context.Context, id string, card model.CardDetails) (*SubmitResult, error)
	CopyPixKey(ctx context.Context, id string) (string, string, error)
	Back(ctx context.Context, id string) (*PresenterView, error)
	Close(ctx context.Context, id string) error

	// OpenCount reports mounted presenters; CloseIdle reaps presenters not
	// touched within ttl (the server-side analogue of unmount).
	OpenCount() int
	CloseIdle(ttl time.Duration) int

	// Run drives the shared countdown until ctx is cancelled. The timer is
	// rescheduled after each tick rather than free-running, and ticks are
	// skipped entirely while no presenter is mounted.
	Run(ctx context.Context) error
}

var _ UpsellPresenter = (*presenterRegistry)(nil)

type presenter struct {
	id        string
	state     model.PresenterState
	method    model.PaymentMethod
	offer     model.UpsellRequest
	touchedAt time.Time
}

type presenterRegistry struct {
	mu      sync.Mutex
	open    map[string]*presenter
	entropy *ulid.MonotonicEntropy

	clock   DiscountClock
	catalog PlanCatalog
	log     *zerolog.Logger
}

// NewUpsellPresenter constructs the registry. The clock and catalog are
// shared with the rest of the application.
func NewUpsellPresenter(clock DiscountClock, catalog PlanCatalog, logger *zerolog.Logger) UpsellPresenter {
	l := logger.With().Str("component", "UpsellPresenter").Logger()
	return &presenterRegistry{
		open:    make(map[string]*presenter),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		clock:   clock,
		catalog: catalog,
		log:     &l,
	}
}

func (r *presenterRegistry) Open(_ context.Context, req *model.UpsellRequest) (*PresenterView, error) {
	if req == nil || req.Title == "" {
		return nil, domain.ErrInvalidArgument
	}

	r.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	p := &presenter{
		id:        id,
		state:     model.PresenterOffer,
		offer:     *req,
		touchedAt: time.Now(),
	}
	r.open[id] = p
	r.mu.Unlock()

	// Entering Offer restarts the countdown visibility for this session.
	r.clock.Activate()
	r.log.Debug().Str("presenter_id", id).Str("feature", req.FeatureID).Msg("banner opened")
	return r.view(p), nil
}

func (r *presenterRegistry) Get(_ context.Context, id string) (*PresenterView, error) {
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	return r.view(p), nil
}

func (r *presenterRegistry) ChooseUpgrade(_ context.Context, id string) (*PresenterView, error) {
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.state != model.PresenterOffer {
		return nil, domain.ErrInvalidTransition
	}
	// Login-framed offers carry no subscribe call to action.
	if p.offer.ShowLogin {
		return nil, domain.ErrInvalidTransition
	}
	p.state = model.PresenterPayment
	p.method = model.PaymentCredit
	return r.viewLocked(p), nil
}

func (r *presenterRegistry) SetPaymentMethod(_ context.Context, id string, m model.PaymentMethod) (*PresenterView, error) {
	if m != model.PaymentCredit && m != model.PaymentPix {
		return nil, domain.ErrInvalidArgument
	}
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.state != model.PresenterPayment {
		return nil, domain.ErrInvalidTransition
	}
	p.method = m
	return r.viewLocked(p), nil
}

func (r *presenterRegistry) SwitchToPlusPlan(_ context.Context, id string) (*PresenterView, error) {
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.state != model.PresenterOffer {
		return nil, domain.ErrInvalidTransition
	}
	if p.offer.PlanTier != model.PlanPro && p.offer.PlanTier != model.PlanUltra {
		return nil, domain.ErrInvalidTransition
	}
	p.offer.Title = "Plano Plus - Contatos Ilimitados"
	p.offer.Description = "Desbloqueie acesso a 30 milhões de empresas! Contate leads recém-abertos, seja o primeiro a falar com empresas nunca contatadas antes. Filtros avançados por localidade e segmento. ROI garantido já no primeiro mês."
	p.offer.PlanTier = model.PlanPlus
	p.offer.FeatureType = model.FeatureAction
	return r.viewLocked(p), nil
}

func (r *presenterRegistry) SubmitCard(ctx context.Context, id string, card model.CardDetails) (*SubmitResult, error) {
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if p.state != model.PresenterPayment || p.method != model.PaymentCredit {
		r.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}
	tier := p.offer.PlanTier
	r.mu.Unlock()

	// The card data never leaves the process; only a masked form is logged.
	card = card.Normalize()
	r.log.Info().
		Str("presenter_id", id).
		Str("plan", string(tier)).
		Str("card", card.Masked()).
		Msg("card submission declined")

	// Submission always terminates the banner, never a charge.
	_ = r.Close(ctx, id)
	return &SubmitResult{
		Declined:   true,
		Message:    paymentFailedMessage,
		Detail:     paymentFailedDetail,
		SupportURL: supportWhatsAppURL,
	}, nil
}

func (r *presenterRegistry) CopyPixKey(_ context.Context, id string) (string, string, error) {
	p, err := r.touch(id)
	if err != nil {
		return "", "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.state != model.PresenterPayment || p.method != model.PaymentPix {
		return "", "", domain.ErrInvalidTransition
	}
	return pixKey, pixCopiedMessage, nil
}

func (r *presenterRegistry) Back(_ context.Context, id string) (*PresenterView, error) {
	p, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.state != model.PresenterPayment {
		return nil, domain.ErrInvalidTransition
	}
	p.state = model.PresenterOffer
	p.method = ""
	return r.viewLocked(p), nil
}

func (r *presenterRegistry) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.open[id]; !ok {
		return domain.ErrNotFound
	}
	// Transient form state is discarded with the presenter; no side effects.
	delete(r.open, id)
	r.log.Debug().Str("presenter_id", id).Msg("banner closed")
	return nil
}

func (r *presenterRegistry) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

func (r *presenterRegistry) CloseIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.open {
		if p.touchedAt.Before(cutoff) {
			delete(r.open, id)
			n++
		}
	}
	return n
}

func (r *presenterRegistry) Run(ctx context.Context) error {
	r.log.Info().Msg("starting presenter countdown")
	t := time.NewTimer(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping presenter countdown")
			return ctx.Err()
		case <-t.C:
			// The clock advances only while a banner is mounted; closing the
			// last one pauses the countdown exactly where it stood.
			if r.OpenCount() > 0 {
				r.clock.Tick()
			}
			t.Reset(time.Second)
		}
	}
}

func (r *presenterRegistry) touch(id string) (*presenter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.open[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.touchedAt = time.Now()
	return p, nil
}

func (r *presenterRegistry) view(p *presenter) *PresenterView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked(p)
}

// viewLocked projects the presenter with a fresh discount snapshot. The
// clock has its own lock, acquired strictly after r.mu here and never the
// other way around.
func (r *presenterRegistry) viewLocked(p *presenter) *PresenterView {
	snap := r.clock.Snapshot()
	plan := r.catalog.Get(p.offer.PlanTier)
	v := &PresenterView{
		ID:         p.id,
		State:      p.state,
		Offer:      p.offer,
		Price:      r.catalog.PriceFor(p.offer.PlanTier, snap.DiscountPercent),
		Benefits:   r.catalog.BenefitsFor(p.offer.PlanTier),
		ButtonText: subscribeButtonText(plan),
		Discount:   snap,
	}
	if p.state == model.PresenterPayment {
		v.PaymentMethod = p.method
		if p.method == model.PaymentPix {
			v.Pix = r.pixCharge(plan, v.Price.Discounted)
		}
	}
	return v
}

func (r *presenterRegistry) pixCharge(plan model.Plan, amount int) *model.PixCharge {
	payload := fmt.Sprintf(
		"00020126580014BR.GOV.BCB.PIX01142023202520520400005303986540%d5802BR5923Pagamento Lead Pilot6009SAO PAULO62070503***63041D14",
		amount,
	)
	return &model.PixCharge{
		Key:         pixKey,
		AmountBRL:   amount,
		Description: "Lead Pilot - Plano " + plan.Name,
		Payload:     payload,
		QRImageURL:  qrServerEndpoint + "?size=200x200&data=" + url.QueryEscape(payload),
	}
}

func subscribeButtonText(plan model.Plan) string {
	if plan.IsZero() {
		return "Assinar Plano Plus"
	}
	return "Assinar Plano " + plan.Name
}
