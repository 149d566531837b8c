package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
)

func newTestPresenter() (UpsellPresenter, DiscountClock) {
	clock := NewDiscountClock(testLogger())
	return NewUpsellPresenter(clock, NewPlanCatalog(), testLogger()), clock
}

func offerRequest(tier model.PlanTier) *model.UpsellRequest {
	return &model.UpsellRequest{
		FeatureID:   "advanced-search",
		Title:       "Busca Avançada Premium",
		Description: "Desbloqueie a busca avançada para encontrar leads específicos para seu negócio.",
		FeatureType: model.FeatureSearch,
		PlanTier:    tier,
	}
}

func TestPresenter_OpenStartsInOffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, clock := newTestPresenter()

	v, err := p.Open(ctx, offerRequest(model.PlanPlus))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v.State != model.PresenterOffer || v.ID == "" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Price.Original != 119 || v.Price.Discounted != 95 {
		t.Fatalf("launch price: %+v", v.Price)
	}
	if v.ButtonText != "Assinar Plano Plus" {
		t.Fatalf("button text: %q", v.ButtonText)
	}
	if !clock.Snapshot().TimerActive {
		t.Fatalf("opening a banner must activate the countdown")
	}
	if p.OpenCount() != 1 {
		t.Fatalf("OpenCount = %d", p.OpenCount())
	}
}

func TestPresenter_OpenRejectsEmptyOffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	if _, err := p.Open(ctx, nil); err != domain.ErrInvalidArgument {
		t.Fatalf("nil offer: %v", err)
	}
	if _, err := p.Open(ctx, &model.UpsellRequest{}); err != domain.ErrInvalidArgument {
		t.Fatalf("empty offer: %v", err)
	}
}

func TestPresenter_UpgradeFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	v, err := p.Open(ctx, offerRequest(model.PlanPro))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := v.ID

	v, err = p.ChooseUpgrade(ctx, id)
	if err != nil {
		t.Fatalf("ChooseUpgrade: %v", err)
	}
	if v.State != model.PresenterPayment || v.PaymentMethod != model.PaymentCredit {
		t.Fatalf("payment defaults to card: %+v", v)
	}

	// Double upgrade is an invalid transition.
	if _, err = p.ChooseUpgrade(ctx, id); err != domain.ErrInvalidTransition {
		t.Fatalf("second upgrade: %v", err)
	}

	v, err = p.Back(ctx, id)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if v.State != model.PresenterOffer || v.PaymentMethod != "" {
		t.Fatalf("back must return to offer: %+v", v)
	}
}

func TestPresenter_LoginOfferHasNoUpgrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	req := offerRequest(model.PlanPlus)
	req.ShowLogin = true
	v, err := p.Open(ctx, req)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := p.ChooseUpgrade(ctx, v.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("login-framed offers have no subscribe action, got %v", err)
	}
}

func TestPresenter_PixFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	v, _ := p.Open(ctx, offerRequest(model.PlanPlus))
	id := v.ID
	if _, err := p.ChooseUpgrade(ctx, id); err != nil {
		t.Fatalf("ChooseUpgrade: %v", err)
	}

	v, err := p.SetPaymentMethod(ctx, id, model.PaymentPix)
	if err != nil {
		t.Fatalf("SetPaymentMethod: %v", err)
	}
	if v.Pix == nil {
		t.Fatalf("pix view must carry the charge")
	}
	if v.Pix.Key != "17991610665" || v.Pix.AmountBRL != v.Price.Discounted {
		t.Fatalf("pix charge: %+v", v.Pix)
	}
	if !strings.HasPrefix(v.Pix.Payload, "00020126580014BR.GOV.BCB.PIX") {
		t.Fatalf("payload is not a BR code: %q", v.Pix.Payload)
	}
	if !strings.Contains(v.Pix.QRImageURL, "api.qrserver.com") {
		t.Fatalf("qr url: %q", v.Pix.QRImageURL)
	}

	key, msg, err := p.CopyPixKey(ctx, id)
	if err != nil {
		t.Fatalf("CopyPixKey: %v", err)
	}
	if key != "17991610665" || msg != "Chave PIX copiada!" {
		t.Fatalf("CopyPixKey = %q %q", key, msg)
	}

	// Copying the key while on the card form is an invalid transition.
	if _, err := p.SetPaymentMethod(ctx, id, model.PaymentCredit); err != nil {
		t.Fatalf("SetPaymentMethod(credit): %v", err)
	}
	if _, _, err := p.CopyPixKey(ctx, id); err != domain.ErrInvalidTransition {
		t.Fatalf("CopyPixKey on card form: %v", err)
	}
}

func TestPresenter_SubmitCardAlwaysDeclines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	v, _ := p.Open(ctx, offerRequest(model.PlanUltra))
	id := v.ID
	if _, err := p.ChooseUpgrade(ctx, id); err != nil {
		t.Fatalf("ChooseUpgrade: %v", err)
	}

	res, err := p.SubmitCard(ctx, id, model.CardDetails{
		Number: "4111 1111 1111 1111",
		Name:   "Maria Silva",
		Expiry: "12/26",
		CVV:    "123",
	})
	if err != nil {
		t.Fatalf("SubmitCard: %v", err)
	}
	if !res.Declined {
		t.Fatalf("card submissions never succeed")
	}
	if res.Message != "Ocorreu um erro ao processar o pagamento" {
		t.Fatalf("message: %q", res.Message)
	}
	if !strings.Contains(res.SupportURL, "api.whatsapp.com") {
		t.Fatalf("support url: %q", res.SupportURL)
	}

	// Submission terminates the banner.
	if _, err := p.Get(ctx, id); err != domain.ErrNotFound {
		t.Fatalf("banner must be closed after submission, got %v", err)
	}
	if p.OpenCount() != 0 {
		t.Fatalf("OpenCount = %d", p.OpenCount())
	}
}

func TestPresenter_SwitchToPlusPlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	v, _ := p.Open(ctx, offerRequest(model.PlanPro))
	v, err := p.SwitchToPlusPlan(ctx, v.ID)
	if err != nil {
		t.Fatalf("SwitchToPlusPlan: %v", err)
	}
	if v.State != model.PresenterOffer {
		t.Fatalf("downsell stays on the offer screen: %+v", v)
	}
	if v.Offer.PlanTier != model.PlanPlus || v.Offer.Title != "Plano Plus - Contatos Ilimitados" {
		t.Fatalf("downsell offer: %+v", v.Offer)
	}
	if v.Price.Original != 119 {
		t.Fatalf("downsell reprices to plus: %+v", v.Price)
	}

	// A plus offer has nowhere to switch down to.
	v2, _ := p.Open(ctx, offerRequest(model.PlanPlus))
	if _, err := p.SwitchToPlusPlan(ctx, v2.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("plus offer downsell: %v", err)
	}
}

func TestPresenter_CloseAndIdleReap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	v, _ := p.Open(ctx, offerRequest(model.PlanPlus))
	if err := p.Close(ctx, v.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(ctx, v.ID); err != domain.ErrNotFound {
		t.Fatalf("double close: %v", err)
	}

	p.Open(ctx, offerRequest(model.PlanPlus))
	p.Open(ctx, offerRequest(model.PlanPro))
	time.Sleep(10 * time.Millisecond)
	if n := p.CloseIdle(time.Millisecond); n != 2 {
		t.Fatalf("CloseIdle reaped %d", n)
	}
	if p.OpenCount() != 0 {
		t.Fatalf("OpenCount = %d", p.OpenCount())
	}
}

func TestPresenter_RunTicksOnlyWhileMounted(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, clock := newTestPresenter()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// No presenter mounted: the countdown must hold still even after the
	// clock is activated out of band.
	clock.Activate()
	time.Sleep(1200 * time.Millisecond)
	if got := clock.Snapshot().TimeRemaining; got != 300 {
		t.Fatalf("clock ticked with no banner mounted: %d", got)
	}

	v, _ := p.Open(ctx, offerRequest(model.PlanPlus))
	time.Sleep(2500 * time.Millisecond)
	if got := clock.Snapshot().TimeRemaining; got >= 300 {
		t.Fatalf("clock must tick while a banner is mounted: %d", got)
	}
	_ = p.Close(ctx, v.ID)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run: %v", err)
	}
}

func TestPresenter_GetUnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestPresenter()

	if _, err := p.Get(ctx, "nope"); err != domain.ErrNotFound {
		t.Fatalf("Get(unknown): %v", err)
	}
}
