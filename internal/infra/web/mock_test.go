package web

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/adapter"
	"leadpilot/internal/domain/ports/repository"
	"leadpilot/internal/infra/cnae"
	"leadpilot/internal/usecase"
)

const testJWTSecret = "test-secret"

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mintToken issues an HS256 access token the way the auth service would.
func mintToken(userID, email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, struct {
		Email string `json:"email"`
		jwt.RegisteredClaims
	}{email, claims})
	signed, _ := tok.SignedString([]byte(testJWTSecret))
	return signed
}

type fakeLeadRepo struct {
	mu        sync.RWMutex
	leads     []*model.Lead
	unlocked  map[string]map[string]struct{}
	favorites map[string]map[string]struct{}
}

func newFakeLeadRepo(n int) *fakeLeadRepo {
	r := &fakeLeadRepo{
		unlocked:  make(map[string]map[string]struct{}),
		favorites: make(map[string]map[string]struct{}),
	}
	for i := 0; i < n; i++ {
		r.leads = append(r.leads, &model.Lead{
			ID:          fmt.Sprintf("lead-%02d", i),
			CompanyName: fmt.Sprintf("Empresa %02d", i),
			Location:    "São Paulo, SP",
			CNAE:        "6201-5",
			Phone:       "17999990000",
			Email:       "contato@empresa.com.br",
		})
	}
	return r
}

func (r *fakeLeadRepo) ListPage(_ context.Context, _ repository.Tx, page, pageSize int, _ repository.LeadFilter) ([]*model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := (page - 1) * pageSize
	if start >= len(r.leads) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(r.leads) {
		end = len(r.leads)
	}
	out := make([]*model.Lead, 0, end-start)
	for _, l := range r.leads[start:end] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeLeadRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeLeadRepo) Save(_ context.Context, _ repository.Tx, lead *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *lead
	r.leads = append(r.leads, &cp)
	return nil
}

func (r *fakeLeadRepo) MarkUnlocked(_ context.Context, _ repository.Tx, userID, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unlocked[userID] == nil {
		r.unlocked[userID] = make(map[string]struct{})
	}
	r.unlocked[userID][leadID] = struct{}{}
	return nil
}

func (r *fakeLeadRepo) SetFavorite(_ context.Context, _ repository.Tx, userID, leadID string, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.favorites[userID] == nil {
		r.favorites[userID] = make(map[string]struct{})
	}
	if favorite {
		r.favorites[userID][leadID] = struct{}{}
	} else {
		delete(r.favorites[userID], leadID)
	}
	return nil
}

func (r *fakeLeadRepo) ListFavorites(_ context.Context, _ repository.Tx, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id := range r.favorites[userID] {
		out = append(out, id)
	}
	return out, nil
}

func (r *fakeLeadRepo) ListUnlocked(_ context.Context, _ repository.Tx, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id := range r.unlocked[userID] {
		out = append(out, id)
	}
	return out, nil
}

type fakeCreditRepo struct {
	mu       sync.Mutex
	balances map[string]int
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{balances: make(map[string]int)}
}

func (r *fakeCreditRepo) Remaining(_ context.Context, _ repository.Tx, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.balances[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return n, nil
}

func (r *fakeCreditRepo) Consume(_ context.Context, _ repository.Tx, userID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.balances[userID]
	if !ok || n <= 0 {
		return domain.ErrInsufficientCredits
	}
	r.balances[userID] = n - 1
	return nil
}

func (r *fakeCreditRepo) Initialize(_ context.Context, _ repository.Tx, userID, _ string, credits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.balances[userID]; !ok {
		r.balances[userID] = credits
	}
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (r *fakeProfileRepo) Upsert(_ context.Context, _ repository.Tx, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) FindByUserID(_ context.Context, _ repository.Tx, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type fakeAuthService struct{}

func (fakeAuthService) SignUp(_ context.Context, email, _ string, _ adapter.SignUpAttributes) (*adapter.AuthTokens, error) {
	return &adapter.AuthTokens{AccessToken: mintToken("user-1", email), UserID: "user-1", Email: email, ExpiresIn: 3600}, nil
}

func (fakeAuthService) SignIn(_ context.Context, email, _ string) (*adapter.AuthTokens, error) {
	return &adapter.AuthTokens{AccessToken: mintToken("user-1", email), UserID: "user-1", Email: email, ExpiresIn: 3600}, nil
}

func (fakeAuthService) SignOut(context.Context, string) error { return nil }

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

type testEnv struct {
	server  *httptest.Server
	leads   *fakeLeadRepo
	credits *fakeCreditRepo
	clock   usecase.DiscountClock
}

func newTestEnv() *testEnv {
	log := testLogger()
	leads := newFakeLeadRepo(12)
	credits := newFakeCreditRepo()
	profiles := newFakeProfileRepo()

	clock := usecase.NewDiscountClock(log)
	catalog := usecase.NewPlanCatalog()
	decider := usecase.NewUpsellDecider(clock, nil, log)
	presenter := usecase.NewUpsellPresenter(clock, catalog, log)
	creditUC := usecase.NewCreditUseCase(credits, log)
	feedUC := usecase.NewFeedUseCase(leads, credits, fakeTxManager{}, nil, log)
	authUC := usecase.NewAuthUseCase(fakeAuthService{}, profiles, creditUC, nil, inlineSubmitter{}, log)
	cnaeUC := usecase.NewCNAEUseCase(cnae.NewStaticDirectory())

	srv := NewServer(authUC, feedUC, creditUC, cnaeUC, catalog, decider, presenter, clock,
		NewSessionParser(testJWTSecret), log)

	return &testEnv{
		server:  httptest.NewServer(srv.Router()),
		leads:   leads,
		credits: credits,
		clock:   clock,
	}
}

func (e *testEnv) close() { e.server.Close() }
