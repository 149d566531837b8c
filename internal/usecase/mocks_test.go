package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/adapter"
	"leadpilot/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memLeadRepo is a small in-memory implementation used by unit tests.
type memLeadRepo struct {
	mu        sync.RWMutex
	leads     []*model.Lead
	unlocked  map[string]map[string]struct{} // userID -> leadID set
	favorites map[string]map[string]struct{}
	listErr   error // used by tests to simulate store failures
	favErr    error
}

func newMemLeadRepo(leads ...*model.Lead) *memLeadRepo {
	return &memLeadRepo{
		leads:     leads,
		unlocked:  make(map[string]map[string]struct{}),
		favorites: make(map[string]map[string]struct{}),
	}
}

func (m *memLeadRepo) ListPage(ctx context.Context, _ repository.Tx, page, pageSize int, filter repository.LeadFilter) ([]*model.Lead, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*model.Lead
	for _, l := range m.leads {
		if filter.CNAE != "" && l.CNAE != filter.CNAE {
			continue
		}
		if filter.Segment != "" && l.Segment != filter.Segment {
			continue
		}
		if filter.HotOnly && !l.IsHot {
			continue
		}
		matched = append(matched, l)
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]*model.Lead, 0, end-start)
	for _, l := range matched[start:end] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memLeadRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLeadRepo) Save(ctx context.Context, _ repository.Tx, lead *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *lead
	for i, l := range m.leads {
		if l.ID == lead.ID {
			m.leads[i] = &cp
			return nil
		}
	}
	m.leads = append(m.leads, &cp)
	return nil
}

func (m *memLeadRepo) MarkUnlocked(ctx context.Context, _ repository.Tx, userID, leadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlocked[userID] == nil {
		m.unlocked[userID] = make(map[string]struct{})
	}
	m.unlocked[userID][leadID] = struct{}{}
	return nil
}

func (m *memLeadRepo) SetFavorite(ctx context.Context, _ repository.Tx, userID, leadID string, favorite bool) error {
	if m.favErr != nil {
		return m.favErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.favorites[userID] == nil {
		m.favorites[userID] = make(map[string]struct{})
	}
	if favorite {
		m.favorites[userID][leadID] = struct{}{}
	} else {
		delete(m.favorites[userID], leadID)
	}
	return nil
}

func (m *memLeadRepo) ListFavorites(ctx context.Context, _ repository.Tx, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id := range m.favorites[userID] {
		out = append(out, id)
	}
	return out, nil
}

func (m *memLeadRepo) ListUnlocked(ctx context.Context, _ repository.Tx, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id := range m.unlocked[userID] {
		out = append(out, id)
	}
	return out, nil
}

// memCreditRepo keeps balances in a map keyed by userID.
type memCreditRepo struct {
	mu           sync.Mutex
	balances     map[string]int
	remainingErr error
	initErr      error
}

func newMemCreditRepo() *memCreditRepo {
	return &memCreditRepo{balances: make(map[string]int)}
}

func (m *memCreditRepo) Remaining(ctx context.Context, _ repository.Tx, userID string) (int, error) {
	if m.remainingErr != nil {
		return 0, m.remainingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.balances[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return n, nil
}

func (m *memCreditRepo) Consume(ctx context.Context, _ repository.Tx, userID, leadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.balances[userID]
	if !ok || n <= 0 {
		return domain.ErrInsufficientCredits
	}
	m.balances[userID] = n - 1
	return nil
}

func (m *memCreditRepo) Initialize(ctx context.Context, _ repository.Tx, userID, planName string, credits int) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[userID]; ok {
		return nil
	}
	m.balances[userID] = credits
	return nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *memProfileRepo) Upsert(ctx context.Context, _ repository.Tx, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memProfileRepo) FindByUserID(ctx context.Context, _ repository.Tx, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// mockTxManager runs the closure inline with no real transaction.
type mockTxManager struct {
	beginErr error
}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(ctx, repository.NoTX)
}

// mockAuthService records calls and returns canned tokens.
type mockAuthService struct {
	mu         sync.Mutex
	signUps    int
	signIns    int
	signOuts   int
	signUpErr  error
	signInErr  error
	lastUserID string
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password string, attrs adapter.SignUpAttributes) (*adapter.AuthTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	m.signUps++
	m.lastUserID = "user-" + email
	return &adapter.AuthTokens{AccessToken: "at", RefreshToken: "rt", UserID: m.lastUserID, Email: email, ExpiresIn: 3600}, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*adapter.AuthTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	m.signIns++
	return &adapter.AuthTokens{AccessToken: "at", UserID: "user-" + email, Email: email, ExpiresIn: 3600}, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOuts++
	return nil
}

// memLimiter counts hits per key against the given limit; the window is
// ignored because unit tests never span one.
type memLimiter struct {
	mu   sync.Mutex
	hits map[string]int
	err  error
}

func newMemLimiter() *memLimiter { return &memLimiter{hits: make(map[string]int)} }

func (m *memLimiter) Allow(ctx context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.hits[key] <= limit, nil
}

// syncSubmitter runs tasks inline so tests can assert on their effects.
type syncSubmitter struct {
	submitErr error
	ran       int
}

func (s *syncSubmitter) Submit(task func(ctx context.Context) error) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.ran++
	_ = task(context.Background())
	return nil
}

func sessionFor(userID string) *model.Session {
	return &model.Session{UserID: userID, Email: userID + "@example.com"}
}
