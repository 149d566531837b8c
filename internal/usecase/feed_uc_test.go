package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
)

func seedLeads(n int) []*model.Lead {
	out := make([]*model.Lead, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.Lead{
			ID:          fmt.Sprintf("lead-%02d", i),
			CompanyName: fmt.Sprintf("Empresa %02d", i),
			Location:    "São Paulo, SP",
			CNAE:        "6201-5",
			Phone:       "17999990000",
			Email:       "contato@empresa.com.br",
		})
	}
	return out
}

func newTestFeed(leads *memLeadRepo, credits *memCreditRepo, cache FeedCache) FeedUseCase {
	return NewFeedUseCase(leads, credits, &mockTxManager{}, cache, testLogger())
}

func TestFeed_ListStripsContactsForAnonymous(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newTestFeed(newMemLeadRepo(seedLeads(3)...), newMemCreditRepo(), nil)

	page, err := uc.List(ctx, nil, 1, 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Leads) != 3 || page.HasMore {
		t.Fatalf("page: %+v", page)
	}
	for _, l := range page.Leads {
		if l.Phone != "" || l.Email != "" || l.Unlocked {
			t.Fatalf("locked lead leaked contacts: %+v", l)
		}
	}
}

func TestFeed_ListPaginationSignalsEndOfData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newTestFeed(newMemLeadRepo(seedLeads(25)...), newMemCreditRepo(), nil)

	// A full page means there may be more.
	page, err := uc.List(ctx, nil, 1, 0, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.PageSize != 10 || len(page.Leads) != 10 || !page.HasMore {
		t.Fatalf("page 1: %+v", page)
	}

	// A short page is the end of the feed.
	page, err = uc.List(ctx, nil, 3, 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Leads) != 5 || page.HasMore {
		t.Fatalf("page 3: %+v", page)
	}

	// Out-of-range pages are empty, not errors.
	page, err = uc.List(ctx, nil, 9, 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Leads) != 0 || page.HasMore {
		t.Fatalf("page 9: %+v", page)
	}
}

func TestFeed_ListMarksViewerState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemLeadRepo(seedLeads(3)...)
	uc := newTestFeed(repo, newMemCreditRepo(), nil)
	sess := sessionFor("u1")

	_ = repo.MarkUnlocked(ctx, nil, "u1", "lead-00")
	_ = repo.SetFavorite(ctx, nil, "u1", "lead-01", true)

	page, err := uc.List(ctx, sess, 1, 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byID := map[string]*model.Lead{}
	for _, l := range page.Leads {
		byID[l.ID] = l
	}
	if l := byID["lead-00"]; !l.Unlocked || l.Phone == "" {
		t.Fatalf("unlocked lead must keep contacts: %+v", l)
	}
	if l := byID["lead-01"]; !l.Favorite || l.Unlocked || l.Phone != "" {
		t.Fatalf("favorite lead: %+v", l)
	}
	if l := byID["lead-02"]; l.Favorite || l.Unlocked {
		t.Fatalf("untouched lead: %+v", l)
	}
}

func TestFeed_Unlock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemLeadRepo(seedLeads(2)...)
	credits := newMemCreditRepo()
	credits.balances["u1"] = 2
	uc := newTestFeed(repo, credits, nil)
	sess := sessionFor("u1")

	lead, err := uc.Unlock(ctx, sess, "lead-00")
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !lead.Unlocked || lead.Phone == "" {
		t.Fatalf("unlocked lead: %+v", lead)
	}
	if n, _ := credits.Remaining(ctx, nil, "u1"); n != 1 {
		t.Fatalf("credit not consumed: %d", n)
	}
	ids, _ := repo.ListUnlocked(ctx, nil, "u1")
	if len(ids) != 1 || ids[0] != "lead-00" {
		t.Fatalf("unlock not recorded: %v", ids)
	}
}

func TestFeed_UnlockPreconditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemLeadRepo(seedLeads(1)...)
	credits := newMemCreditRepo()
	uc := newTestFeed(repo, credits, nil)

	if _, err := uc.Unlock(ctx, nil, "lead-00"); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("anonymous unlock: %v", err)
	}
	if _, err := uc.Unlock(ctx, sessionFor("u1"), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown lead: %v", err)
	}
	// No credit row means a zero balance as far as consumption goes.
	if _, err := uc.Unlock(ctx, sessionFor("u1"), "lead-00"); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("zero balance unlock: %v", err)
	}
	// The failed transaction must not have recorded the unlock.
	if ids, _ := repo.ListUnlocked(ctx, nil, "u1"); len(ids) != 0 {
		t.Fatalf("failed unlock leaked state: %v", ids)
	}
}

func TestFeed_ToggleFavorite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newTestFeed(newMemLeadRepo(seedLeads(1)...), newMemCreditRepo(), nil)
	sess := sessionFor("u1")

	on, err := uc.ToggleFavorite(ctx, sess, "lead-00")
	if err != nil || !on {
		t.Fatalf("first toggle: %v %v", on, err)
	}
	on, err = uc.ToggleFavorite(ctx, sess, "lead-00")
	if err != nil || on {
		t.Fatalf("second toggle: %v %v", on, err)
	}
	if _, err := uc.ToggleFavorite(ctx, nil, "lead-00"); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("anonymous toggle: %v", err)
	}
}

func TestFeed_FavoriteMany(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemLeadRepo(seedLeads(3)...)
	uc := newTestFeed(repo, newMemCreditRepo(), nil)

	n, err := uc.FavoriteMany(ctx, sessionFor("u1"), []string{"lead-00", "lead-01", "lead-02"})
	if err != nil || n != 3 {
		t.Fatalf("FavoriteMany: %d %v", n, err)
	}
	if ids, _ := repo.ListFavorites(ctx, nil, "u1"); len(ids) != 3 {
		t.Fatalf("favorites: %v", ids)
	}
	if _, err := uc.FavoriteMany(ctx, nil, []string{"lead-00"}); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("anonymous bulk: %v", err)
	}
}

// memFeedCache is a trivial page cache for testing the read-through path.
type memFeedCache struct {
	mu     sync.Mutex
	pages  map[string][]*model.Lead
	hits   int
	stores int
}

func newMemFeedCache() *memFeedCache { return &memFeedCache{pages: make(map[string][]*model.Lead)} }

func (m *memFeedCache) key(page, pageSize int, cnae string) string {
	return fmt.Sprintf("%d:%d:%s", page, pageSize, cnae)
}

func (m *memFeedCache) GetPage(_ context.Context, page, pageSize int, cnae string) ([]*model.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	leads, ok := m.pages[m.key(page, pageSize, cnae)]
	if ok {
		m.hits++
	}
	return leads, ok
}

func (m *memFeedCache) StorePage(_ context.Context, page, pageSize int, cnae string, leads []*model.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	m.pages[m.key(page, pageSize, cnae)] = leads
}

func TestFeed_ListReadsThroughCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemLeadRepo(seedLeads(5)...)
	cache := newMemFeedCache()
	uc := newTestFeed(repo, newMemCreditRepo(), cache)

	if _, err := uc.List(ctx, nil, 1, 10, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if cache.stores != 1 || cache.hits != 0 {
		t.Fatalf("first read must miss and store: %+v", cache)
	}

	// Second read is served from cache even when the store breaks.
	repo.listErr = errors.New("pg down")
	page, err := uc.List(ctx, nil, 1, 10, "")
	if err != nil {
		t.Fatalf("cached List: %v", err)
	}
	if cache.hits != 1 || len(page.Leads) != 5 {
		t.Fatalf("cache not used: hits=%d leads=%d", cache.hits, len(page.Leads))
	}
}
