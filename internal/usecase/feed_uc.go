package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// FeedCache caches rendered feed pages. The redis implementation lives in
// infra; a nil-safe noop is acceptable for tests.
type FeedCache interface {
	GetPage(ctx context.Context, page, pageSize int, cnae string) ([]*model.Lead, bool)
	StorePage(ctx context.Context, page, pageSize int, cnae string, leads []*model.Lead)
}

// FeedPage is one page of prospect companies plus the end-of-data signal:
// fewer than pageSize rows from the store means there is no next page.
type FeedPage struct {
	Leads    []*model.Lead `json:"leads"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

// FeedUseCase serves the prospect feed: pagination, unlocking against
// credits, and favoriting. Gating (who may do what) is decided upstream by
// the UpsellDecider; this use case enforces only the hard preconditions.
type FeedUseCase interface {
	List(ctx context.Context, sess *model.Session, page, pageSize int, cnae string) (*FeedPage, error)
	// Unlock spends one credit and reveals a lead's contact data. Returns
	// domain.ErrNoSession without a session and
	// domain.ErrInsufficientCredits at zero balance.
	Unlock(ctx context.Context, sess *model.Session, leadID string) (*model.Lead, error)
	ToggleFavorite(ctx context.Context, sess *model.Session, leadID string) (bool, error)
	// FavoriteMany favorites each selected lead, returning how many stuck.
	FavoriteMany(ctx context.Context, sess *model.Session, leadIDs []string) (int, error)
}

var _ FeedUseCase = (*feedUC)(nil)

type feedUC struct {
	leads   repository.LeadRepository
	credits repository.CreditRepository
	tx      repository.TransactionManager
	cache   FeedCache
	log     *zerolog.Logger
}

func NewFeedUseCase(
	leads repository.LeadRepository,
	credits repository.CreditRepository,
	tx repository.TransactionManager,
	cache FeedCache,
	logger *zerolog.Logger,
) FeedUseCase {
	l := logger.With().Str("component", "FeedUC").Logger()
	return &feedUC{leads: leads, credits: credits, tx: tx, cache: cache, log: &l}
}

func (f *feedUC) List(ctx context.Context, sess *model.Session, page, pageSize int, cnae string) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	leads, err := f.loadPage(ctx, page, pageSize, cnae)
	if err != nil {
		return nil, err
	}

	// Contact data is stripped unless this viewer unlocked the lead;
	// favorites are the viewer's own.
	unlocked, favorites := f.viewerSets(ctx, sess)
	out := make([]*model.Lead, 0, len(leads))
	for _, l := range leads {
		cp := *l
		if _, ok := unlocked[cp.ID]; ok {
			cp.Unlocked = true
		} else {
			cp.Phone = ""
			cp.Email = ""
		}
		_, cp.Favorite = favorites[cp.ID]
		out = append(out, &cp)
	}

	return &FeedPage{
		Leads:    out,
		Page:     page,
		PageSize: pageSize,
		HasMore:  len(leads) == pageSize,
	}, nil
}

func (f *feedUC) loadPage(ctx context.Context, page, pageSize int, cnae string) ([]*model.Lead, error) {
	if f.cache != nil {
		if leads, ok := f.cache.GetPage(ctx, page, pageSize, cnae); ok {
			return leads, nil
		}
	}
	leads, err := f.leads.ListPage(ctx, repository.NoTX, page, pageSize, repository.LeadFilter{CNAE: cnae})
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.StorePage(ctx, page, pageSize, cnae, leads)
	}
	return leads, nil
}

func (f *feedUC) viewerSets(ctx context.Context, sess *model.Session) (unlocked, favorites map[string]struct{}) {
	unlocked = map[string]struct{}{}
	favorites = map[string]struct{}{}
	if sess.IsZero() {
		return
	}
	ids, err := f.leads.ListUnlocked(ctx, repository.NoTX, sess.UserID)
	if err != nil {
		f.log.Warn().Err(err).Msg("unlocked lookup failed; showing leads locked")
	}
	for _, id := range ids {
		unlocked[id] = struct{}{}
	}
	ids, err = f.leads.ListFavorites(ctx, repository.NoTX, sess.UserID)
	if err != nil {
		f.log.Warn().Err(err).Msg("favorites lookup failed")
	}
	for _, id := range ids {
		favorites[id] = struct{}{}
	}
	return
}

func (f *feedUC) Unlock(ctx context.Context, sess *model.Session, leadID string) (*model.Lead, error) {
	if sess.IsZero() {
		return nil, domain.ErrNoSession
	}
	lead, err := f.leads.FindByID(ctx, repository.NoTX, leadID)
	if err != nil {
		return nil, err
	}

	// Credit consumption and the unlock record move together or not at all.
	err = f.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := f.credits.Consume(ctx, tx, sess.UserID, leadID); err != nil {
			return err
		}
		return f.leads.MarkUnlocked(ctx, tx, sess.UserID, leadID)
	})
	if err != nil {
		return nil, err
	}

	cp := *lead
	cp.Unlocked = true
	return &cp, nil
}

func (f *feedUC) ToggleFavorite(ctx context.Context, sess *model.Session, leadID string) (bool, error) {
	if sess.IsZero() {
		return false, domain.ErrNoSession
	}
	favorites, err := f.leads.ListFavorites(ctx, repository.NoTX, sess.UserID)
	if err != nil {
		return false, err
	}
	isFav := false
	for _, id := range favorites {
		if id == leadID {
			isFav = true
			break
		}
	}
	next := !isFav
	if err := f.leads.SetFavorite(ctx, repository.NoTX, sess.UserID, leadID, next); err != nil {
		return false, err
	}
	return next, nil
}

func (f *feedUC) FavoriteMany(ctx context.Context, sess *model.Session, leadIDs []string) (int, error) {
	if sess.IsZero() {
		return 0, domain.ErrNoSession
	}
	n := 0
	for _, id := range leadIDs {
		if err := f.leads.SetFavorite(ctx, repository.NoTX, sess.UserID, id, true); err != nil {
			f.log.Warn().Err(err).Str("lead_id", id).Msg("bulk favorite skipped")
			continue
		}
		n++
	}
	return n, nil
}
