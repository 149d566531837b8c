package sched

import (
	"context"
	"time"

	"leadpilot/internal/infra/metrics"
	"leadpilot/internal/usecase"

	"github.com/rs/zerolog"
)

// PresenterJanitor periodically reaps upsell banners that no client has
// touched within the TTL, the server-side analogue of a component unmount.
type PresenterJanitor struct {
	interval  time.Duration
	ttl       time.Duration
	presenter usecase.UpsellPresenter
	log       *zerolog.Logger
}

func NewPresenterJanitor(interval, ttl time.Duration, presenter usecase.UpsellPresenter, logger *zerolog.Logger) *PresenterJanitor {
	l := logger.With().Str("component", "PresenterJanitor").Logger()
	return &PresenterJanitor{
		interval:  interval,
		ttl:       ttl,
		presenter: presenter,
		log:       &l,
	}
}

func (w *PresenterJanitor) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting presenter janitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping presenter janitor")
			return ctx.Err()
		case <-ticker.C:
			n := w.presenter.CloseIdle(w.ttl)
			metrics.SetPresentersOpen(w.presenter.OpenCount())
			if n > 0 {
				w.log.Info().Int("count", n).Msg("idle banners reaped")
			}
		}
	}
}
