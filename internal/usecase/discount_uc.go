package usecase

import (
	"sync"

	"leadpilot/internal/domain/model"

	"github.com/rs/zerolog"
)

// DiscountClock owns the process-wide discount offer and its decay rule.
// It is an explicitly constructed, injected object with a single tick owner
// (the presenter registry) and any number of observers; there is no
// package-level mutable state.
type DiscountClock interface {
	// Activate enables the countdown. Idempotent.
	Activate()
	// Tick advances the clock by one second. While the countdown is above
	// zero it decrements it; at zero it applies the decay rule: the discount
	// drops one point (floored at zero, never recovering) the coupon code is
	// rederived, and the countdown resets to the full window. Inactive clocks
	// ignore ticks.
	Tick()
	// Snapshot returns a consistent copy of the current state.
	Snapshot() model.DiscountState
	// Subscribe registers an observer invoked after every state change with
	// the post-change snapshot. The returned func unsubscribes.
	Subscribe(fn func(model.DiscountState)) func()
}

var _ DiscountClock = (*discountClock)(nil)

type discountClock struct {
	mu        sync.Mutex
	state     model.DiscountState
	observers map[int]func(model.DiscountState)
	nextObs   int
	log       *zerolog.Logger
}

// NewDiscountClock constructs a clock with the launch defaults: 20% off,
// a 5-minute window, timer inactive until the first banner shows.
func NewDiscountClock(logger *zerolog.Logger) DiscountClock {
	l := logger.With().Str("component", "DiscountClock").Logger()
	return &discountClock{
		state:     model.NewDiscountState(),
		observers: make(map[int]func(model.DiscountState)),
		log:       &l,
	}
}

func (c *discountClock) Activate() {
	c.mu.Lock()
	if c.state.TimerActive {
		c.mu.Unlock()
		return
	}
	c.state.TimerActive = true
	snap := c.state
	obs := c.observerList()
	c.mu.Unlock()

	c.notify(snap, obs)
}

func (c *discountClock) Tick() {
	c.mu.Lock()
	if !c.state.TimerActive {
		c.mu.Unlock()
		return
	}
	switch {
	case c.state.TimeRemaining > 0:
		c.state.TimeRemaining--
	case c.state.DiscountPercent > 0:
		// Countdown hit zero: decay one point and restart the window.
		// Percent and coupon change under the same lock so observers never
		// see them disagree.
		c.state.DiscountPercent--
		c.state.CouponCode = model.CouponFor(c.state.DiscountPercent)
		c.state.TimeRemaining = model.DiscountWindowSeconds
		c.log.Debug().
			Int("discount_percent", c.state.DiscountPercent).
			Str("coupon", c.state.CouponCode).
			Msg("discount decayed")
	default:
		// Fully decayed: the floor is permanent.
		c.mu.Unlock()
		return
	}
	snap := c.state
	obs := c.observerList()
	c.mu.Unlock()

	c.notify(snap, obs)
}

func (c *discountClock) Snapshot() model.DiscountState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *discountClock) Subscribe(fn func(model.DiscountState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// observerList must be called with the lock held.
func (c *discountClock) observerList() []func(model.DiscountState) {
	out := make([]func(model.DiscountState), 0, len(c.observers))
	for _, fn := range c.observers {
		out = append(out, fn)
	}
	return out
}

// notify runs outside the lock so observers may call back into the clock.
func (c *discountClock) notify(snap model.DiscountState, obs []func(model.DiscountState)) {
	for _, fn := range obs {
		fn(snap)
	}
}
