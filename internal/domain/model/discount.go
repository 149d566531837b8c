package model

import "fmt"

const (
	// DiscountStartPercent is the launch discount every process starts with.
	DiscountStartPercent = 20
	// DiscountWindowSeconds is the countdown window before the discount decays.
	DiscountWindowSeconds = 5 * 60
	// CouponNone is the coupon shown once the discount has fully decayed.
	CouponNone = "SEMPROMO"
)

// DiscountState is a snapshot of the process-wide discount offer.
// CouponCode is always derived from DiscountPercent; the two are never
// mutated independently.
type DiscountState struct {
	DiscountPercent int    `json:"discount_percent"`
	TimeRemaining   int    `json:"time_remaining_seconds"`
	CouponCode      string `json:"coupon_code"`
	TimerActive     bool   `json:"timer_active"`
}

// NewDiscountState returns the defaults every process starts with.
func NewDiscountState() DiscountState {
	return DiscountState{
		DiscountPercent: DiscountStartPercent,
		TimeRemaining:   DiscountWindowSeconds,
		CouponCode:      CouponFor(DiscountStartPercent),
	}
}

// CouponFor derives the coupon code for a discount percentage.
func CouponFor(percent int) string {
	if percent <= 0 {
		return CouponNone
	}
	return fmt.Sprintf("PROMO%d", percent)
}
