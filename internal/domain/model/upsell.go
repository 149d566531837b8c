package model

// FeatureType selects the visual treatment of an upsell banner. It carries
// no behavior beyond icon choice on the client.
type FeatureType string

const (
	FeatureSearch         FeatureType = "search"
	FeatureFilter         FeatureType = "filter"
	FeatureRecommendation FeatureType = "recommendation"
	FeatureAction         FeatureType = "action"
	FeatureNavigation     FeatureType = "navigation"
)

// UpsellRequest is the transient command object handed to the presenter.
// One instance per triggered banner; a new request supersedes the old one.
type UpsellRequest struct {
	FeatureID          string      `json:"feature_id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	FeatureType        FeatureType `json:"feature_type"`
	PlanTier           PlanTier    `json:"plan_type"`
	ShowLogin          bool        `json:"show_login"`
	ShowPaymentOptions bool        `json:"show_payment_options"`
}

// PresenterState is the banner state machine position.
type PresenterState string

const (
	PresenterHidden  PresenterState = "hidden"
	PresenterOffer   PresenterState = "offer"
	PresenterPayment PresenterState = "payment"
)

// PaymentMethod is the sub-state within PresenterPayment.
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentPix    PaymentMethod = "pix"
)
