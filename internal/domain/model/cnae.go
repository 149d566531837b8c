package model

// CNAE is a Brazilian industry classification entry used by the feed filter.
type CNAE struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
