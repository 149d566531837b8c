package model

import "strings"

// CardDetails is the transient credit-card form of an open payment view.
// It exists only for display formatting and the unconditional decline path;
// it is never transmitted anywhere and is discarded when the banner closes.
type CardDetails struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// Normalize applies the display-only masking rules: card number grouped in
// blocks of four (max 19 chars), expiry as MM/AA (max 5), CVV 3-4 digits.
func (c CardDetails) Normalize() CardDetails {
	c.Number = formatCardNumber(c.Number)
	c.Expiry = formatExpiry(c.Expiry)
	c.CVV = truncate(digitsOnly(c.CVV), 4)
	c.Name = strings.TrimSpace(c.Name)
	return c
}

// Masked renders the card number safe for logs: last four digits only.
func (c CardDetails) Masked() string {
	d := digitsOnly(c.Number)
	if len(d) <= 4 {
		return "****"
	}
	return "**** " + d[len(d)-4:]
}

func formatCardNumber(s string) string {
	d := digitsOnly(s)
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return truncate(b.String(), 19)
}

func formatExpiry(s string) string {
	d := digitsOnly(s)
	if len(d) > 2 {
		d = d[:2] + "/" + d[2:]
	}
	return truncate(d, 5)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// PixCharge is the display-only PIX view: a fixed receiving key, the
// discounted amount, and a templated BR-Code payload rendered to a QR image
// by an external endpoint. No payment protocol is implemented here.
type PixCharge struct {
	Key         string `json:"key"`
	AmountBRL   int    `json:"amount_brl"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
	QRImageURL  string `json:"qr_image_url"`
}
