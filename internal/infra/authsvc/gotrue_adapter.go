package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadpilot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AuthService = (*GoTrueAdapter)(nil)

// GoTrueAdapter implements adapter.AuthService against a GoTrue-compatible
// authentication service. Endpoints used:
//
//	POST /signup                         email+password registration
//	POST /token?grant_type=password      email+password login
//	POST /logout                         session revocation
//
// The service mints HS256 access tokens; this process only verifies them
// (see web.SessionParser) and never stores passwords.
type GoTrueAdapter struct {
	base   string
	apiKey string
	client *http.Client
}

func NewGoTrueAdapter(base, apiKey string, timeout time.Duration) (*GoTrueAdapter, error) {
	if base == "" {
		return nil, errors.New("auth base url empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoTrueAdapter{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Message string `json:"msg"`
	Error   string `json:"error_description"`
}

func (g *GoTrueAdapter) SignUp(ctx context.Context, email, password string, attrs adapter.SignUpAttributes) (*adapter.AuthTokens, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Data     struct {
			FullName string `json:"full_name,omitempty"`
			WhatsApp string `json:"whatsapp,omitempty"`
		} `json:"data"`
	}{Email: email, Password: password}
	body.Data.FullName = attrs.FullName
	body.Data.WhatsApp = attrs.WhatsApp

	return g.post(ctx, "/signup", body)
}

func (g *GoTrueAdapter) SignIn(ctx context.Context, email, password string) (*adapter.AuthTokens, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	return g.post(ctx, "/token?grant_type=password", body)
}

func (g *GoTrueAdapter) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/logout", nil)
	if err != nil {
		return err
	}
	g.headers(req)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("auth logout http %d", resp.StatusCode)
	}
	return nil
}

func (g *GoTrueAdapter) post(ctx context.Context, path string, body interface{}) (*adapter.AuthTokens, error) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	g.headers(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil {
			if e.Message != "" {
				return nil, errors.New(e.Message)
			}
			if e.Error != "" {
				return nil, errors.New(e.Error)
			}
		}
		return nil, fmt.Errorf("auth http %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("auth response: %w", err)
	}
	return &adapter.AuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		UserID:       tok.User.ID,
		Email:        tok.User.Email,
		ExpiresIn:    tok.ExpiresIn,
	}, nil
}

func (g *GoTrueAdapter) headers(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}
}
