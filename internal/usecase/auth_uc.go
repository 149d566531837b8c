package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/adapter"
	"leadpilot/internal/domain/ports/repository"
)

const (
	loginRateLimit  = 8
	loginRateWindow = time.Minute
)

// RateLimiter is satisfied by the redis limiter in infra.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Submitter queues fire-and-forget work; satisfied by the worker pool.
type Submitter interface {
	Submit(task func(ctx context.Context) error) error
}

// FieldError is a recoverable validation failure tied to one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// AuthUseCase fronts the external authentication service. Profile and
// credit bootstrapping after signup is fire-and-forget: a failure there is
// logged and never blocks the registration (the auth service already holds
// the account).
type AuthUseCase interface {
	SignUp(ctx context.Context, email, password, fullName, whatsapp string) (*adapter.AuthTokens, error)
	// SignIn authenticates; remoteKey (caller IP) feeds the rate limiter.
	SignIn(ctx context.Context, email, password, remoteKey string) (*adapter.AuthTokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

var _ AuthUseCase = (*authUC)(nil)

type authUC struct {
	svc      adapter.AuthService
	profiles repository.ProfileRepository
	credits  CreditUseCase
	limiter  RateLimiter
	tasks    Submitter
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewAuthUseCase(
	svc adapter.AuthService,
	profiles repository.ProfileRepository,
	credits CreditUseCase,
	limiter RateLimiter,
	tasks Submitter,
	logger *zerolog.Logger,
) AuthUseCase {
	l := logger.With().Str("component", "AuthUC").Logger()
	return &authUC{
		svc:      svc,
		profiles: profiles,
		credits:  credits,
		limiter:  limiter,
		tasks:    tasks,
		validate: validator.New(),
		log:      &l,
	}
}

func (a *authUC) SignUp(ctx context.Context, email, password, fullName, whatsapp string) (*adapter.AuthTokens, error) {
	email = normalizeEmail(email)
	if err := a.validate.Var(email, "required,email"); err != nil {
		return nil, &FieldError{Field: "email", Message: "Por favor insira um email válido"}
	}
	if len(password) < 6 {
		return nil, &FieldError{Field: "password", Message: "A senha deve ter pelo menos 6 caracteres"}
	}
	if digits := digitCount(whatsapp); digits < 10 {
		return nil, &FieldError{Field: "whatsapp", Message: "Informe um número de WhatsApp válido com DDD"}
	}

	tokens, err := a.svc.SignUp(ctx, email, password, adapter.SignUpAttributes{
		FullName: fullName,
		WhatsApp: whatsapp,
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	// Bootstrap profile and free credits off the request path. Rejections
	// are logged and surfaced nowhere; local state stays consistent because
	// both writes are idempotent.
	userID := tokens.UserID
	if err := a.tasks.Submit(func(ctx context.Context) error {
		p, err := model.NewProfile(userID, fullName, whatsapp)
		if err != nil {
			return err
		}
		if err := a.profiles.Upsert(ctx, repository.NoTX, p); err != nil {
			return fmt.Errorf("profile upsert: %w", err)
		}
		return a.credits.Initialize(ctx, userID, "free")
	}); err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("signup bootstrap not queued")
	}

	return tokens, nil
}

func (a *authUC) SignIn(ctx context.Context, email, password, remoteKey string) (*adapter.AuthTokens, error) {
	if a.limiter != nil && remoteKey != "" {
		ok, err := a.limiter.Allow(ctx, "rate_limit:login:"+remoteKey, loginRateLimit, loginRateWindow)
		if err != nil {
			// A broken limiter must not lock everyone out.
			a.log.Warn().Err(err).Msg("login rate limiter unavailable")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	email = normalizeEmail(email)
	if err := a.validate.Var(email, "required,email"); err != nil {
		return nil, &FieldError{Field: "email", Message: "Por favor insira um email válido"}
	}
	tokens, err := a.svc.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return tokens, nil
}

func (a *authUC) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return domain.ErrNoSession
	}
	return a.svc.SignOut(ctx, accessToken)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
