package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadpilot/internal/domain/model"
	"leadpilot/internal/infra/logging"
)

// ===== Session/JWT primitives =====

// SessionParser verifies the HS256 access tokens minted by the external auth
// service and attaches the resulting session to the request context. A
// missing or invalid token yields an anonymous request, not an error; the
// gating layer decides what anonymous callers may do.
type SessionParser struct {
	secret []byte
}

func NewSessionParser(secret string) *SessionParser {
	return &SessionParser{secret: []byte(secret)}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type sessionCtxKey struct{}

func (p *SessionParser) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := p.fromRequest(r); sess != nil {
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
			ctx = logging.WithUserID(ctx, sess.UserID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFrom returns the caller's session, or nil for anonymous requests.
func sessionFrom(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(sessionCtxKey{}).(*model.Session); ok {
		return s
	}
	return nil
}

func (p *SessionParser) fromRequest(r *http.Request) *model.Session {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil
	}
	sess, err := p.parse(strings.TrimSpace(hdr[7:]))
	if err != nil {
		return nil
	}
	return sess
}

func (p *SessionParser) parse(tok string) (*model.Session, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return &model.Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: exp,
	}, nil
}
