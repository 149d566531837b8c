package adapter

import "context"

// SignUpAttributes carries the optional metadata collected at registration.
type SignUpAttributes struct {
	FullName string
	WhatsApp string
}

// AuthTokens is the minimal slice of the external auth service's response
// that this service needs.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresIn    int
}

// AuthService is the hex port for the external authentication/session
// provider. Failures surface as errors with a human-readable message; the
// core only ever gates on "is a session present".
type AuthService interface {
	SignUp(ctx context.Context, email, password string, attrs SignUpAttributes) (*AuthTokens, error)
	SignIn(ctx context.Context, email, password string) (*AuthTokens, error)
	SignOut(ctx context.Context, accessToken string) error
}
