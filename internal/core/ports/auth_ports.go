package ports

import (
	"context"
)

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type AuthService interface {
	// LoginWithGoogle returns a signed access token for the directory user
	// behind the Google credential, creating the user on first login.
	LoginWithGoogle(ctx context.Context, googleToken string) (string, error)
}
