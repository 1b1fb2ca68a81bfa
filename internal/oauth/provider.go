// Package oauth translates provider-specific authorization codes into a
// normalized token and profile shape, so the auth service never sees the
// wire differences between Google and GitHub.
package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-session-auth-service/internal/domain"
)

// ErrExchange marks a failed code-for-token exchange, including provider
// responses that embed an error field in a 200 body.
var ErrExchange = errors.New("oauth code exchange failed")

// ProviderToken is the normalized result of a code exchange. RefreshToken
// is empty when the provider did not grant one.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// ProviderProfile is the subset of provider user info this service needs.
type ProviderProfile struct {
	Email       string
	DisplayName string
}

// Provider is the capability each federated identity provider implements.
type Provider interface {
	Name() domain.Provider
	ExchangeCode(ctx context.Context, code string) (*ProviderToken, error)
	FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error)
}

// Refresher is implemented by providers that support refreshing an access
// token from a stored refresh token (Google).
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) error
}

const defaultHTTPTimeout = 10 * time.Second

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
