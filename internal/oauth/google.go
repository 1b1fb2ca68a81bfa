package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-session-auth-service/internal/domain"

	"golang.org/x/oauth2"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides for tests.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// Google exchanges codes as JSON against Google's token endpoint and
// authenticates the profile fetch with a Bearer header.
type Google struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
}

func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultGoogleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultGoogleTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultGoogleUserInfoURL
	}
	return &Google{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client:      httpClient(cfg.HTTPClient),
	}
}

func (g *Google) Name() domain.Provider { return domain.ProviderGoogle }

// AuthCodeURL builds the consent URL; offline access so Google grants a
// refresh token usable by the silent-refresh path.
func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *Google) ExchangeCode(ctx context.Context, code string) (*ProviderToken, error) {
	tok, err := g.conf.Exchange(g.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: google: %v", ErrExchange, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: google: empty access token", ErrExchange)
	}
	return &ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}, nil
}

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google userinfo read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo status %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("google userinfo parse: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google userinfo missing email")
	}
	return &ProviderProfile{Email: info.Email, DisplayName: info.Name}, nil
}

// RefreshAccessToken exercises the refresh-token grant. The refreshed
// access token itself is discarded: the call exists to keep the provider
// side of the federation alive during a silent session refresh.
func (g *Google) RefreshAccessToken(ctx context.Context, refreshToken string) error {
	src := g.conf.TokenSource(g.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	if _, err := src.Token(); err != nil {
		return fmt.Errorf("google token refresh: %w", err)
	}
	return nil
}

func (g *Google) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.client)
}

var (
	_ Provider  = (*Google)(nil)
	_ Refresher = (*Google)(nil)
)
