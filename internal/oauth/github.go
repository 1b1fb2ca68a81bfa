package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go-session-auth-service/internal/domain"
)

const (
	defaultGitHubTokenURL = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL  = "https://api.github.com/user"
)

type GitHubConfig struct {
	ClientID     string
	ClientSecret string

	// Endpoint overrides for tests.
	TokenURL string
	UserURL  string

	HTTPClient *http.Client
}

// GitHub answers the token exchange with a form-encoded body and reports
// exchange failures inside an HTTP 200 response, so the error field has to
// be checked explicitly rather than inferred from the status code.
type GitHub struct {
	clientID     string
	clientSecret string
	tokenURL     string
	userURL      string
	client       *http.Client
}

func NewGitHub(cfg GitHubConfig) *GitHub {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultGitHubTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultGitHubUserURL
	}
	return &GitHub{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		userURL:      cfg.UserURL,
		client:       httpClient(cfg.HTTPClient),
	}
}

func (g *GitHub) Name() domain.Provider { return domain.ProviderGitHub }

func (g *GitHub) ExchangeCode(ctx context.Context, code string) (*ProviderToken, error) {
	params := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"code":          {code},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("github token request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github token read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: github: status %d", ErrExchange, resp.StatusCode)
	}

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("github token parse: %w", err)
	}
	if desc := vals.Get("error_description"); desc != "" {
		return nil, fmt.Errorf("%w: github: %s", ErrExchange, desc)
	}
	if e := vals.Get("error"); e != "" {
		return nil, fmt.Errorf("%w: github: %s", ErrExchange, e)
	}
	accessToken := vals.Get("access_token")
	if accessToken == "" {
		return nil, fmt.Errorf("%w: github: empty access token", ErrExchange)
	}
	return &ProviderToken{
		AccessToken:  accessToken,
		RefreshToken: vals.Get("refresh_token"),
		TokenType:    vals.Get("token_type"),
	}, nil
}

// FetchProfile authenticates with the token as a query parameter, the
// convention the GitHub user endpoint historically used.
func (g *GitHub) FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	u := g.userURL + "?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("github user request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github user fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github user read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user status %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("github user parse: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("github user profile missing email")
	}
	return &ProviderProfile{Email: info.Email, DisplayName: info.Name}, nil
}

var _ Provider = (*GitHub)(nil)
