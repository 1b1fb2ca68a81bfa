package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/oauth"
	"go-session-auth-service/internal/observability"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/security"
)

// refreshWindow is how close to expiry a session must be before a refresh
// actually writes; earlier refreshes return the current bundle untouched.
const refreshWindow = 24 * time.Hour

// SessionBundle is what a client needs to hold a session: the public uuid
// (CSRF nonce), the secret bearer token and the expiry.
type SessionBundle struct {
	UUID    string    `json:"uuid"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Principal is the resolved identity attached to an authorized request.
type Principal struct {
	SessionUUID string
	User        repository.SessionUser
}

// AuthService owns the session lifecycle policies: login, OAuth login,
// silent refresh, logout and per-request authorization.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	google   oauth.Provider
	github   oauth.Provider
	ttlDays  int
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, google, github oauth.Provider, ttlDays int, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		google:   google,
		github:   github,
		ttlDays:  ttlDays,
		logger:   logger,
		now:      time.Now,
	}
}

// Login verifies the password credential and starts a session. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionBundle, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			observability.RecordAuthLogin(ctx, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin(ctx, "store_error")
		return nil, err
	}
	if user.PasswordHash == nil || !security.VerifyPassword(password, *user.PasswordHash) {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(user.ID, nil, s.ttlDays)
	if err != nil {
		observability.RecordAuthLogin(ctx, "store_error")
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return bundle(session), nil
}

// OAuthLogin turns an authorization code into a local session: exchange,
// profile fetch, find-or-create user, token upsert, provider-tagged session.
func (s *AuthService) OAuthLogin(ctx context.Context, provider domain.Provider, code string) (*SessionBundle, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}

	tok, err := p.ExchangeCode(ctx, code)
	if err != nil {
		observability.RecordAuthOAuth(ctx, string(provider), "exchange_error")
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	profile, err := p.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		observability.RecordAuthOAuth(ctx, string(provider), "profile_error")
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	user, err := s.findOrCreateByEmail(profile)
	if err != nil {
		observability.RecordAuthOAuth(ctx, string(provider), "store_error")
		return nil, err
	}

	if stored := storableToken(provider, tok); stored != "" {
		if _, err := s.sessions.UpsertOAuthToken(user.ID, provider, stored); err != nil {
			observability.RecordAuthOAuth(ctx, string(provider), "store_error")
			return nil, err
		}
	}

	session, err := s.sessions.Create(user.ID, &provider, s.ttlDays)
	if err != nil {
		observability.RecordAuthOAuth(ctx, string(provider), "store_error")
		return nil, err
	}
	observability.RecordAuthOAuth(ctx, string(provider), "success")
	return bundle(session), nil
}

// Refresh extends a session that is close to expiry. Far from expiry it is
// a read-only no-op returning the bundle unchanged. For Google-backed
// sessions the provider-side refresh is best effort: its failure never
// aborts the local extension.
func (s *AuthService) Refresh(ctx context.Context, currentToken string) (*SessionBundle, error) {
	view, err := s.sessions.FindActiveByToken(currentToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthRefresh(ctx, "invalid_session")
			return nil, ErrSessionInvalid
		}
		observability.RecordAuthRefresh(ctx, "store_error")
		return nil, err
	}
	now := s.now()
	if !now.Before(view.ExpiresAt) {
		observability.RecordAuthRefresh(ctx, "invalid_session")
		return nil, ErrSessionInvalid
	}
	if view.ExpiresAt.Sub(now) > refreshWindow {
		observability.RecordAuthRefresh(ctx, "noop")
		return &SessionBundle{UUID: view.UUID, Token: view.Token, Expires: view.ExpiresAt}, nil
	}

	if view.OAuthProvider != nil && *view.OAuthProvider == domain.ProviderGoogle && view.OAuthToken != "" {
		if refresher, ok := s.google.(oauth.Refresher); ok {
			if err := refresher.RefreshAccessToken(ctx, view.OAuthToken); err != nil {
				s.logger.WarnContext(ctx, "provider token refresh failed, extending session anyway",
					"provider", string(domain.ProviderGoogle), "error", err.Error())
			}
		}
	}

	session, err := s.sessions.ExtendExpiry(view.UUID, s.ttlDays)
	if err != nil {
		// A revoke that lands between the read and this write makes the
		// conditional update miss; revocation wins.
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthRefresh(ctx, "invalid_session")
			return nil, ErrSessionInvalid
		}
		observability.RecordAuthRefresh(ctx, "store_error")
		return nil, err
	}
	observability.RecordAuthRefresh(ctx, "extended")
	return bundle(session), nil
}

// Logout revokes the session. Revoking an unknown or already-revoked token
// is not an error; store write failures still surface.
func (s *AuthService) Logout(ctx context.Context, currentToken string) error {
	if _, err := s.sessions.Revoke(currentToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthLogout(ctx, "already_revoked")
			return nil
		}
		observability.RecordAuthLogout(ctx, "store_error")
		return err
	}
	observability.RecordAuthLogout(ctx, "success")
	return nil
}

// Authorize gates protected requests: the bearer token must resolve to an
// active, unexpired session whose public uuid equals the CSRF cookie value.
func (s *AuthService) Authorize(ctx context.Context, bearerToken, csrfCookie string) (*Principal, error) {
	if bearerToken == "" || csrfCookie == "" {
		observability.RecordAuthorization(ctx, "missing_credentials")
		return nil, ErrSessionInvalid
	}
	view, err := s.sessions.FindActiveByToken(bearerToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordAuthorization(ctx, "unknown_token")
			return nil, ErrSessionInvalid
		}
		observability.RecordAuthorization(ctx, "store_error")
		return nil, err
	}
	if !s.now().Before(view.ExpiresAt) {
		observability.RecordAuthorization(ctx, "expired")
		return nil, ErrSessionInvalid
	}
	if view.UUID != csrfCookie {
		observability.RecordAuthorization(ctx, "csrf_mismatch")
		return nil, ErrSessionInvalid
	}
	observability.RecordAuthorization(ctx, "authorized")
	return &Principal{SessionUUID: view.UUID, User: view.User}, nil
}

func (s *AuthService) provider(p domain.Provider) (oauth.Provider, error) {
	switch p {
	case domain.ProviderGoogle:
		if s.google == nil {
			return nil, fmt.Errorf("%w: google provider not configured", ErrOAuthExchange)
		}
		return s.google, nil
	case domain.ProviderGitHub:
		if s.github == nil {
			return nil, fmt.Errorf("%w: github provider not configured", ErrOAuthExchange)
		}
		return s.github, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrOAuthExchange, p)
	}
}

func (s *AuthService) findOrCreateByEmail(profile *oauth.ProviderProfile) (*domain.User, error) {
	user, err := s.users.FindByEmail(profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user, err = s.users.Create(profile.DisplayName, profile.Email, nil, nil)
	if err == nil {
		return user, nil
	}
	// Two concurrent first logins for the same account can race the
	// create; the loser re-reads the winner's row.
	if errors.Is(err, repository.ErrConflict) {
		return s.users.FindByEmail(profile.Email)
	}
	return nil, err
}

// storableToken picks which provider token to keep for later use: Google
// grants a dedicated refresh token (only sometimes, on first consent),
// GitHub's access token is itself the long-lived credential.
func storableToken(provider domain.Provider, tok *oauth.ProviderToken) string {
	if tok.RefreshToken != "" {
		return tok.RefreshToken
	}
	if provider == domain.ProviderGitHub {
		return tok.AccessToken
	}
	return ""
}

func bundle(s *domain.Session) *SessionBundle {
	return &SessionBundle{UUID: s.UUID, Token: s.Token, Expires: s.ExpiresAt}
}
