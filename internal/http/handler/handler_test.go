package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/oauth"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[uint]*domain.User
	nextID uint
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[uint]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) FindByID(id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *stubUserRepo) Create(name, email string, username, passwordHash *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lowered := strings.ToLower(email)
	for _, u := range r.byID {
		if u.Email == lowered {
			return nil, repository.ErrConflict
		}
		if username != nil && u.Username != nil && *u.Username == *username {
			return nil, repository.ErrConflict
		}
	}
	r.nextID++
	u := &domain.User{
		ID:           r.nextID,
		Name:         name,
		Email:        lowered,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedOn:    time.Now(),
	}
	r.byID[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r *stubUserRepo) UpdateUsername(id uint, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, other := range r.byID {
		if other.ID != id && other.Username != nil && *other.Username == username {
			return nil, repository.ErrConflict
		}
	}
	u.Username = &username
	copied := *u
	return &copied, nil
}

type stubSessionRepo struct {
	mu      sync.Mutex
	users   *stubUserRepo
	byToken map[string]*domain.Session
	tokens  map[string]string
	seq     int
}

func newStubSessionRepo(users *stubUserRepo) *stubSessionRepo {
	return &stubSessionRepo{
		users:   users,
		byToken: make(map[string]*domain.Session),
		tokens:  make(map[string]string),
	}
}

func (r *stubSessionRepo) Create(userID uint, provider *domain.Provider, ttlDays int) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s := &domain.Session{
		UserID:        userID,
		UUID:          fmt.Sprintf("uuid-%d", r.seq),
		Token:         fmt.Sprintf("token-%d", r.seq),
		Status:        domain.SessionActive,
		OAuthProvider: provider,
		ExpiresAt:     time.Now().AddDate(0, 0, ttlDays),
	}
	r.byToken[s.Token] = s
	copied := *s
	return &copied, nil
}

func (r *stubSessionRepo) FindActiveByToken(token string) (*repository.SessionView, error) {
	r.mu.Lock()
	s, ok := r.byToken[token]
	r.mu.Unlock()
	if !ok || s.Status != domain.SessionActive {
		return nil, repository.ErrSessionNotFound
	}
	u, err := r.users.FindByID(s.UserID)
	if err != nil {
		return nil, repository.ErrSessionNotFound
	}
	view := &repository.SessionView{
		UUID:          s.UUID,
		Token:         s.Token,
		Status:        s.Status,
		ExpiresAt:     s.ExpiresAt,
		OAuthProvider: s.OAuthProvider,
		User:          repository.SessionUser{ID: u.ID, Email: u.Email, Username: u.Username},
	}
	if s.OAuthProvider != nil {
		view.OAuthToken = r.tokens[tokenKey(s.UserID, *s.OAuthProvider)]
	}
	return view, nil
}

func (r *stubSessionRepo) ExtendExpiry(sessionUUID string, ttlDays int) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byToken {
		if s.UUID == sessionUUID && s.Status == domain.SessionActive {
			s.ExpiresAt = time.Now().AddDate(0, 0, ttlDays)
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *stubSessionRepo) Revoke(token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if s.Status == domain.SessionActive {
		s.Status = domain.SessionRevoked
		s.ExpiresAt = time.Now()
	}
	copied := *s
	return &copied, nil
}

func (r *stubSessionRepo) UpsertOAuthToken(userID uint, provider domain.Provider, token string) (*domain.OAuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenKey(userID, provider)] = token
	return &domain.OAuthToken{UserID: userID, Provider: provider, Token: token}, nil
}

func tokenKey(userID uint, provider domain.Provider) string {
	return fmt.Sprintf("%d:%s", userID, provider)
}

type stubProvider struct {
	name        domain.Provider
	token       *oauth.ProviderToken
	profile     *oauth.ProviderProfile
	exchangeErr error
}

func (p *stubProvider) Name() domain.Provider { return p.name }

func (p *stubProvider) ExchangeCode(context.Context, string) (*oauth.ProviderToken, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.token, nil
}

func (p *stubProvider) FetchProfile(context.Context, string) (*oauth.ProviderProfile, error) {
	return p.profile, nil
}

type handlerFixture struct {
	users    *stubUserRepo
	sessions *stubSessionRepo
	auth     *service.AuthService
	userSvc  *service.UserService
}

func newHandlerFixture(google, github oauth.Provider) *handlerFixture {
	users := newStubUserRepo()
	sessions := newStubSessionRepo(users)
	return &handlerFixture{
		users:    users,
		sessions: sessions,
		auth:     service.NewAuthService(users, sessions, google, github, 30, testLogger()),
		userSvc:  service.NewUserService(users),
	}
}
