package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/http/handler"
	"go-session-auth-service/internal/http/router"
	"go-session-auth-service/internal/oauth"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/service"
)

const testRedirectURL = "http://localhost:3000/app"

type testServerOptions struct {
	google oauth.Provider
	github oauth.Provider
}

type testServer struct {
	baseURL string
	client  *http.Client
	db      *gorm.DB
}

func newAuthTestServer(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.OAuthToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	auth := service.NewAuthService(users, sessions, opts.google, opts.github, 30, log)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth, testRedirectURL, log),
		UserHandler:      handler.NewUserHandler(service.NewUserService(users), log),
		Authorizer:       auth,
		Logger:           log,
		APIRateLimitRPM:  10000,
		AuthRateLimitRPM: 10000,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &testServer{baseURL: srv.URL, client: client, db: db}
}

func (ts *testServer) do(t *testing.T, method, path, body string, mutate func(*http.Request)) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(req)
	}
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func registerAndLogin(t *testing.T, ts *testServer, email, password string) *service.SessionBundle {
	t.Helper()

	body := fmt.Sprintf(`{"name":"Test","email":%q,"username":%q,"password":%q}`,
		email, strings.SplitN(email, "@", 2)[0], password)
	resp := ts.do(t, http.MethodPost, "/users", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected 200, got %d", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPost, "/login",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var bundle service.SessionBundle
	decodeJSON(t, resp, &bundle)
	return &bundle
}

func asSession(bundle *service.SessionBundle) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+bundle.Token)
		req.AddCookie(&http.Cookie{Name: "sid", Value: bundle.UUID})
	}
}
