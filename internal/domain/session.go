package domain

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionRevoked SessionStatus = "revoked"
)

// Provider is the closed set of supported OAuth identity providers.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderGitHub:
		return ProviderGitHub, nil
	default:
		return "", fmt.Errorf("unknown oauth provider %q", s)
	}
}

// Session authorizes one client to act as a user. UUID is the public
// identifier mirrored into the sid cookie for the double-submit CSRF check;
// Token is the secret bearer credential.
type Session struct {
	ID            uint          `gorm:"primaryKey" json:"-"`
	UserID        uint          `gorm:"index;not null" json:"user_id"`
	UUID          string        `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Token         string        `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Status        SessionStatus `gorm:"size:16;index;not null" json:"status"`
	OAuthProvider *Provider     `gorm:"column:oauth_provider;size:16" json:"oauth_provider,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `gorm:"index;not null" json:"expires_at"`
}

// OAuthToken holds the provider-issued refresh-capable token, at most one
// live row per (user, provider).
type OAuthToken struct {
	UserID   uint     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Provider Provider `gorm:"primaryKey;size:16" json:"provider"`
	Token    string   `gorm:"size:512;not null" json:"-"`
}

// TableName matches the oauth_tokens name used by repository queries;
// GORM's default pluralization would produce o_auth_tokens.
func (OAuthToken) TableName() string { return "oauth_tokens" }
