package repository

import (
	"context"
	"errors"
	"time"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/observability"
	"go-session-auth-service/internal/security"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionUser is the slice of the user record exposed alongside a resolved
// session.
type SessionUser struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// SessionView is a session joined with its user and, for OAuth-backed
// sessions, the stored provider token.
type SessionView struct {
	UUID          string
	Token         string
	Status        domain.SessionStatus
	ExpiresAt     time.Time
	OAuthProvider *domain.Provider
	OAuthToken    string
	User          SessionUser
}

type SessionRepository interface {
	Create(userID uint, provider *domain.Provider, ttlDays int) (*domain.Session, error)
	FindActiveByToken(token string) (*SessionView, error)
	ExtendExpiry(sessionUUID string, ttlDays int) (*domain.Session, error)
	Revoke(token string) (*domain.Session, error)
	UpsertOAuthToken(userID uint, provider domain.Provider, token string) (*domain.OAuthToken, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(userID uint, provider *domain.Provider, ttlDays int) (*domain.Session, error) {
	token, err := security.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := domain.Session{
		UserID:        userID,
		UUID:          uuid.NewString(),
		Token:         token,
		Status:        domain.SessionActive,
		OAuthProvider: provider,
		ExpiresAt:     now.AddDate(0, 0, ttlDays),
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).Where("id = ?", userID).Update("last_login", now).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return &s, nil
}

type sessionRow struct {
	UUID          string
	Token         string
	Status        domain.SessionStatus
	ExpiresAt     time.Time
	OAuthProvider *domain.Provider `gorm:"column:oauth_provider"`
	OAuthToken    *string          `gorm:"column:oauth_token"`
	UserID        uint
	Email         string
	Username      *string
}

// FindActiveByToken filters on status only. Expiry is a caller-side time
// check: an expired-but-active session is still resolvable, just not usable.
func (r *GormSessionRepository) FindActiveByToken(token string) (*SessionView, error) {
	var row sessionRow
	err := r.db.Table("sessions AS s").
		Select("s.uuid, s.token, s.status, s.expires_at, s.oauth_provider, o.token AS oauth_token, u.id AS user_id, u.email, u.username").
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("LEFT JOIN oauth_tokens o ON o.user_id = s.user_id AND o.provider = s.oauth_provider").
		Where("s.token = ? AND s.status = ?", token, domain.SessionActive).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_token", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_token", "error")
		return nil, storeErr(err)
	}
	view := SessionView{
		UUID:          row.UUID,
		Token:         row.Token,
		Status:        row.Status,
		ExpiresAt:     row.ExpiresAt,
		OAuthProvider: row.OAuthProvider,
		User:          SessionUser{ID: row.UserID, Email: row.Email, Username: row.Username},
	}
	if row.OAuthToken != nil {
		view.OAuthToken = *row.OAuthToken
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_active_by_token", "success")
	return &view, nil
}

// ExtendExpiry advances expires_at on an active session. The status
// condition makes a refresh racing a concurrent revoke update zero rows
// instead of resurrecting the session: revocation wins.
func (r *GormSessionRepository) ExtendExpiry(sessionUUID string, ttlDays int) (*domain.Session, error) {
	expires := time.Now().UTC().AddDate(0, 0, ttlDays)
	res := r.db.Model(&domain.Session{}).
		Where("uuid = ? AND status = ?", sessionUUID, domain.SessionActive).
		Update("expires_at", expires)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "extend_expiry", "error")
		return nil, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "extend_expiry", "not_found")
		return nil, ErrSessionNotFound
	}
	var s domain.Session
	if err := r.db.Where("uuid = ?", sessionUUID).First(&s).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "extend_expiry", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "extend_expiry", "success")
	return &s, nil
}

// Revoke is idempotent: revoking an already-revoked session returns the
// terminal state unchanged.
func (r *GormSessionRepository) Revoke(token string) (*domain.Session, error) {
	err := r.db.Model(&domain.Session{}).
		Where("token = ? AND status = ?", token, domain.SessionActive).
		Updates(map[string]any{"status": domain.SessionRevoked, "expires_at": time.Now().UTC()}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "error")
		return nil, storeErr(err)
	}
	var s domain.Session
	if err := r.db.Where("token = ?", token).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "success")
	return &s, nil
}

// UpsertOAuthToken is a single atomic insert-or-update keyed by
// (user_id, provider), parameterized end to end.
func (r *GormSessionRepository) UpsertOAuthToken(userID uint, provider domain.Provider, token string) (*domain.OAuthToken, error) {
	t := domain.OAuthToken{UserID: userID, Provider: provider, Token: token}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"token"}),
	}).Create(&t).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "oauth_token", "upsert", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "oauth_token", "upsert", "success")
	return &t, nil
}
