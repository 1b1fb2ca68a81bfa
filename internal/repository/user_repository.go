package repository

import (
	"context"
	"errors"
	"strings"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/observability"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(email string) (*domain.User, error)
	FindByID(id uint) (*domain.User, error)
	Create(name, email string, username, passwordHash *string) (*domain.User, error)
	UpdateUsername(id uint, username string) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) Create(name, email string, username, passwordHash *string) (*domain.User, error) {
	u := domain.User{
		Name:         name,
		Email:        strings.ToLower(email),
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
			return nil, ErrConflict
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return nil, storeErr(err)
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return &u, nil
}

func (r *GormUserRepository) UpdateUsername(id uint, username string) (*domain.User, error) {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Update("username", username)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "user", "update_username", "conflict")
			return nil, ErrConflict
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "update_username", "error")
		return nil, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_username", "not_found")
		return nil, ErrNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_username", "success")
	return r.FindByID(id)
}
