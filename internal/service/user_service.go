package service

import (
	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/security"
)

// UserService covers account management outside the session lifecycle:
// registration, account lookup, username changes.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Register(name, email, username, password string) (*domain.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.users.Create(name, email, &username, &hash)
}

func (s *UserService) Account(id uint) (*domain.User, error) {
	return s.users.FindByID(id)
}

func (s *UserService) ChangeUsername(id uint, username string) (*domain.User, error) {
	return s.users.UpdateUsername(id, username)
}
