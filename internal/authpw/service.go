// Package authpw provides email/password authentication for admin accounts.
// Accounts are provisioned without a password; the first login flow checks
// the email, sets the password once, and only then allows sign-in.
package authpw

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"stepai/admin/internal/store"
)

// Service provides email/password authentication for admins
type Service struct {
	store UserStore
}

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
}

// NewService creates a new auth service
func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// CheckEmailResult reports whether an email belongs to an admin account
// and whether that account has completed first-time password setup.
type CheckEmailResult struct {
	Exists      bool
	HasPassword bool
}

// CheckEmail looks up an email ahead of login so the UI can route the
// user to either the password prompt or first-time setup.
func (s *Service) CheckEmail(ctx context.Context, email string) (*CheckEmailResult, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return &CheckEmailResult{Exists: false}, nil
	}
	if user.UserType != "admin" {
		return &CheckEmailResult{Exists: false}, nil
	}
	return &CheckEmailResult{
		Exists:      true,
		HasPassword: user.PasswordHash != "",
	}, nil
}

// SetPassword completes first-time setup for a provisioned admin account.
// Accounts that already have a password must go through login instead.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil || user.UserType != "admin" {
		return errors.New("admin account not found")
	}
	if user.PasswordHash != "" {
		return errors.New("password already set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Login authenticates an admin account
func (s *Service) Login(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, errors.New("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, errors.New("invalid email or password")
	}
	if user.UserType != "admin" || !user.IsActive {
		return store.User{}, errors.New("invalid email or password")
	}
	if user.PasswordHash == "" {
		return store.User{}, errors.New("password not set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, errors.New("invalid email or password")
	}
	return user, nil
}
