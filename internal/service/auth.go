// Admin authentication business logic.
//
// AdminService owns the singleton admin credential:
//
//	AuthHandler (HTTP) → AdminService (business rules) → AdminRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// LIFECYCLE:
// The admin record moves absent → present exactly once, through Bootstrap.
// There is no "find the first admin" query anywhere: the repository stores
// the one row under a fixed key and CreateIfAbsent is a no-op when it exists,
// so concurrent /api/init calls cannot create two admins.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/auth"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/profile"
	"github.com/sakif/student-profiles/internal/repository"
)

// AdminService handles admin bootstrap, login and password changes.
//
// DEPENDENCIES (injected via NewAdminService):
//   - admins     repository.AdminRepository → the singleton admin row
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - tokens     *auth.TokenService         → session JWTs
//   - logger     *slog.Logger               → structured logging
type AdminService struct {
	admins    repository.AdminRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAdminService creates an AdminService with all required dependencies.
func NewAdminService(
	admins repository.AdminRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:    admins,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// BootstrapResult reports what Bootstrap did. Password is the initial
// plaintext and is only set when this call created the admin.
type BootstrapResult struct {
	Created  bool
	Password string
}

// Bootstrap creates the admin with the default secret if none exists.
// Calling it again is harmless.
func (s *AdminService) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	_, err := s.admins.Get(ctx)
	if err == nil {
		return &BootstrapResult{}, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/admin: loading admin: %w", err)
	}

	password := profile.DefaultSecret(profile.AdminSecret)
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/admin: hashing default password: %w", err)
	}

	created, err := s.admins.CreateIfAbsent(ctx, &model.Admin{PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("service/admin: creating admin: %w", err)
	}
	if !created {
		// Lost a race with another Bootstrap; the winner reports the password.
		return &BootstrapResult{}, nil
	}

	s.logger.Warn("admin initialized with the default password; change it with POST /api/admin/change-password")
	return &BootstrapResult{Created: true, Password: password}, nil
}

// Login checks the admin password and issues a session token.
//
// Every credential failure (no admin yet, empty password, wrong password)
// returns the same Unauthorized error so callers cannot tell them apart.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	invalid := apperror.Unauthorized("Invalid credentials")

	if password == "" {
		return "", invalid
	}

	admin, err := s.admins.Get(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Info("login attempted before admin initialization")
		return "", invalid
	}
	if err != nil {
		return "", fmt.Errorf("service/admin: loading admin: %w", err)
	}

	if err := s.passwords.Verify(admin.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("admin login rejected")
			return "", invalid
		}
		return "", fmt.Errorf("service/admin: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(auth.AdminSubject)
	if err != nil {
		return "", fmt.Errorf("service/admin: generating token: %w", err)
	}

	s.logger.Info("admin logged in")
	return token, nil
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72,nefield=CurrentPassword"`
}

// ChangePassword replaces the admin password after checking the current one.
func (s *AdminService) ChangePassword(ctx context.Context, current, next string) error {
	if err := checkStruct(changePasswordInput{CurrentPassword: current, NewPassword: next}); err != nil {
		return err
	}

	admin, err := s.admins.Get(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/admin: loading admin: %w", err)
	}

	if err := s.passwords.Verify(admin.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Unauthorized("Current password is incorrect")
		}
		return fmt.Errorf("service/admin: verifying password: %w", err)
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apperror.ValidationFailed("newPassword", "New password must be at most 72 characters")
		}
		return fmt.Errorf("service/admin: hashing password: %w", err)
	}

	if err := s.admins.UpdatePassword(ctx, hash); err != nil {
		return fmt.Errorf("service/admin: storing password: %w", err)
	}

	s.logger.Info("admin password changed")
	return nil
}
