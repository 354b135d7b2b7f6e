package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/config"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// TokenIssuer mints session tokens for an authenticated profile.
type TokenIssuer interface {
	GenerateToken(subjectID string) (string, time.Time, error)
}

// AccountService handles logins and credential updates.
type AccountService struct {
	profiles    repository.ProfileRepository
	credentials repository.CredentialRepository
	tokens      TokenIssuer
	guard       *auth.Guard
	bcryptCost  int
	minLength   int
	timeout     time.Duration
	logger      *zap.Logger
}

// AccountDependencies encapsulates repo requirements for the account service.
type AccountDependencies struct {
	Profiles    repository.ProfileRepository
	Credentials repository.CredentialRepository
	Tokens      TokenIssuer
	Guard       *auth.Guard
	Logger      *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minLength := cfg.Auth.MinPasswordLength
	if minLength <= 0 {
		minLength = 8
	}
	return &AccountService{
		profiles:    deps.Profiles,
		credentials: deps.Credentials,
		tokens:      deps.Tokens,
		guard:       deps.Guard,
		bcryptCost:  cfg.Auth.BcryptCost,
		minLength:   minLength,
		timeout:     cfg.App.CollaboratorTimeout(),
		logger:      logger,
	}
}

// Login exchanges an email and password for a session token. Unknown emails, missing
// credentials and wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, s.loginError(err)
	}
	hash, err := s.credentials.GetPasswordHash(ctx, profile.ID)
	if err != nil {
		return "", time.Time{}, s.loginError(err)
	}
	if err := auth.ComparePassword(hash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(profile.ID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("login succeeded", zap.String("profile_id", profile.ID))
	return token, expiresAt, nil
}

func (s *AccountService) loginError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return storeError(err, "user")
}

// ResetPassword sets targetID's password. Resetting somebody else's password requires the
// administrator action; targeting yourself is a change of your own password.
func (s *AccountService) ResetPassword(ctx context.Context, actor *domain.Identity, targetID, newPassword string) error {
	action := auth.ActionResetPassword
	if actor != nil && actor.ID == targetID {
		action = auth.ActionChangeOwnPassword
	}
	return s.setPassword(ctx, actor, action, targetID, newPassword)
}

// ChangeOwnPassword sets the caller's own password.
func (s *AccountService) ChangeOwnPassword(ctx context.Context, actor *domain.Identity, newPassword string) error {
	targetID := ""
	if actor != nil {
		targetID = actor.ID
	}
	return s.setPassword(ctx, actor, auth.ActionChangeOwnPassword, targetID, newPassword)
}

func (s *AccountService) setPassword(ctx context.Context, actor *domain.Identity, action auth.Action, targetID, newPassword string) error {
	if err := s.guard.Authorize(actor, action); err != nil {
		return err
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		return storeError(err, "user")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.credentials.UpdatePasswordHash(ctx, target.ID, hash); err != nil {
		return storeError(err, "user")
	}
	s.logger.Info("password updated",
		zap.String("action", string(action)),
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID))
	return nil
}

func (s *AccountService) validatePassword(password string) error {
	switch err := auth.CheckPassword(password, s.minLength); {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return apperrors.NewValidationError(err.Error(), map[string]any{"min_length": s.minLength})
	case errors.Is(err, auth.ErrPasswordTooLong):
		return apperrors.NewValidationError(err.Error(), map[string]any{"max_bytes": auth.MaxPasswordBytes})
	default:
		return err
	}
}
