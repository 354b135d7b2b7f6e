package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// IntakeIdentityID names the non-interactive caller authenticated by the shared secret.
const IntakeIdentityID = "intake-relay"

// FailureReason explains an authentication failure. It is logged, never returned to callers.
type FailureReason string

const (
	ReasonMissing         FailureReason = "missing"
	ReasonInvalid         FailureReason = "invalid"
	ReasonUnauthenticated FailureReason = "unauthenticated"
	ReasonProfileMissing  FailureReason = "profile_missing"
)

// AuthFailure reports that no caller identity could be established.
type AuthFailure struct {
	Reason FailureReason
}

func (f *AuthFailure) Error() string {
	return "authentication failed: " + string(f.Reason)
}

// SessionResolver maps an opaque session credential to a subject identifier.
type SessionResolver interface {
	ResolveSession(ctx context.Context, raw string) (string, error)
}

// Verifier turns raw credentials into identities.
type Verifier struct {
	intakeDigest [sha256.Size]byte
	intakeSet    bool
	sessions     SessionResolver
	profiles     repository.ProfileRepository
	timeout      time.Duration
	logger       *zap.Logger
}

// NewVerifier constructs a verifier. An empty intakeSecret rejects every intake request.
func NewVerifier(intakeSecret string, sessions SessionResolver, profiles repository.ProfileRepository, timeout time.Duration, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Verifier{
		sessions: sessions,
		profiles: profiles,
		timeout:  timeout,
		logger:   logger,
	}
	if intakeSecret != "" {
		v.intakeDigest = sha256.Sum256([]byte(intakeSecret))
		v.intakeSet = true
	}
	return v
}

// VerifySecret checks the intake shared secret. Digests are compared so that neither
// content nor length of the expected secret leaks through timing.
func (v *Verifier) VerifySecret(raw string) (*domain.Identity, error) {
	if raw == "" {
		return nil, &AuthFailure{Reason: ReasonMissing}
	}
	got := sha256.Sum256([]byte(raw))
	match := subtle.ConstantTimeCompare(got[:], v.intakeDigest[:]) == 1
	if !v.intakeSet || !match {
		return nil, &AuthFailure{Reason: ReasonInvalid}
	}
	return &domain.Identity{ID: IntakeIdentityID, Method: domain.AuthMethodSharedSecret}, nil
}

// VerifySession resolves a session credential and loads the caller's role from the
// profile store. Store failures are transient, not authentication failures.
func (v *Verifier) VerifySession(ctx context.Context, raw string) (*domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &AuthFailure{Reason: ReasonMissing}
	}
	if v.sessions == nil || v.profiles == nil {
		return nil, &AuthFailure{Reason: ReasonUnauthenticated}
	}

	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	subjectID, err := v.sessions.ResolveSession(ctx, raw)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTransient(err)
		}
		return nil, &AuthFailure{Reason: ReasonUnauthenticated}
	}

	profile, err := v.profiles.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthFailure{Reason: ReasonProfileMissing}
		}
		v.logger.Warn("profile lookup failed", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, apperrors.NewTransient(err)
	}
	if !profile.Role.Valid() {
		return nil, &AuthFailure{Reason: ReasonProfileMissing}
	}

	return &domain.Identity{ID: profile.ID, Role: profile.Role, Method: domain.AuthMethodSession}, nil
}

func (v *Verifier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}

// unauthorized converts an AuthFailure into the public 401 without revealing the reason.
func unauthorized(message string, err error) error {
	var failure *AuthFailure
	if !errors.As(err, &failure) {
		return err
	}
	return &apperrors.DomainError{
		Code:       apperrors.CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        failure,
	}
}
