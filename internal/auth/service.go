// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pardisweb/darban/internal/core"
)

// SubjectInfo is the provider-side view of a subject. PasswordHash never
// leaves this package; DTOs strip it before anything is serialized.
type SubjectInfo struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	EmailVerified     bool
	Phone             string
	PhoneVerified     bool
	Avatar            string
	Role              core.Role
	PasswordHash      string
	PasswordChangedAt *time.Time
}

type NewSubject struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
}

type UserProvider interface {
	GetByID(ctx context.Context, id string) (*SubjectInfo, error)
	GetByPhone(ctx context.Context, phone string) (*SubjectInfo, error)
	Create(ctx context.Context, subject NewSubject) (*SubjectInfo, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	StoreOneTimeToken(
		ctx context.Context,
		id string,
		kind core.OneTimeKind,
		digest string,
		expiresAt time.Time,
	) error
	ConsumeOneTimeToken(
		ctx context.Context,
		kind core.OneTimeKind,
		digest string,
	) (*SubjectInfo, error)
}

type Service struct {
	provider   UserProvider
	tokens     *TokenManager
	hasher     *core.Hasher
	oneTimeTTL time.Duration
}

func NewService(
	provider UserProvider,
	tokens *TokenManager,
	hasher *core.Hasher,
	oneTimeTTL time.Duration,
) *Service {
	return &Service{
		provider:   provider,
		tokens:     tokens,
		hasher:     hasher,
		oneTimeTTL: oneTimeTTL,
	}
}

// SignIn verifies the phone/password pair and issues a session token. The
// password comparison always runs, against a dummy hash when the phone is
// unknown, so response timing does not reveal account existence.
func (s *Service) SignIn(
	ctx context.Context,
	phone, password string,
) (*SubjectInfo, string, error) {
	subject, err := s.provider.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.hasher.CompareTimingSafe(password, nil)
			return nil, "", fmt.Errorf(
				"sign in: %w",
				core.ErrCredentialMismatch,
			)
		}
		return nil, "", fmt.Errorf("sign in: get subject: %w", err)
	}

	if !s.hasher.CompareTimingSafe(password, &subject.PasswordHash) {
		return nil, "", fmt.Errorf("sign in: %w", core.ErrCredentialMismatch)
	}

	token, err := s.tokens.Issue(subject.ID)
	if err != nil {
		return nil, "", fmt.Errorf("sign in: issue token: %w", err)
	}

	return subject, token, nil
}

func (s *Service) SignUp(
	ctx context.Context,
	subject NewSubject,
	password string,
) (*SubjectInfo, string, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("sign up: %w", err)
	}

	subject.PasswordHash = passwordHash

	created, err := s.provider.Create(ctx, subject)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, "", fmt.Errorf("sign up: %w", core.ErrDuplicateKey)
		}
		return nil, "", fmt.Errorf("sign up: create subject: %w", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, "", fmt.Errorf("sign up: issue token: %w", err)
	}

	return created, token, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// issues a fresh token. The store refreshes the change timestamp, which
// invalidates every previously issued token.
func (s *Service) ChangePassword(
	ctx context.Context,
	subjectID, currentPassword, newPassword string,
) (string, error) {
	subject, err := s.provider.GetByID(ctx, subjectID)
	if err != nil {
		return "", fmt.Errorf("change password: get subject: %w", err)
	}

	if !s.hasher.Compare(currentPassword, subject.PasswordHash) {
		return "", fmt.Errorf(
			"change password: %w",
			core.ErrCredentialMismatch,
		)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}

	if err := s.provider.UpdatePassword(ctx, subjectID, newHash); err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}

	token, err := s.tokens.Issue(subjectID)
	if err != nil {
		return "", fmt.Errorf("change password: issue token: %w", err)
	}

	return token, nil
}

// ForgotPassword mints a reset token for the subject behind the phone
// number. An unknown phone returns no error and no token, so callers cannot
// probe which numbers are registered. Delivery is out of band.
func (s *Service) ForgotPassword(
	ctx context.Context,
	phone string,
) (string, error) {
	subject, err := s.provider.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("forgot password: %w", err)
	}

	return s.mintOneTimeToken(ctx, subject.ID, core.OneTimePasswordReset)
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	digest := core.HashToken(token)

	subject, err := s.provider.ConsumeOneTimeToken(
		ctx,
		core.OneTimePasswordReset,
		digest,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("reset password: %w", core.ErrInvalidInput)
		}
		return fmt.Errorf("reset password: %w", err)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.provider.UpdatePassword(ctx, subject.ID, newHash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	return nil
}

func (s *Service) SendEmailVerification(
	ctx context.Context,
	subjectID string,
) (string, error) {
	return s.mintOneTimeToken(ctx, subjectID, core.OneTimeEmailVerify)
}

func (s *Service) SendPhoneVerification(
	ctx context.Context,
	subjectID string,
) (string, error) {
	return s.mintOneTimeToken(ctx, subjectID, core.OneTimePhoneVerify)
}

func (s *Service) ConfirmEmailVerification(
	ctx context.Context,
	token string,
) error {
	return s.confirmVerification(ctx, core.OneTimeEmailVerify, token)
}

func (s *Service) ConfirmPhoneVerification(
	ctx context.Context,
	token string,
) error {
	return s.confirmVerification(ctx, core.OneTimePhoneVerify, token)
}

func (s *Service) GetCurrentSubject(
	ctx context.Context,
	subjectID string,
) (*SubjectInfo, error) {
	subject, err := s.provider.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get current subject: %w", err)
	}
	return subject, nil
}

func (s *Service) mintOneTimeToken(
	ctx context.Context,
	subjectID string,
	kind core.OneTimeKind,
) (string, error) {
	plaintext, digest, err := core.GenerateOneTimeToken()
	if err != nil {
		return "", fmt.Errorf("mint %s token: %w", kind, err)
	}

	expiresAt := time.Now().Add(s.oneTimeTTL)

	err = s.provider.StoreOneTimeToken(ctx, subjectID, kind, digest, expiresAt)
	if err != nil {
		return "", fmt.Errorf("mint %s token: %w", kind, err)
	}

	return plaintext, nil
}

func (s *Service) confirmVerification(
	ctx context.Context,
	kind core.OneTimeKind,
	token string,
) error {
	digest := core.HashToken(token)

	if _, err := s.provider.ConsumeOneTimeToken(ctx, kind, digest); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("confirm %s: %w", kind, core.ErrInvalidInput)
		}
		return fmt.Errorf("confirm %s: %w", kind, err)
	}

	return nil
}
