// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pardisweb/darban/internal/auth"
	"github.com/pardisweb/darban/internal/core"
	"github.com/pardisweb/darban/internal/middleware"
)

type Service struct {
	repo   Repository
	hasher *core.Hasher
}

func NewService(repo Repository, hasher *core.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.SubjectInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toSubjectInfo(user), nil
}

func (s *Service) GetByPhone(
	ctx context.Context,
	phone string,
) (*auth.SubjectInfo, error) {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	return toSubjectInfo(user), nil
}

// Create persists a self-registered subject. The password arrives already
// hashed; the change timestamp stays unset on initial creation so tokens
// issued immediately after sign-up validate.
func (s *Service) Create(
	ctx context.Context,
	subject auth.NewSubject,
) (*auth.SubjectInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		FirstName:    subject.FirstName,
		LastName:     subject.LastName,
		Email:        subject.Email,
		Phone:        subject.Phone,
		Avatar:       DefaultAvatar,
		Role:         core.RoleUser,
		PasswordHash: subject.PasswordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toSubjectInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) StoreOneTimeToken(
	ctx context.Context,
	id string,
	kind core.OneTimeKind,
	digest string,
	expiresAt time.Time,
) error {
	return s.repo.SetOneTimeToken(ctx, id, kind, digest, expiresAt)
}

func (s *Service) ConsumeOneTimeToken(
	ctx context.Context,
	kind core.OneTimeKind,
	digest string,
) (*auth.SubjectInfo, error) {
	user, err := s.repo.ConsumeOneTimeToken(ctx, kind, digest)
	if err != nil {
		return nil, err
	}

	return toSubjectInfo(user), nil
}

// ResolveSubject backs the authentication guard. A deleted account surfaces
// as not-found, which the guard reports as a gone subject.
func (s *Service) ResolveSubject(
	ctx context.Context,
	id string,
) (*middleware.Subject, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &middleware.Subject{
		ID:                user.ID,
		Role:              user.Role,
		PasswordChangedAt: user.PasswordChangedAt,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateUser is the admin path: it hashes the plaintext and honors an
// explicit role.
func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*User, error) {
	role := core.RoleUser
	if req.Role != "" {
		parsed, err := core.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Avatar:       DefaultAvatar,
		Role:         role,
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) PhoneExists(
	ctx context.Context,
	phone string,
) (bool, error) {
	return s.repo.ExistsByPhone(ctx, phone)
}

func toSubjectInfo(u *User) *auth.SubjectInfo {
	return &auth.SubjectInfo{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		EmailVerified:     u.EmailVerified,
		Phone:             u.Phone,
		PhoneVerified:     u.PhoneVerified,
		Avatar:            u.Avatar,
		Role:              u.Role,
		PasswordHash:      u.PasswordHash,
		PasswordChangedAt: u.PasswordChangedAt,
	}
}

var (
	_ auth.UserProvider          = (*Service)(nil)
	_ middleware.SubjectResolver = (*Service)(nil)
)
