// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pardisweb/darban/internal/core"
)

// fakeProvider is an in-memory UserProvider keyed by subject id. One-time
// tokens live in a map per kind and are removed on consumption, matching the
// store's single-use semantics.
type fakeProvider struct {
	subjects map[string]*SubjectInfo
	byPhone  map[string]string
	tokens   map[core.OneTimeKind]map[string]storedToken

	updatePasswordCalls int
	getByPhoneCalls     int
}

type storedToken struct {
	subjectID string
	expiresAt time.Time
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		subjects: make(map[string]*SubjectInfo),
		byPhone:  make(map[string]string),
		tokens:   make(map[core.OneTimeKind]map[string]storedToken),
	}
}

func (f *fakeProvider) add(s *SubjectInfo) {
	f.subjects[s.ID] = s
	f.byPhone[s.Phone] = s.ID
}

func (f *fakeProvider) GetByID(
	_ context.Context,
	id string,
) (*SubjectInfo, error) {
	s, ok := f.subjects[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s, nil
}

func (f *fakeProvider) GetByPhone(
	_ context.Context,
	phone string,
) (*SubjectInfo, error) {
	f.getByPhoneCalls++

	id, ok := f.byPhone[phone]
	if !ok {
		return nil, core.ErrNotFound
	}
	return f.subjects[id], nil
}

func (f *fakeProvider) Create(
	_ context.Context,
	subject NewSubject,
) (*SubjectInfo, error) {
	if _, exists := f.byPhone[subject.Phone]; exists {
		return nil, core.ErrDuplicateKey
	}

	created := &SubjectInfo{
		ID:           "subject-" + subject.Phone,
		FirstName:    subject.FirstName,
		LastName:     subject.LastName,
		Email:        subject.Email,
		Phone:        subject.Phone,
		Role:         core.RoleUser,
		PasswordHash: subject.PasswordHash,
	}
	f.add(created)
	return created, nil
}

func (f *fakeProvider) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	s, ok := f.subjects[id]
	if !ok {
		return core.ErrNotFound
	}

	f.updatePasswordCalls++
	s.PasswordHash = passwordHash
	changed := time.Now().Add(-time.Second)
	s.PasswordChangedAt = &changed
	return nil
}

func (f *fakeProvider) StoreOneTimeToken(
	_ context.Context,
	id string,
	kind core.OneTimeKind,
	digest string,
	expiresAt time.Time,
) error {
	if _, ok := f.subjects[id]; !ok {
		return core.ErrNotFound
	}

	if f.tokens[kind] == nil {
		f.tokens[kind] = make(map[string]storedToken)
	}
	f.tokens[kind][digest] = storedToken{subjectID: id, expiresAt: expiresAt}
	return nil
}

func (f *fakeProvider) ConsumeOneTimeToken(
	_ context.Context,
	kind core.OneTimeKind,
	digest string,
) (*SubjectInfo, error) {
	stored, ok := f.tokens[kind][digest]
	if !ok || time.Now().After(stored.expiresAt) {
		return nil, core.ErrNotFound
	}

	delete(f.tokens[kind], digest)

	s := f.subjects[stored.subjectID]
	switch kind {
	case core.OneTimeEmailVerify:
		s.EmailVerified = true
	case core.OneTimePhoneVerify:
		s.PhoneVerified = true
	}
	return s, nil
}

func newTestService(t *testing.T, provider UserProvider) *Service {
	t.Helper()

	tokens, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	hasher, err := core.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	return NewService(provider, tokens, hasher, 10*time.Minute)
}

func seedSubject(
	t *testing.T,
	provider *fakeProvider,
	phone, password string,
) *SubjectInfo {
	t.Helper()

	hasher, err := core.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	subject := &SubjectInfo{
		ID:           "subject-1",
		FirstName:    "Sara",
		LastName:     "Ahmadi",
		Phone:        phone,
		Role:         core.RoleUser,
		PasswordHash: hash,
	}
	provider.add(subject)
	return subject
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns subject and token", func(t *testing.T) {
		provider := newFakeProvider()
		seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		subject, token, err := svc.SignIn(ctx, "00989123456789", "Abcd1234!")
		require.NoError(t, err)
		assert.Equal(t, "subject-1", subject.ID)
		assert.NotEmpty(t, token)

		claims, err := svc.tokens.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "subject-1", claims.SubjectID)
	})

	t.Run("wrong password", func(t *testing.T) {
		provider := newFakeProvider()
		seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		_, _, err := svc.SignIn(ctx, "00989123456789", "Wrong1234!")
		assert.ErrorIs(t, err, core.ErrCredentialMismatch)
	})

	t.Run("unknown phone reports the same mismatch", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(t, provider)

		_, _, err := svc.SignIn(ctx, "00989999999999", "Abcd1234!")
		assert.ErrorIs(t, err, core.ErrCredentialMismatch)
		assert.NotErrorIs(t, err, core.ErrNotFound)
	})
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates subject and issues token", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(t, provider)

		subject, token, err := svc.SignUp(ctx, NewSubject{
			FirstName: "Sara",
			LastName:  "Ahmadi",
			Phone:     "00989123456789",
		}, "Abcd1234!")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, subject.PasswordHash)
		assert.NotEqual(t, "Abcd1234!", subject.PasswordHash)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		provider := newFakeProvider()
		seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		_, _, err := svc.SignUp(ctx, NewSubject{
			FirstName: "Sara",
			LastName:  "Ahmadi",
			Phone:     "00989123456789",
		}, "Abcd1234!")
		assert.ErrorIs(t, err, core.ErrDuplicateKey)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates hash and reissues token", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		oldHash := subject.PasswordHash

		token, err := svc.ChangePassword(ctx, subject.ID, "Abcd1234!", "Efgh5678@")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotEqual(t, oldHash, subject.PasswordHash)
		assert.NotNil(t, subject.PasswordChangedAt)

		_, _, err = svc.SignIn(ctx, "00989123456789", "Efgh5678@")
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		_, err := svc.ChangePassword(ctx, subject.ID, "Wrong1234!", "Efgh5678@")
		assert.ErrorIs(t, err, core.ErrCredentialMismatch)
		assert.Zero(t, provider.updatePasswordCalls)
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("known phone mints a token", func(t *testing.T) {
		provider := newFakeProvider()
		seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.ForgotPassword(ctx, "00989123456789")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Len(t, provider.tokens[core.OneTimePasswordReset], 1)
	})

	t.Run("unknown phone succeeds without a token", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(t, provider)

		token, err := svc.ForgotPassword(ctx, "00989999999999")
		assert.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes token and updates hash", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.ForgotPassword(ctx, "00989123456789")
		require.NoError(t, err)

		require.NoError(t, svc.ResetPassword(ctx, token, "Efgh5678@"))
		assert.NotNil(t, subject.PasswordChangedAt)

		_, _, err = svc.SignIn(ctx, "00989123456789", "Efgh5678@")
		assert.NoError(t, err)
	})

	t.Run("token is single-use", func(t *testing.T) {
		provider := newFakeProvider()
		seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.ForgotPassword(ctx, "00989123456789")
		require.NoError(t, err)

		require.NoError(t, svc.ResetPassword(ctx, token, "Efgh5678@"))

		err = svc.ResetPassword(ctx, token, "Ijkl9012#")
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("unknown token", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(t, provider)

		err := svc.ResetPassword(ctx, "bogus-token", "Efgh5678@")
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})
}

func TestVerificationFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("email token flips the verified flag", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.SendEmailVerification(ctx, subject.ID)
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmEmailVerification(ctx, token))
		assert.True(t, subject.EmailVerified)
	})

	t.Run("kinds are not interchangeable", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.SendEmailVerification(ctx, subject.ID)
		require.NoError(t, err)

		err = svc.ConfirmPhoneVerification(ctx, token)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.False(t, subject.PhoneVerified)
	})

	t.Run("phone token flips the verified flag", func(t *testing.T) {
		provider := newFakeProvider()
		subject := seedSubject(t, provider, "00989123456789", "Abcd1234!")
		svc := newTestService(t, provider)

		token, err := svc.SendPhoneVerification(ctx, subject.ID)
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmPhoneVerification(ctx, token))
		assert.True(t, subject.PhoneVerified)
	})
}
