// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pardisweb/darban/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

var userColumnNames = []string{
	"id", "first_name", "last_name", "email", "is_email_verified",
	"phone", "is_phone_verified", "avatar", "role", "password_hash",
	"password_changed_at", "reset_token_hash", "reset_token_expires",
	"email_token_hash", "email_token_expires",
	"phone_token_hash", "phone_token_expires",
	"created_at", "updated_at", "deleted_at",
}

func userRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumnNames).AddRow(
		id, "Sara", "Ahmadi", "sara@example.com", false,
		"00989123456789", false, DefaultAvatar, "user", "$2a$10$hash",
		nil, nil, nil,
		nil, nil,
		nil, nil,
		now, now, nil,
	)
}

func TestRepositoryCreate(t *testing.T) {
	t.Run("success populates timestamps", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(
				"u1", "Sara", "Ahmadi", "sara@example.com",
				"00989123456789", DefaultAvatar, core.RoleUser, "$2a$10$hash",
			).
			WillReturnRows(
				sqlmock.NewRows([]string{"created_at", "updated_at"}).
					AddRow(now, now),
			)

		user := &User{
			ID:           "u1",
			FirstName:    "Sara",
			LastName:     "Ahmadi",
			Email:        "sara@example.com",
			Phone:        "00989123456789",
			Avatar:       DefaultAvatar,
			Role:         core.RoleUser,
			PasswordHash: "$2a$10$hash",
		}

		require.NoError(t, repo.Create(context.Background(), user))
		assert.False(t, user.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate phone", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(context.Background(), &User{ID: "u1"})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)
	})
}

func TestRepositoryGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("u1").
			WillReturnRows(userRow("u1"))

		user, err := repo.GetByID(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "00989123456789", user.Phone)
	})

	t.Run("missing or soft-deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepositoryGetByPhone(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("00989123456789").
		WillReturnRows(userRow("u1"))

	user, err := repo.GetByPhone(context.Background(), "00989123456789")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestRepositoryUpdatePassword(t *testing.T) {
	t.Run("backdates the change timestamp", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users").
			WithArgs("u1", "$2a$10$newhash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePassword(context.Background(), "u1", "$2a$10$newhash")
		assert.NoError(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(context.Background(), "missing", "hash")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepositorySetOneTimeToken(t *testing.T) {
	t.Run("stores digest and expiry", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		expires := time.Now().Add(10 * time.Minute)

		mock.ExpectExec("UPDATE users").
			WithArgs("u1", "digest", expires).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetOneTimeToken(
			context.Background(),
			"u1",
			core.OneTimePasswordReset,
			"digest",
			expires,
		)
		assert.NoError(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		repo, _ := newMockRepo(t)

		err := repo.SetOneTimeToken(
			context.Background(),
			"u1",
			core.OneTimeKind("refresh"),
			"digest",
			time.Now(),
		)
		assert.Error(t, err)
	})
}

func TestRepositoryConsumeOneTimeToken(t *testing.T) {
	t.Run("valid digest returns the subject", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("UPDATE users").
			WithArgs("digest").
			WillReturnRows(userRow("u1"))

		user, err := repo.ConsumeOneTimeToken(
			context.Background(),
			core.OneTimePasswordReset,
			"digest",
		)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("expired or already consumed", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("UPDATE users").
			WithArgs("digest").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.ConsumeOneTimeToken(
			context.Background(),
			core.OneTimePasswordReset,
			"digest",
		)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepositorySoftDelete(t *testing.T) {
	t.Run("marks the row", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users").
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SoftDelete(context.Background(), "u1"))
	})

	t.Run("already deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users").
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDelete(context.Background(), "u1")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepositoryList(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(userRow("u1"))

	users, total, err := repo.List(context.Background(), ListUsersParams{
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestRepositoryExistsByPhone(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("00989123456789").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByPhone(context.Background(), "00989123456789")
	require.NoError(t, err)
	assert.True(t, exists)
}
