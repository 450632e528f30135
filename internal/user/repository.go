// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pardisweb/darban/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetOneTimeToken(
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
	) (*User, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, first_name, last_name, email, is_email_verified,
	       phone, is_phone_verified, avatar, role, password_hash,
	       password_changed_at, reset_token_hash, reset_token_expires,
	       email_token_hash, email_token_expires,
	       phone_token_hash, phone_token_expires,
	       created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, phone,
		                   avatar, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Avatar,
		user.Role,
		user.PasswordHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByPhone(
	ctx context.Context,
	phone string,
) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE phone = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by phone: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, avatar = $5,
		    role = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Avatar,
		user.Role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// UpdatePassword refreshes the change timestamp and voids any pending reset
// token in the same statement. The timestamp is backdated one second so a
// token minted in the same second as the change still validates.
func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = NOW() - interval '1 second',
		    reset_token_hash = NULL,
		    reset_token_expires = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetOneTimeToken(
	ctx context.Context,
	id string,
	kind core.OneTimeKind,
	digest string,
	expiresAt time.Time,
) error {
	cols, ok := oneTimeColumns[kind]
	if !ok {
		return fmt.Errorf("set one-time token: unknown kind %q", kind)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s = $2, %s = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, cols.hash, cols.expires)

	result, err := r.db.ExecContext(ctx, query, id, digest, expiresAt)
	if err != nil {
		return fmt.Errorf("set one-time token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set one-time token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set one-time token: %w", core.ErrNotFound)
	}

	return nil
}

// ConsumeOneTimeToken matches the digest, enforces expiry, and clears the
// pair in a single statement, which makes consumption single-use even under
// concurrent attempts. Verification kinds also flip their verified flag.
func (r *repository) ConsumeOneTimeToken(
	ctx context.Context,
	kind core.OneTimeKind,
	digest string,
) (*User, error) {
	cols, ok := oneTimeColumns[kind]
	if !ok {
		return nil, fmt.Errorf("consume one-time token: unknown kind %q", kind)
	}

	extra := ""
	if cols.verifiedFlag != "" {
		extra = fmt.Sprintf(", %s = TRUE", cols.verifiedFlag)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s = NULL, %s = NULL, updated_at = NOW()%s
		WHERE %s = $1 AND %s > NOW() AND deleted_at IS NULL
		RETURNING %s`,
		cols.hash, cols.expires, extra, cols.hash, cols.expires, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume one-time token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("consume one-time token: %w", err)
	}

	return &user, nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByPhone(
	ctx context.Context,
	phone string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, phone); err != nil {
		return false, fmt.Errorf("check phone exists: %w", err)
	}

	return exists, nil
}

type oneTimeColumnSet struct {
	hash         string
	expires      string
	verifiedFlag string
}

var oneTimeColumns = map[core.OneTimeKind]oneTimeColumnSet{
	core.OneTimePasswordReset: {
		hash:    "reset_token_hash",
		expires: "reset_token_expires",
	},
	core.OneTimeEmailVerify: {
		hash:         "email_token_hash",
		expires:      "email_token_expires",
		verifiedFlag: "is_email_verified",
	},
	core.OneTimePhoneVerify: {
		hash:         "phone_token_hash",
		expires:      "phone_token_expires",
		verifiedFlag: "is_phone_verified",
	},
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
