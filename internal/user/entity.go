// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/pardisweb/darban/internal/core"
)

type User struct {
	ID                string     `db:"id"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	Email             string     `db:"email"`
	EmailVerified     bool       `db:"is_email_verified"`
	Phone             string     `db:"phone"`
	PhoneVerified     bool       `db:"is_phone_verified"`
	Avatar            string     `db:"avatar"`
	Role              core.Role  `db:"role"`
	PasswordHash      string     `db:"password_hash"`
	PasswordChangedAt *time.Time `db:"password_changed_at"`
	ResetTokenHash    *string    `db:"reset_token_hash"`
	ResetTokenExpires *time.Time `db:"reset_token_expires"`
	EmailTokenHash    *string    `db:"email_token_hash"`
	EmailTokenExpires *time.Time `db:"email_token_expires"`
	PhoneTokenHash    *string    `db:"phone_token_hash"`
	PhoneTokenExpires *time.Time `db:"phone_token_expires"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at"`
}

const DefaultAvatar = "default.jpg"

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == core.RoleAdmin
}

// IsPasswordStale reports whether the password changed strictly after the
// given token issue instant. This is the sole token revocation mechanism.
func (u *User) IsPasswordStale(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}
