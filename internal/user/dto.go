// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/pardisweb/darban/internal/core"
)

type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=2,max=100"`
	Email     string `json:"email"      validate:"omitempty,email,max=255"`
	Phone     string `json:"phone"      validate:"required,irphone"`
	Password  string `json:"password"   validate:"required,strongpwd"`
	Role      string `json:"role"       validate:"omitempty,oneof=admin manager user"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,min=2,max=100"`
	Email     *string `json:"email,omitempty"      validate:"omitempty,email,max=255"`
	Avatar    *string `json:"avatar,omitempty"     validate:"omitempty,max=255"`
}

// UserResponse never carries secret material. Phone is dropped when the
// caller was admitted under a restricted projection.
type UserResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"is_email_verified"`
	Phone         string    `json:"phone,omitempty"`
	PhoneVerified bool      `json:"is_phone_verified"`
	Avatar        string    `json:"avatar"`
	Role          core.Role `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type ListUsersResponse struct {
	Users    []UserResponse `json:"users"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
}

func ToUserResponse(u *User, filtered bool) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		Avatar:        u.Avatar,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}

	if filtered {
		resp.Phone = ""
	}

	return resp
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u, false))
	}
	return responses
}
