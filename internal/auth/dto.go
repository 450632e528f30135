// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/pardisweb/darban/internal/core"
)

type SignInRequest struct {
	Phone    string `json:"phone"    validate:"required,irphone"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type SignUpRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=2,max=100"`
	Email     string `json:"email"      validate:"omitempty,email,max=255"`
	Phone     string `json:"phone"      validate:"required,irphone"`
	Password  string `json:"password"   validate:"required,strongpwd"`
}

type ForgotPasswordRequest struct {
	Phone string `json:"phone" validate:"required,irphone"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,strongpwd"`
}

type ConfirmVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}

// SubjectResponse is the caller-facing projection of a subject. Secret
// material never appears here.
type SubjectResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"is_email_verified"`
	Phone         string    `json:"phone,omitempty"`
	PhoneVerified bool      `json:"is_phone_verified"`
	Avatar        string    `json:"avatar"`
	Role          core.Role `json:"role"`
}

type sessionData struct {
	User SubjectResponse `json:"user"`
}

// SessionResponse is the sign-in/sign-up contract:
// {status, token, data:{user}}.
type SessionResponse struct {
	Status string      `json:"status"`
	Token  string      `json:"token"`
	Data   sessionData `json:"data"`
}

type TokenIssuedResponse struct {
	Token string `json:"token"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func toSubjectResponse(s *SubjectInfo) SubjectResponse {
	return SubjectResponse{
		ID:            s.ID,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
		Phone:         s.Phone,
		PhoneVerified: s.PhoneVerified,
		Avatar:        s.Avatar,
		Role:          s.Role,
	}
}

func newSessionResponse(subject *SubjectInfo, token string) SessionResponse {
	return SessionResponse{
		Status: "success",
		Token:  token,
		Data:   sessionData{User: toSubjectResponse(subject)},
	}
}
