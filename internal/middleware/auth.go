// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pardisweb/darban/internal/core"
)

type contextKey string

const (
	SubjectKey  contextKey = "subject"
	FilteredKey contextKey = "filtered_projection"
)

// SessionClaims is the verified content of a bearer token.
type SessionClaims struct {
	SubjectID string
	IssuedAt  time.Time
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*SessionClaims, error)
}

// Subject is the authenticated principal attached to the request context.
type Subject struct {
	ID                string
	Role              core.Role
	PasswordChangedAt *time.Time
}

type SubjectResolver interface {
	ResolveSubject(ctx context.Context, id string) (*Subject, error)
}

// Authenticator verifies the bearer credential and resolves the subject.
// Terminal rejections: missing credential, invalid or expired token, subject
// deleted after issuance, and sessions issued before a password change.
func Authenticator(
	verifier TokenVerifier,
	resolver SubjectResolver,
	cookieName string,
	rp *core.Responder,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token == "" {
				rp.Error(w, core.ErrMissingCredential)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				rp.Error(w, err)
				return
			}

			subject, err := resolver.ResolveSubject(r.Context(), claims.SubjectID)
			if err != nil {
				if core.IsOperational(err) {
					rp.Error(w, fmt.Errorf(
						"resolve subject: %w",
						core.ErrSubjectGone,
					))
					return
				}
				rp.Error(w, err)
				return
			}

			if isPasswordStale(subject, claims.IssuedAt) {
				rp.Error(w, core.ErrStaleSession)
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPasswordStale reports whether the subject's password changed strictly
// after the token was issued. Token timestamps carry second precision, so
// the stored change timestamp is set one second in the past at write time.
func isPasswordStale(subject *Subject, issuedAt time.Time) bool {
	if subject.PasswordChangedAt == nil {
		return false
	}
	return subject.PasswordChangedAt.After(issuedAt)
}

// Access is the closed set of allow-list tokens a route may declare. Roles
// permit by match; AccessSelf permits when the path target is the caller;
// AccessFilteredSelf permits anyone authenticated but marks a restricted
// projection for the downstream handler.
type Access string

const (
	AccessAdmin        Access = Access(core.RoleAdmin)
	AccessManager      Access = Access(core.RoleManager)
	AccessUser         Access = Access(core.RoleUser)
	AccessSelf         Access = "self"
	AccessFilteredSelf Access = "filteredSelf"
)

func (a Access) valid() bool {
	switch a {
	case AccessAdmin, AccessManager, AccessUser, AccessSelf, AccessFilteredSelf:
		return true
	}
	return false
}

// RequireAccess gates a route by allow-list. The list is validated at
// construction so a typo fails at startup, not at request time. Matching is
// first-match-wins: role, then self, then filteredSelf; anything else is a
// 403. idParam names the chi URL parameter holding the target subject id.
func RequireAccess(
	rp *core.Responder,
	idParam string,
	allowList ...Access,
) func(http.Handler) http.Handler {
	if len(allowList) == 0 {
		panic("middleware: RequireAccess needs a non-empty allow-list")
	}

	roleSet := make(map[core.Role]struct{}, len(allowList))
	var allowSelf, allowFiltered bool

	for _, a := range allowList {
		if !a.valid() {
			panic(fmt.Sprintf("middleware: unknown access token %q", a))
		}
		switch a {
		case AccessSelf:
			allowSelf = true
		case AccessFilteredSelf:
			allowFiltered = true
		default:
			roleSet[core.Role(a)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetSubject(r.Context())
			if subject == nil {
				rp.Error(w, core.ErrUnauthorized)
				return
			}

			if _, ok := roleSet[subject.Role]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if allowSelf && idParam != "" &&
				chi.URLParam(r, idParam) == subject.ID {
				next.ServeHTTP(w, r)
				return
			}

			if allowFiltered {
				ctx := context.WithValue(r.Context(), FilteredKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			rp.Error(w, core.ErrForbidden)
		})
	}
}

// ExtractToken prefers the Authorization header over the session cookie.
func ExtractToken(r *http.Request, cookieName string) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return cookie.Value
		}
	}

	return ""
}

func GetSubject(ctx context.Context) *Subject {
	if subject, ok := ctx.Value(SubjectKey).(*Subject); ok {
		return subject
	}
	return nil
}

func GetSubjectID(ctx context.Context) string {
	if subject := GetSubject(ctx); subject != nil {
		return subject.ID
	}
	return ""
}

func IsFilteredProjection(ctx context.Context) bool {
	filtered, ok := ctx.Value(FilteredKey).(bool)
	return ok && filtered
}

func IsAuthenticated(ctx context.Context) bool {
	return GetSubject(ctx) != nil
}
