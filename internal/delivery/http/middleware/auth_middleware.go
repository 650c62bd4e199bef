package middleware

import (
	"context"
	"net/http"
	"strings"

	"dirwa-booking/pkg/jwt"
	"dirwa-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserPhoneKey contextKey = "user_phone"
	UserNameKey  contextKey = "user_name"
	RoleIDKey    contextKey = "role_id"
)

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		log:        log,
	}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		claims, ok := m.parse(authHeader)
		if !ok {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches the session user when a valid token is present
// and lets anonymous requests through unchanged.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := m.parse(authHeader)
		if !ok {
			m.log.Debug("Ignoring invalid token on optional-auth route")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) parse(authHeader string) (*jwt.Claims, bool) {
	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := m.jwtService.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserPhoneKey, claims.Phone)
	ctx = context.WithValue(ctx, UserNameKey, claims.FullName)
	ctx = context.WithValue(ctx, RoleIDKey, claims.RoleID)
	return ctx
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetRoleIDFromContext extracts role ID from context
func GetRoleIDFromContext(ctx context.Context) (int, bool) {
	roleID, ok := ctx.Value(RoleIDKey).(int)
	return roleID, ok
}

// GetActorFromContext returns a pointer to the caller's id for audit entries, or nil.
func GetActorFromContext(ctx context.Context) *uuid.UUID {
	if id, ok := GetUserIDFromContext(ctx); ok {
		return &id
	}
	return nil
}

// WithUser is used by callers that authenticate by other means, such as tests.
func WithUser(ctx context.Context, userID uuid.UUID, roleID int) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleIDKey, roleID)
}
