// Package middleware hosts authentication, logging, and rate limiting middleware.
package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey avoids collisions when storing values in request contexts.
type contextKey string

const (
	ctxOperatorIDKey contextKey = "operator_id"
	ctxRoleKey       contextKey = "role"
)

// AuthMiddleware validates bearer JWTs issued to casino operators and
// injects their identity into the context.
type AuthMiddleware struct {
	jwtSecret string
}

// NewAuthMiddleware constructs an AuthMiddleware with the given secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: secret}
}

// Authenticate enforces bearer auth and populates operator details on the
// request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			jsonError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			jsonError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(m.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			jsonError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			jsonError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				jsonError(w, http.StatusUnauthorized, "Token expired")
				return
			}
		}

		operatorIDStr, ok := claims["operator_id"].(string)
		if !ok {
			jsonError(w, http.StatusUnauthorized, "Invalid operator ID in token")
			return
		}
		operatorID, err := uuid.Parse(operatorIDStr)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "Invalid operator ID format")
			return
		}

		ctx := context.WithValue(r.Context(), ctxOperatorIDKey, operatorID)
		if role, ok := claims["role"].(string); ok {
			ctx = context.WithValue(ctx, ctxRoleKey, role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorIDFromContext returns the authenticated operator's UUID from context.
func OperatorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(ctxOperatorIDKey)
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RoleFromContext returns the authenticated operator's role from context.
func RoleFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxRoleKey)
	s, ok := v.(string)
	return s, ok
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed := os.Getenv("CORS_ALLOWED_ORIGINS")
		origin := r.Header.Get("Origin")
		if strings.TrimSpace(allowed) != "" {
			// Restrict to configured origins
			origins := strings.Split(allowed, ",")
			ok := false
			for _, o := range origins {
				if strings.EqualFold(strings.TrimSpace(o), origin) {
					ok = true
					break
				}
			}
			if ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		} else {
			// Development default: reflect origin if present, fallback to *
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
