package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"notus/pkg/logger"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "email"
	adminKey  contextKey = "admin"
)

// NewAuth builds the session middleware around the configured secret.
// Tokens are accepted from the Authorization header or, for WebSocket
// upgrades where custom headers are unavailable, the token query parameter.
func NewAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Infof("Invalid session token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized: Could not parse token claims", http.StatusUnauthorized)
				return
			}
			userID, ok := subjectID(claims)
			if !ok {
				http.Error(w, "Unauthorized: User ID (sub) claim is missing or invalid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			if email, ok := claims["email"].(string); ok {
				ctx = context.WithValue(ctx, emailKey, email)
			}
			if admin, ok := claims["admin"].(bool); ok && admin {
				ctx = context.WithValue(ctx, adminKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// subjectID accepts both string and numeric sub claims; JSON numbers decode
// to float64 under MapClaims.
func subjectID(claims jwt.MapClaims) (int64, bool) {
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		return id, err == nil
	case float64:
		return int64(sub), true
	default:
		return 0, false
	}
}

// UserID returns the authenticated user's id from the request context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Email returns the authenticated user's registered email, when the session
// token carried one.
func Email(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// IsAdmin reports whether the session carries the administrative flag.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}

// WithIdentity injects an identity into a context; test helper for handlers
// exercised without the middleware.
func WithIdentity(ctx context.Context, userID int64, email string, admin bool) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	if email != "" {
		ctx = context.WithValue(ctx, emailKey, email)
	}
	if admin {
		ctx = context.WithValue(ctx, adminKey, true)
	}
	return ctx
}
