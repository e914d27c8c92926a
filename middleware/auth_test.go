package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func authProbe() (http.Handler, *struct {
	called bool
	userID int64
	email  string
	admin  bool
}) {
	captured := &struct {
		called bool
		userID int64
		email  string
		admin  bool
	}{}
	handler := NewAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.called = true
		captured.userID, _ = UserID(r.Context())
		captured.email, _ = Email(r.Context())
		captured.admin = IsAdmin(r.Context())
	}))
	return handler, captured
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler, captured := authProbe()

	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	handler, captured := authProbe()

	token := signToken(t, []byte("other-secret"), jwt.MapClaims{"sub": "42"})
	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	handler, captured := authProbe()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)
}

func TestAuthPopulatesIdentity(t *testing.T) {
	handler, captured := authProbe()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "42",
		"email": "alice@example.com",
		"admin": true,
	})
	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, captured.called)
	assert.Equal(t, int64(42), captured.userID)
	assert.Equal(t, "alice@example.com", captured.email)
	assert.True(t, captured.admin)
}

func TestAuthAcceptsNumericSubject(t *testing.T) {
	handler, captured := authProbe()

	token := signToken(t, testSecret, jwt.MapClaims{"sub": 42})
	req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, captured.called)
	assert.Equal(t, int64(42), captured.userID)
	assert.False(t, captured.admin)
}

func TestAuthTokenFromQueryParameter(t *testing.T) {
	handler, captured := authProbe()

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "7"})
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, captured.called)
	assert.Equal(t, int64(7), captured.userID)
}
