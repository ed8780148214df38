package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return tokenString
}

func userClaims(userID, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID,
		"email": "test@example.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func runMiddleware(t *testing.T, path, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	config := JWTConfig{
		Secret:    testSecret,
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health", "/webhook", "/api/v1"},
	}
	if next == nil {
		next = func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, JWTMiddleware(config)(next)(c))
	return rec
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	userID := "550e8400-e29b-41d4-a716-446655440000"

	rec := runMiddleware(t, "/api/entitlements", "Bearer "+signToken(t, userClaims(userID, "authenticated"), testSecret),
		func(c echo.Context) error {
			user, err := GetUserFromContext(c)
			assert.NoError(t, err)
			assert.Equal(t, userID, user.UserID)
			assert.Equal(t, "test@example.com", user.Email)
			assert.False(t, user.IsServiceRole())
			assert.Equal(t, userID, c.Get("user_id"))
			return c.NoContent(http.StatusOK)
		})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_ServiceRole(t *testing.T) {
	claims := jwt.MapClaims{"role": RoleServiceRole, "exp": time.Now().Add(time.Hour).Unix()}

	rec := runMiddleware(t, "/api/billing/resync", "Bearer "+signToken(t, claims, testSecret),
		func(c echo.Context) error {
			user, err := GetUserFromContext(c)
			assert.NoError(t, err)
			assert.True(t, user.IsServiceRole())
			assert.Empty(t, user.UserID)
			return c.NoContent(http.StatusOK)
		})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired := userClaims("user-1", "authenticated")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noSubject := userClaims("", "authenticated")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "MISSING_AUTH_HEADER"},
		{"not a bearer token", "Basic dXNlcjpwYXNz", "INVALID_AUTH_FORMAT"},
		{"wrong secret", "Bearer " + signToken(t, userClaims("user-1", "authenticated"), "other-secret"), "INVALID_TOKEN"},
		{"expired", "Bearer " + signToken(t, expired, testSecret), "INVALID_TOKEN"},
		{"garbage", "Bearer not.a.jwt", "INVALID_TOKEN"},
		{"no subject", "Bearer " + signToken(t, noSubject, testSecret), "INVALID_CLAIMS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runMiddleware(t, "/api/entitlements", tt.header, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestJWTMiddleware_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, userClaims("user-1", "authenticated"))
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	rec := runMiddleware(t, "/api/entitlements", "Bearer "+tokenString, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	for _, path := range []string{"/health", "/webhook", "/api/v1/account"} {
		rec := runMiddleware(t, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	user, err := RequireAuth(c)
	assert.Nil(t, user)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")

	c.SetRequest(req.WithContext(WithUser(req.Context(), &AuthUser{UserID: "user-1"})))
	user, err = GetUserFromContext(c)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
}
