package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func testConfig() config.Config {
	return config.Config{JWTSecret: testSecret}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

// ミドルウェアを通した後のuser_id/roleを返すだけのハンドラ
func identityEcho() echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get(CtxUserIDKey).(int64)
		role, _ := c.Get(CtxUserRoleKey).(string)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"user_id": userID,
			"role":    role,
		})
	}
}

func doRequest(mw echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = mw(identityEcho())(c)
	return rec
}

func TestAuthJWT_NoHeader(t *testing.T) {
	rec := doRequest(AuthJWT(testConfig()), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_MalformedHeader(t *testing.T) {
	rec := doRequest(AuthJWT(testConfig()), "Token xxx")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "3",
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec := doRequest(AuthJWT(testConfig()), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":3`)
	assert.Contains(t, rec.Body.String(), `"role":"USER"`)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "3",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	rec := doRequest(AuthJWT(testConfig()), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "3"})
	signed, err := token.SignedString([]byte("other-secret"))
	assert.NoError(t, err)

	rec := doRequest(AuthJWT(testConfig()), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthJWT_NoHeader_PassesAnonymous(t *testing.T) {
	rec := doRequest(OptionalAuthJWT(testConfig()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":0`)
}

func TestOptionalAuthJWT_ValidToken_SetsIdentity(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "5",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec := doRequest(OptionalAuthJWT(testConfig()), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":5`)
}

func TestAdminRoleGuard_AllowsAdminOnly(t *testing.T) {
	e := echo.New()

	run := func(role interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxUserRoleKey, role)
		}
		_ = AdminRoleGuard()(identityEcho())(c)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, run(nil).Code)
	assert.Equal(t, http.StatusForbidden, run("USER").Code)
	assert.Equal(t, http.StatusOK, run("ADMIN").Code)
}
