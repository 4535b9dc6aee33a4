package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-restful/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func testUser(id uint, active bool) *models.User {
	return &models.User{Model: gorm.Model{ID: id}, Email: fmt.Sprintf("user%d@example.com", id), IsActive: active}
}

func protectedContainer(users UserLookup) *restful.Container {
	ws := new(restful.WebService)
	ws.Route(ws.GET("/protected").Filter(AuthFilter(users)).To(func(req *restful.Request, resp *restful.Response) {
		id, ok := RequestingUserID(req)
		if !ok {
			resp.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = resp.Write([]byte(fmt.Sprintf("user %d", id)))
	}))
	container := restful.NewContainer()
	container.Add(ws)
	return container
}

func doProtected(container *restful.Container, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	container.ServeHTTP(w, req)
	return w
}

func TestGenerateToken(t *testing.T) {
	user := testUser(7, true)

	token, err := GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseAndValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestParseAndValidateTokenRejectsOtherKey(t *testing.T) {
	claims := &CustomClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	_, err = ParseAndValidateToken(signed)
	assert.EqualError(t, err, "invalid token signature")
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = TokenFromHeader("Token xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = TokenFromHeader("Basic abc")
	assert.Error(t, err)
	_, err = TokenFromHeader("Bearer")
	assert.Error(t, err)
}

func TestAuthFilter(t *testing.T) {
	active := testUser(1, true)
	inactive := testUser(2, false)
	container := protectedContainer(fakeUsers{1: active, 2: inactive})

	t.Run("No token", func(t *testing.T) {
		w := doProtected(container, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "not provided")
	})

	t.Run("Invalid token format", func(t *testing.T) {
		w := doProtected(container, "InvalidTokenFormat")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid authorization header format")
	})

	t.Run("Valid token", func(t *testing.T) {
		token, err := GenerateToken(active)
		require.NoError(t, err)

		w := doProtected(container, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user 1", w.Body.String())
	})

	t.Run("Expired token", func(t *testing.T) {
		claims := &CustomClaims{
			UserID: active.ID,
			Email:  active.Email,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(mySigningKey)
		require.NoError(t, err)

		w := doProtected(container, "Bearer "+signedToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token is either expired or not active yet")
	})

	t.Run("Inactive user", func(t *testing.T) {
		token, err := GenerateToken(inactive)
		require.NoError(t, err)

		w := doProtected(container, "Token "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Deleted user", func(t *testing.T) {
		token, err := GenerateToken(testUser(99, true))
		require.NoError(t, err)

		w := doProtected(container, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
