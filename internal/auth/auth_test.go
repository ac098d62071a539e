package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, username string, roles []string, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		PreferredUsername: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	claims.RealmAccess.Roles = roles

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	token := signToken(t, testSecret, "Alice", []string{"admin"}, time.Minute)

	id, err := v.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "alice", id.Username, "usernames are normalized to lowercase")
	assert.True(t, id.IsAdmin())
	assert.Equal(t, token, id.Token)
}

func TestVerifyRejects(t *testing.T) {
	v := NewTokenVerifier(testSecret)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signToken(t, "other-secret", "alice", nil, time.Minute))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, "alice", nil, -time.Minute))
		assert.Error(t, err)
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, "", nil, time.Minute))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestRequireOwner(t *testing.T) {
	denied := apperror.Forbidden("denied")

	assert.NoError(t, RequireOwner(&Identity{Username: "alice"}, "alice", denied))
	assert.NoError(t, RequireOwner(&Identity{Username: "root", Roles: []string{AdminRole}}, "alice", denied))
	assert.ErrorIs(t, RequireOwner(&Identity{Username: "bob"}, "alice", denied), denied)
}

func setupRouter(verifier *TokenVerifier, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthRequired(verifier)}
	if adminOnly {
		handlers = append(handlers, RequireAdmin())
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetIdentity(c).Username})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthRequired(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	r := setupRouter(v, false)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + signToken(t, testSecret, "alice", nil, time.Minute), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	r := setupRouter(v, true)

	member := signToken(t, testSecret, "alice", []string{"member"}, time.Minute)
	admin := signToken(t, testSecret, "root", []string{"member", "admin"}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
