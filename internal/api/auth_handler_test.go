package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/identity"
	"github.com/openbookings/reservation-backend/internal/identity/identitytest"
	"github.com/openbookings/reservation-backend/internal/user"
)

const testSecret = "test-signing-secret"

// fakeUserService records mirror calls and serves canned details. The
// resource and reservation services stay nil; these tests never route there.
type fakeUserService struct {
	user.Service

	mirrored map[string]string
}

func (f *fakeUserService) EnsureExists(_ context.Context, id, userName string) (*user.User, error) {
	f.mirrored[id] = strings.ToLower(userName)
	return &user.User{ID: id, UserName: strings.ToLower(userName)}, nil
}

func (f *fakeUserService) DetailByUserName(_ context.Context, userName string) (*user.Detail, error) {
	for id, name := range f.mirrored {
		if name == strings.ToLower(userName) {
			return &user.Detail{User: user.User{ID: id, UserName: name}}, nil
		}
	}
	return nil, user.ErrNotFound
}

func newTestRouter(t *testing.T) (*gin.Engine, *identitytest.Server, *fakeUserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idp := identitytest.NewServer("booking", testSecret)
	t.Cleanup(idp.Close)

	client := identity.NewClient(identity.Config{
		BaseURL:       idp.URL(),
		Realm:         "booking",
		ClientID:      "backend",
		AdminUsername: identitytest.AdminUsername,
		AdminPassword: identitytest.AdminPassword,
	})

	users := &fakeUserService{mirrored: make(map[string]string)}
	router := NewRouter(Config{
		UserService:       users,
		Provider:          client,
		Verifier:          auth.NewTokenVerifier(testSecret),
		LogoutRedirectURL: "https://app.example.com/",
	})
	return router, idp, users
}

func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	router, idp, _ := newTestRouter(t)
	idp.AddUser("alice", "hunter2")

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/login", `{"username":"Alice","password":"hunter2"}`, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/login", `{"username":"alice","password":"wrong"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid user credentials")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/login", `{"username":"alice"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must provide username and password")
	})
}

func TestRegister(t *testing.T) {
	router, _, users := newTestRouter(t)

	t.Run("creates and mirrors the account", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/register",
			`{"email":"bob@example.com","username":"Bob","password":"hunter2"}`, "")
		require.Equal(t, http.StatusCreated, w.Code)

		var resp RegisterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.UserID)
		assert.Equal(t, "bob", resp.UserName)
		assert.Equal(t, "bob", users.mirrored[resp.UserID])
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/register",
			`{"email":"other@example.com","username":"bob","password":"hunter2"}`, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "User with same name or email already exists")
	})

	t.Run("missing email", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/register",
			`{"username":"carol","password":"hunter2"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must provide valid email, username, and password")
	})

	t.Run("new account can log in", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/login", `{"username":"bob","password":"hunter2"}`, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLogout(t *testing.T) {
	router, idp, _ := newTestRouter(t)
	token := idp.SignToken("u-1", "alice")

	w := doJSON(router, http.MethodGet, "/v1/logout", "", token)
	require.Equal(t, http.StatusFound, w.Code)

	location := w.Header().Get("Location")
	assert.Contains(t, location, "/realms/booking/protocol/openid-connect/logout")
	assert.Contains(t, location, "redirect_uri=https%3A%2F%2Fapp.example.com%2F")
}

func TestWhoAmI(t *testing.T) {
	router, idp, users := newTestRouter(t)
	users.mirrored["u-1"] = "alice"
	token := idp.SignToken("u-1", "Alice")

	t.Run("without a token", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/v1/whoami", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("with a token", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/v1/whoami", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			UserID   string `json:"userID"`
			UserName string `json:"userName"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "u-1", resp.UserID)
		assert.Equal(t, "alice", resp.UserName)
	})
}

func TestHome(t *testing.T) {
	router, idp, _ := newTestRouter(t)
	token := idp.SignToken("u-1", "alice")

	w := doJSON(router, http.MethodGet, "/", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome! You are logged in as alice", w.Body.String())
}

func TestBrowserEntryPointsRedirectHome(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/v1/login", "/v1/register"} {
		w := doJSON(router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	}
}
