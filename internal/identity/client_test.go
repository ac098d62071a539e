package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbookings/reservation-backend/internal/identity/identitytest"
)

func newTestClient(t *testing.T) (*Client, *identitytest.Server) {
	t.Helper()
	srv := identitytest.NewServer("bookings", "test-secret")
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:       srv.URL(),
		Realm:         "bookings",
		ClientID:      "reservation-backend",
		AdminUsername: identitytest.AdminUsername,
		AdminPassword: identitytest.AdminPassword,
	})
	return c, srv
}

func TestLogin(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("alice", "hunter2", "member")

	token, err := c.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)

	_, err = c.Login(context.Background(), "alice", "wrong")
	var status *ErrorStatus
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 401, status.StatusCode)
}

func TestRegister(t *testing.T) {
	c, _ := newTestClient(t)

	u, err := c.Register(context.Background(), "bob@example.com", "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.NotEmpty(t, u.ID)

	// Same username again conflicts at the provider.
	_, err = c.Register(context.Background(), "other@example.com", "bob", "secret")
	var status *ErrorStatus
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 409, status.StatusCode)

	// The new account can log in right away.
	_, err = c.Login(context.Background(), "bob", "secret")
	assert.NoError(t, err)
}

func TestUsers(t *testing.T) {
	c, srv := newTestClient(t)
	aliceID := srv.AddUser("alice", "pw")
	bobID := srv.AddUser("bob", "pw")

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	byName := map[string]string{}
	for _, u := range users {
		byName[u.Username] = u.ID
	}
	assert.Equal(t, aliceID, byName["alice"])
	assert.Equal(t, bobID, byName["bob"])
}

func TestRoleLifecycle(t *testing.T) {
	c, srv := newTestClient(t)
	id := srv.AddUser("alice", "pw", "member")

	roles, err := c.Roles(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"member"}, roles)

	require.NoError(t, c.GrantRole(context.Background(), id, "admin"))
	roles, err = c.Roles(context.Background(), id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"member", "admin"}, roles)

	require.NoError(t, c.RevokeRole(context.Background(), id, "admin"))
	roles, err = c.Roles(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"member"}, roles)
}

func TestDeleteUser(t *testing.T) {
	c, srv := newTestClient(t)
	id := srv.AddUser("alice", "pw")

	require.NoError(t, c.DeleteUser(context.Background(), id))

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	err = c.DeleteUser(context.Background(), id)
	var status *ErrorStatus
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 404, status.StatusCode)
}

func TestLogoutURL(t *testing.T) {
	c, srv := newTestClient(t)
	want := srv.URL() + "/realms/bookings/protocol/openid-connect/logout?redirect_uri=https%3A%2F%2Fapp.example%2F"
	assert.Equal(t, want, c.LogoutURL("https://app.example/"))
}
