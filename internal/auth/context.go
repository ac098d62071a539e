package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

// AdminRole is the realm role that grants unrestricted access.
const AdminRole = "admin"

const identityKey = "identity"

// Identity is the authenticated caller, carried explicitly through handlers
// and services instead of being read from ambient request state.
type Identity struct {
	UserID   string
	Username string
	Roles    []string
	Token    string
}

// IsAdmin reports whether the identity holds the admin realm role.
func (id *Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r == AdminRole {
			return true
		}
	}
	return false
}

// RequireOwner returns denied unless the actor is the owner or an admin.
func RequireOwner(actor *Identity, owner string, denied *apperror.AppError) error {
	if actor.Username == owner || actor.IsAdmin() {
		return nil
	}
	return denied
}

// SetIdentity stores the authenticated identity into the Gin context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the authenticated identity or nil.
func GetIdentity(c *gin.Context) *Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return nil
}
