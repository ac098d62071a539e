package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/identity"
	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
	"github.com/openbookings/reservation-backend/internal/pkg/response"
	"github.com/openbookings/reservation-backend/internal/user"
	userHttp "github.com/openbookings/reservation-backend/internal/user/http"
)

var (
	errMissingCredentials = apperror.BadRequest("Must provide username and password")
	errInvalidCredentials = apperror.Unauthorized("Invalid user credentials")
	errInvalidRegister    = apperror.BadRequest("Must provide valid email, username, and password")
	errUserTaken          = apperror.Conflict("User with same name or email already exists")
)

type AuthHandler struct {
	userService    user.Service
	provider       identity.Provider
	logoutRedirect string
}

func NewAuthHandler(userService user.Service, provider identity.Provider, logoutRedirect string) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		provider:       provider,
		logoutRedirect: logoutRedirect,
	}
}

//
// POST /v1/login
//

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		response.Error(c, errMissingCredentials)
		return
	}

	token, err := h.provider.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var status *identity.ErrorStatus
		if errors.As(err, &status) && (status.StatusCode == http.StatusUnauthorized || status.StatusCode == http.StatusBadRequest) {
			response.Error(c, errInvalidCredentials)
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
	})
}

//
// POST /v1/register
//

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Username == "" || req.Password == "" {
		response.Error(c, errInvalidRegister)
		return
	}

	ctx := c.Request.Context()

	account, err := h.provider.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		var status *identity.ErrorStatus
		if errors.As(err, &status) {
			switch status.StatusCode {
			case http.StatusBadRequest:
				response.Error(c, errInvalidRegister)
				return
			case http.StatusConflict:
				response.Error(c, errUserTaken)
				return
			}
		}
		response.Error(c, err)
		return
	}

	// Mirror the account right away so it is visible before its first login.
	u, err := h.userService.EnsureExists(ctx, account.ID, account.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{UserID: u.ID, UserName: u.UserName})
}

//
// GET /v1/logout
//

func (h *AuthHandler) Logout(c *gin.Context) {
	c.Redirect(http.StatusFound, h.provider.LogoutURL(h.logoutRedirect))
}

//
// GET /v1/whoami
//

func (h *AuthHandler) WhoAmI(c *gin.Context) {
	id := auth.GetIdentity(c)

	detail, err := h.userService.DetailByUserName(c.Request.Context(), id.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, userHttp.NewDetailResponse(detail))
}

//
// GET /
//

func (h *AuthHandler) Home(c *gin.Context) {
	id := auth.GetIdentity(c)
	c.String(http.StatusOK, fmt.Sprintf("Welcome! You are logged in as %s", id.Username))
}
