package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/util"
	"github.com/snapline/backend/internal/validation"
)

// SignupRequest is the payload for account creation
type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// LoginRequest is the payload for authentication
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a reset link
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the reset flow
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password" binding:"required"`
}

// Signup creates a new account
// POST /api/v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email, username, display_name and password are required")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if !validation.IsValidEmail(req.Email) {
		util.RespondValidationError(c, "email", "invalid email address")
		return
	}
	if !validation.IsValidHandle(req.Username) {
		util.RespondValidationError(c, "username", "username must be 3-30 characters: letters, digits, dot or underscore")
		return
	}
	if !validation.IsValidPassword(req.Password) {
		util.RespondValidationError(c, "password", "password must be 8-32 characters with lowercase, uppercase, digit and special character")
		return
	}

	user, err := h.authService.RegisterUser(req.Email, req.Username, req.DisplayName, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		util.RespondConflict(c, "already registered, please login")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondCreated(c, "account created", user)
}

// Login authenticates with email and password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	user, token, expiresAt, err := h.authService.LoginUser(strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		// Unknown email and wrong password are indistinguishable
		util.RespondUnauthorized(c, "invalid username or password")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.setSessionCookie(c, token)

	util.RespondOK(c, "logged in", gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Logout clears the session
// GET /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(userID); err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.clearSessionCookie(c)
	util.RespondOK(c, "logged out", nil)
}

// Me returns the authenticated account
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	util.RespondOK(c, "authenticated", user)
}

// ForgotPassword issues a reset token and emails a link. The response
// never says whether the address is registered.
// POST /api/v1/auth/forgot-password
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email is required")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !validation.IsValidEmail(email) {
		util.RespondValidationError(c, "email", "invalid email address")
		return
	}

	reset, user, err := h.authService.RequestPasswordReset(email)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if reset != nil && h.emailSender != nil {
		if err := h.emailSender.SendPasswordResetEmail(c.Request.Context(), user.Email, reset.Token); err != nil {
			// The token is already persisted; the user can retry.
			logger.ErrorWithFields("Failed to send password reset email", err)
		}
	}

	util.RespondOK(c, "if that email is registered, a reset link has been sent", nil)
}

// ResetPassword verifies a reset token and sets a new password. The
// token comes from the request body or the reset_token cookie.
// POST /api/v1/auth/reset-password
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "password is required")
		return
	}

	token := req.Token
	if token == "" {
		if cookie, err := c.Request.Cookie(auth.ResetCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		util.RespondBadRequest(c, "reset token is required")
		return
	}

	if !validation.IsValidPassword(req.Password) {
		util.RespondValidationError(c, "password", "password must be 8-32 characters with lowercase, uppercase, digit and special character")
		return
	}

	err := h.authService.ResetPassword(token, req.Password)
	if errors.Is(err, auth.ErrInvalidToken) {
		util.RespondUnauthorized(c, "invalid or expired reset token")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "password updated, please login", nil)
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	// 24h, matching the session token TTL
	c.SetCookie(auth.SessionCookieName, token, 24*60*60, "/", h.cookieDomain, h.cookieSecure, true)
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, "", -1, "/", h.cookieDomain, h.cookieSecure, true)
}
