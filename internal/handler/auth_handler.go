package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/service"
	"go.uber.org/zap"
)

var loginNotices = map[string]domain.Flash{
	"expired":          {Kind: domain.FlashWarning, Message: "Your session has expired. Please log in again."},
	"logged_out":       {Kind: domain.FlashInfo, Message: "You have been logged out."},
	"password_changed": {Kind: domain.FlashSuccess, Message: "Password changed successfully. Please log in again."},
}

// AuthHandler handles login, registration and logout
type AuthHandler struct {
	authService service.AuthService
	cookie      Cookie
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, cookie Cookie, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(c *gin.Context) {
	v := &view{Title: "Log in", Data: authData{}}
	if notice, ok := loginNotices[c.Query("notice")]; ok {
		v.Flashes = append(v.Flashes, notice)
	}
	c.HTML(http.StatusOK, "login", v)
}

// Login authenticates the user and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderForm(c, "login", "Log in", http.StatusBadRequest, authData{}, "Invalid form submission")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		}
		h.renderForm(c, "login", "Log in", formStatus(err), authData{Username: req.Username}, userMessage(err))
		return
	}

	h.startSession(c, session)
}

// RegisterPage renders the registration form
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register", &view{Title: "Register", Data: authData{}})
}

// Register creates the user and logs them in
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderForm(c, "register", "Register", http.StatusBadRequest, authData{}, "Invalid form submission")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, service.ErrUserExists) {
			h.logger.Error("registration failed", zap.Error(err))
		}
		h.renderForm(c, "register", "Register", formStatus(err),
			authData{Username: req.Username, Email: req.Email}, userMessage(err))
		return
	}

	h.startSession(c, session)
}

// Logout invalidates the session and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), claimsFrom(c)); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
	}

	endSession(c)
	h.cookie.clear(c)
	c.Redirect(http.StatusSeeOther, "/login?notice=logged_out")
}

func (h *AuthHandler) startSession(c *gin.Context, session *service.Session) {
	h.cookie.set(c, session.Token, session.Claims.TTL(time.Now()))
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *AuthHandler) renderForm(c *gin.Context, name, title string, status int, data authData, message string) {
	c.HTML(status, name, &view{
		Title:   title,
		Data:    data,
		Flashes: []domain.Flash{{Kind: domain.FlashError, Message: message}},
	})
}

// formStatus maps a form submission error to its status code.
func formStatus(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserExists), errors.Is(err, service.ErrAccountExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
