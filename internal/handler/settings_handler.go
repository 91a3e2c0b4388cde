package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/service"
	"go.uber.org/zap"
)

type settingsData struct {
	User        *domain.User
	Themes      []string
	DateFormats []string
}

// SettingsHandler serves the profile, preferences and password forms
type SettingsHandler struct {
	*Pages
	authService service.AuthService
	cookie      Cookie
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(pages *Pages, authService service.AuthService, cookie Cookie) *SettingsHandler {
	return &SettingsHandler{Pages: pages, authService: authService, cookie: cookie}
}

// Show renders the settings page
func (h *SettingsHandler) Show(c *gin.Context) {
	v := h.newView(c, "Settings", "settings")
	sc := sessionContext(c)

	user, err := h.authService.GetUser(c.Request.Context(), sc.UserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.String("user_id", sc.UserID), zap.Error(err))
		sc.AddFlash(domain.FlashError, "Could not load your profile.")
	}

	v.Data = settingsData{
		User:        user,
		Themes:      domain.Themes,
		DateFormats: domain.DateFormats,
	}
	h.render(c, http.StatusOK, "settings", v)
}

// SavePreferences stores the display preferences
func (h *SettingsHandler) SavePreferences(c *gin.Context) {
	var req dto.PreferencesRequest
	if err := c.ShouldBind(&req); err != nil {
		flashRedirect(c, domain.FlashError, "Invalid form submission", "/settings")
		return
	}

	sc := sessionContext(c)
	if _, err := h.prefs.Save(c.Request.Context(), sc.UserID, &req); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			h.logger.Error("failed to save preferences", zap.String("user_id", sc.UserID), zap.Error(err))
		}
		flashRedirect(c, domain.FlashError, "Failed to save preferences: "+userMessage(err), "/settings")
		return
	}

	flashRedirect(c, domain.FlashSuccess, "Preferences saved!", "/settings")
}

// ChangePassword updates the password and ends the session
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		flashRedirect(c, domain.FlashError, "Invalid form submission", "/settings")
		return
	}

	sc := sessionContext(c)
	ctx := c.Request.Context()
	if err := h.authService.ChangePassword(ctx, sc.UserID, &req); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			h.logger.Error("failed to change password", zap.String("user_id", sc.UserID), zap.Error(err))
		}
		flashRedirect(c, domain.FlashError, "Failed to change password: "+userMessage(err), "/settings")
		return
	}

	if err := h.authService.Logout(ctx, claimsFrom(c)); err != nil {
		h.logger.Error("logout after password change failed", zap.Error(err))
	}
	endSession(c)
	h.cookie.clear(c)
	c.Redirect(http.StatusSeeOther, "/login?notice=password_changed")
}
