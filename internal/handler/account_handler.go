package handler

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"go.uber.org/zap"
)

// AccountHandler manages the connected Facebook pages
type AccountHandler struct {
	*Pages
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(pages *Pages) *AccountHandler {
	return &AccountHandler{Pages: pages}
}

// List renders the accounts page
func (h *AccountHandler) List(c *gin.Context) {
	h.render(c, http.StatusOK, "accounts", h.newView(c, "Accounts", "accounts"))
}

// Add connects a page after its token was validated
func (h *AccountHandler) Add(c *gin.Context) {
	var req dto.AddAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		flashRedirect(c, domain.FlashError, "Invalid form submission", "/accounts")
		return
	}

	sc := sessionContext(c)
	account, page, err := h.accounts.Add(c.Request.Context(), sc.UserID, &req)
	if err != nil {
		h.logFailure("add account", sc.UserID, err)
		flashRedirect(c, domain.FlashError, "Failed to add account: "+userMessage(err), "/accounts")
		return
	}

	sc.SelectAccount(account.ID)
	flashRedirect(c, domain.FlashSuccess, "Account '"+account.AccountName+"' added. Connected to page: "+page.Name, "/accounts")
}

// Update edits an account; blank fields keep their value
func (h *AccountHandler) Update(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		flashRedirect(c, domain.FlashError, "Invalid form submission", "/accounts")
		return
	}

	sc := sessionContext(c)
	account, err := h.accounts.Update(c.Request.Context(), c.Param("id"), sc.UserID, &req)
	if err != nil {
		h.logFailure("update account", sc.UserID, err)
		flashRedirect(c, domain.FlashError, "Failed to update account: "+userMessage(err), "/accounts")
		return
	}

	flashRedirect(c, domain.FlashSuccess, "Account '"+account.AccountName+"' updated.", "/accounts")
}

// Delete removes an account once its name was retyped
func (h *AccountHandler) Delete(c *gin.Context) {
	var req dto.DeleteAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		flashRedirect(c, domain.FlashError, "Invalid form submission", "/accounts")
		return
	}

	sc := sessionContext(c)
	id := c.Param("id")
	if err := h.accounts.Delete(c.Request.Context(), id, sc.UserID, req.ConfirmName); err != nil {
		h.logFailure("delete account", sc.UserID, err)
		flashRedirect(c, domain.FlashError, "Failed to delete account: "+userMessage(err), "/accounts")
		return
	}

	if sc.SelectedAccountID == id {
		sc.SelectAccount("")
	}
	flashRedirect(c, domain.FlashSuccess, "Account deleted.", "/accounts")
}

// Test reads the page with the stored token
func (h *AccountHandler) Test(c *gin.Context) {
	sc := sessionContext(c)
	page, err := h.accounts.TestConnection(c.Request.Context(), c.Param("id"), sc.UserID)
	if err != nil {
		h.logFailure("test connection", sc.UserID, err)
		flashRedirect(c, domain.FlashError, "Connection failed: "+userMessage(err), "/accounts")
		return
	}

	sc.AddFlash(domain.FlashSuccess, "Connection successful! Page: %s (%d fans)", page.Name, page.FanCount)
	c.Redirect(http.StatusSeeOther, "/accounts")
}

// Select switches the active account and returns to the page it came from
func (h *AccountHandler) Select(c *gin.Context) {
	var req dto.SelectAccountRequest
	_ = c.ShouldBind(&req)

	next := localPath(req.Next, "/dashboard")

	sc := sessionContext(c)
	if _, err := h.accounts.Get(c.Request.Context(), req.AccountID, sc.UserID); err != nil {
		flashRedirect(c, domain.FlashError, userMessage(err), next)
		return
	}

	sc.SelectAccount(req.AccountID)
	c.Redirect(http.StatusSeeOther, next)
}

// localPath returns next when it is a path on this site, and fallback for
// anything a browser could resolve to another host.
func localPath(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	if strings.ContainsFunc(next, func(r rune) bool { return r == '\\' || unicode.IsControl(r) }) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func (h *AccountHandler) logFailure(op, userID string, err error) {
	status := formStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("account operation failed", zap.String("operation", op), zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.logger.Debug("account operation rejected", zap.String("operation", op), zap.String("user_id", userID), zap.Error(err))
}

