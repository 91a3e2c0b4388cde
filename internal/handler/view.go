package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/graph"
	"github.com/prperemyshlev/page-manager/internal/service"
	"go.uber.org/zap"
)

// view is the data every page template receives.
type view struct {
	Title    string
	Active   string
	Path     string
	Username string
	Prefs    domain.Preferences
	Flashes  []domain.Flash
	Accounts []*domain.FacebookAccount
	Selected *domain.FacebookAccount
	Data     any
}

type errorData struct {
	Message string
}

type authData struct {
	Username string
	Email    string
}

// Pages holds the dependencies shared by the HTML handlers.
type Pages struct {
	accounts service.AccountService
	prefs    *service.PreferencesStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewPages creates the shared page helpers.
func NewPages(accounts service.AccountService, prefs *service.PreferencesStore, logger *zap.Logger) *Pages {
	return &Pages{accounts: accounts, prefs: prefs, logger: logger, now: time.Now}
}

// newView builds the layout data for the current user. The selected account
// falls back to the first connected account when the stored selection is
// gone.
func (p *Pages) newView(c *gin.Context, title, active string) *view {
	sc := sessionContext(c)
	v := &view{
		Title:    title,
		Active:   active,
		Path:     c.Request.URL.Path,
		Username: sc.Username,
		Prefs:    domain.DefaultPreferences(),
	}

	prefs, err := p.prefs.Get(c.Request.Context(), sc.UserID)
	if err != nil {
		p.logger.Warn("failed to load preferences", zap.String("user_id", sc.UserID), zap.Error(err))
	} else {
		v.Prefs = prefs
	}

	accounts, err := p.accounts.List(c.Request.Context(), sc.UserID)
	if err != nil {
		p.logger.Error("failed to list accounts", zap.String("user_id", sc.UserID), zap.Error(err))
		sc.AddFlash(domain.FlashError, "Could not load your Facebook accounts.")
	}
	v.Accounts = accounts

	for _, a := range accounts {
		if a.ID == sc.SelectedAccountID {
			v.Selected = a
			break
		}
	}
	if v.Selected == nil && len(accounts) > 0 {
		v.Selected = accounts[0]
		sc.SelectAccount(v.Selected.ID)
	}
	if v.Selected == nil {
		sc.SelectAccount("")
	}

	return v
}

// render takes the queued flashes and writes the page.
func (p *Pages) render(c *gin.Context, status int, name string, v *view) {
	if sc := sessionContext(c); sc != nil {
		v.Flashes = sc.TakeFlashes()
	}
	c.HTML(status, name, v)
}

// flashRedirect queues a message and redirects with 303.
func flashRedirect(c *gin.Context, kind domain.FlashKind, message, location string) {
	if sc := sessionContext(c); sc != nil && message != "" {
		sc.AddFlash(kind, "%s", message)
	}
	c.Redirect(http.StatusSeeOther, location)
}

// requireAccount returns the view with a selected account, or redirects to
// the accounts page when the user has none.
func (p *Pages) requireAccount(c *gin.Context, title, active string) (*view, bool) {
	v := p.newView(c, title, active)
	if v.Selected == nil {
		flashRedirect(c, domain.FlashWarning, "Please add a Facebook account first.", "/accounts")
		return nil, false
	}
	return v, true
}

// userMessage maps an error to text that is safe to show.
func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, service.ErrUserExists):
		return "Username or email already exists"
	case errors.Is(err, service.ErrAccountExists):
		return "This page is already connected"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, apisession.ErrAccountNotFound):
		return "Facebook account not found"
	case errors.Is(err, apisession.ErrEmptyMessage):
		return "Message cannot be empty"
	case errors.Is(err, service.ErrSessionInvalid):
		return "Your session has expired. Please log in again."
	}

	if gerr, ok := graph.AsError(err); ok {
		if gerr.IsTokenExpired() {
			return "The page access token is invalid or expired: " + gerr.Message
		}
		return "Facebook API error: " + gerr.Message
	}

	return "Something went wrong. Please try again."
}

// statusFor maps an error to the JSON API status code.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, apisession.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, apisession.ErrAccountNotFound):
		return http.StatusNotFound
	}
	if _, ok := graph.AsError(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
