package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/service"
	"go.uber.org/zap"
)

const (
	ctxClaims       = "claims"
	ctxSession      = "session"
	ctxUserID       = "user_id"
	ctxSessionEnded = "session_ended"
)

// Cookie describes the session cookie.
type Cookie struct {
	Name   string
	Secure bool
}

func (ck Cookie) set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, token, int(ttl.Seconds()), "/", "", ck.Secure, true)
}

func (ck Cookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, "", -1, "/", "", ck.Secure, true)
}

// SessionAuth validates the session token and loads its session context.
// The context is written back to Redis after the handler ran.
type SessionAuth struct {
	auth     service.AuthService
	sessions *service.SessionStore
	cookie   Cookie
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionAuth creates the session middleware factory.
func NewSessionAuth(auth service.AuthService, sessions *service.SessionStore, cookie Cookie, logger *zap.Logger) *SessionAuth {
	return &SessionAuth{
		auth:     auth,
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
		now:      time.Now,
	}
}

// RequirePage protects HTML routes: an invalid session clears the cookie and
// redirects to the login page.
func (s *SessionAuth) RequirePage() gin.HandlerFunc {
	return s.middleware(func(c *gin.Context, hadToken bool) {
		s.cookie.clear(c)
		location := "/login"
		if hadToken {
			location += "?notice=expired"
		}
		c.Redirect(http.StatusSeeOther, location)
		c.Abort()
	})
}

// RequireAPI protects JSON routes with a 401 response.
func (s *SessionAuth) RequireAPI() gin.HandlerFunc {
	return s.middleware(func(c *gin.Context, _ bool) {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid or expired session",
		})
		c.Abort()
	})
}

func (s *SessionAuth) middleware(reject func(c *gin.Context, hadToken bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.token(c)
		if token == "" {
			reject(c, false)
			return
		}

		ctx := c.Request.Context()
		claims, err := s.auth.ValidateSession(ctx, token)
		if err != nil {
			if !errors.Is(err, service.ErrSessionInvalid) {
				s.logger.Error("failed to validate session", zap.Error(err))
			}
			reject(c, true)
			return
		}

		sc, err := s.sessions.Load(ctx, claims.SessionID)
		if err != nil {
			if !errors.Is(err, service.ErrSessionNotFound) {
				s.logger.Warn("failed to load session context", zap.String("session_id", claims.SessionID), zap.Error(err))
			}
			sc = &domain.SessionContext{
				SessionID: claims.SessionID,
				UserID:    claims.UserID,
				Username:  claims.Username,
			}
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxSession, sc)
		c.Set(ctxUserID, claims.UserID)

		c.Next()

		if c.GetBool(ctxSessionEnded) {
			return
		}
		ttl := claims.TTL(s.now())
		if ttl <= 0 {
			return
		}
		if err := s.sessions.Save(context.WithoutCancel(ctx), sc, ttl); err != nil {
			s.logger.Warn("failed to save session context", zap.String("session_id", sc.SessionID), zap.Error(err))
		}
	}
}

// token reads the session cookie, then the bearer header.
func (s *SessionAuth) token(c *gin.Context) string {
	if v, err := c.Cookie(s.cookie.Name); err == nil && v != "" {
		return v
	}

	header := c.GetHeader("Authorization")
	if v, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func claimsFrom(c *gin.Context) *domain.SessionClaims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*domain.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

func sessionContext(c *gin.Context) *domain.SessionContext {
	if v, ok := c.Get(ctxSession); ok {
		if sc, ok := v.(*domain.SessionContext); ok {
			return sc
		}
	}
	return nil
}

// endSession stops the middleware from writing the context back.
func endSession(c *gin.Context) {
	c.Set(ctxSessionEnded, true)
}
