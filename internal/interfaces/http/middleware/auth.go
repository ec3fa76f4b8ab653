// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/pkg/auth"
	"github.com/thesheunit/storefront/internal/session"
)

// SessionHeader carries the storefront session id in both directions
const SessionHeader = "X-Session-ID"

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// Session attaches the storefront session to the request and settles its
// identity from the bearer token. Requests without a valid token are
// anonymous.
func Session(reg *session.Registry, verifier identity.Verifier, cfg *config.Config, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id, _ = c.Cookie(cfg.Session.CookieName)
		}

		sess, created := reg.Acquire(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.Session.CookieName, sess.ID, int(cfg.Session.IdleTTL.Seconds()), "/", "", cfg.Session.CookieSecure, true)
		}
		c.Header(SessionHeader, sess.ID)

		var who *identity.Identity
		if token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
			resolved, err := verifier.Verify(c.Request.Context(), token)
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"session_id": sess.ID,
				}).Debug("Bearer token rejected")
			} else {
				who = resolved
			}
		}
		sess.Resolve(who)

		c.Set(sessionKey, sess)
		if who != nil {
			c.Set(identityKey, who)
			c.Set("user_id", who.UserID)
		}
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests with a sign-in redirect
func RequireIdentity(signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":       "Authentication required",
				"redirect_to": signInPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin ensures the identity is an administrator
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}
		if !who.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the storefront session of the request
func GetSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// GetIdentity returns the verified identity of the request
func GetIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	who, ok := v.(*identity.Identity)
	return who, ok && who != nil
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	who, ok := GetIdentity(c)
	if !ok {
		return 0, false
	}
	return who.UserID, true
}
