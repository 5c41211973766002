package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"imagedrop/api/internal/models"
	"imagedrop/api/internal/security"
	"imagedrop/api/internal/session"
)

// ContextSession is the gin context key holding the authenticated session.
const ContextSession = "current_session"

// currentSession resolves the signed cookie to a live server-side session.
// Any failure along the way (missing cookie, bad signature, unknown or
// expired session) reads as unauthenticated.
func currentSession(c *gin.Context, secret string, sessions session.Store) (models.Session, bool) {
	cookie, err := c.Cookie(security.SessionCookieName)
	if err != nil || cookie == "" {
		return models.Session{}, false
	}

	sessionID, err := security.ParseSessionID(secret, cookie)
	if err != nil {
		return models.Session{}, false
	}

	sess, err := sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		return models.Session{}, false
	}
	return sess, true
}

// RequireSession gates API routes: unauthenticated requests get the JSON
// envelope with a 401.
func RequireSession(secret string, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, secret, sessions)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
			})
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RequireSessionPage gates page routes: unauthenticated requests are
// redirected to the login page instead of getting a JSON error.
func RequireSessionPage(secret string, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, secret, sessions)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RedirectAuthenticated sends already-logged-in visitors of the login page
// back to the entry page.
func RedirectAuthenticated(secret string, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c, secret, sessions); ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
