package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"imagedrop/api/internal/apierr"
	"imagedrop/api/internal/security"
	"imagedrop/api/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apierr.Validation("username and password are required"))
		return
	}

	sess, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.respondError(c, apierr.Unauthorized(service.ErrInvalidCredentials.Error()))
			return
		}
		h.respondError(c, err)
		return
	}

	token, err := security.SignSessionID(h.cfg.Session.Secret, sess.ID, h.auth.SessionTTL())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.auth.SessionTTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	// A failed teardown must be reported; only clear the cookie once the
	// server-side session is actually gone.
	if cookie, err := c.Cookie(security.SessionCookieName); err == nil && cookie != "" {
		if sessionID, err := security.ParseSessionID(h.cfg.Session.Secret, cookie); err == nil {
			if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
				h.respondError(c, apierr.Storage("failed to end the session"))
				return
			}
		}
	}

	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	secure := h.cfg.Environment == "production"
	c.SetCookie(security.SessionCookieName, value, maxAge, "/", "", secure, true)
}
