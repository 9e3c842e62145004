package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/session"
)

// systemTheme reads the OS colour scheme the screen reports, light when absent.
func systemTheme(c *gin.Context) domain.ThemePreference {
	return domain.ThemePreference(strings.ToLower(c.DefaultQuery("system", string(domain.ThemeLight))))
}

func (h *Handler) getPreferences(c *gin.Context) {
	ctx := c.Request.Context()
	pref := h.prefs.ThemePreference(ctx)
	c.JSON(http.StatusOK, gin.H{
		"rememberedEmail": h.prefs.RememberedEmail(ctx),
		"theme":           pref,
		"resolvedTheme":   session.ResolveTheme(pref, systemTheme(c)),
	})
}

type themeRequest struct {
	Theme domain.ThemePreference `json:"theme" binding:"required"`
}

func (h *Handler) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme is required"})
		return
	}
	if err := h.prefs.SetThemePreference(c.Request.Context(), req.Theme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// toggleTheme flips the rendered theme, resolving "system" with ?system=.
func (h *Handler) toggleTheme(c *gin.Context) {
	next := h.prefs.ToggleTheme(c.Request.Context(), systemTheme(c))
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword are required"})
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) deleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	if err := h.accounts.DeleteAccount(c.Request.Context(), req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.accounts.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.LoginSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// revokeSession ends one login. Revoking the login in use signs this
// device out, so the answer carries the session view.
func (h *Handler) revokeSession(c *gin.Context) {
	if err := h.accounts.RevokeSession(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionView())
}

type pushTokenRequest struct {
	PushToken string `json:"pushToken" binding:"required"`
}

func (h *Handler) savePushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pushToken is required"})
		return
	}
	if err := h.accounts.SavePushToken(c.Request.Context(), req.PushToken); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
