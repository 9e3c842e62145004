// Package http serves the app shell: the navigable screens behind the
// route guard and the JSON surface the screens read and write.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/guard"
	"mehnda-chinji/internal/service"
	"mehnda-chinji/internal/session"
)

// retryAfterSeconds is sent with 503 answers while the session loads.
const retryAfterSeconds = "1"

type Deps struct {
	Session     *session.Manager
	Preferences *session.Preferences
	Guard       *guard.Guard
	Accounts    service.AccountService
	Donors      service.DonorService
	Businesses  service.BusinessService
	Directory   *directory.Directory
	Logger      logrus.FieldLogger
}

// Handler wires HTTP routes to the session core and services.
type Handler struct {
	session   *session.Manager
	prefs     *session.Preferences
	guard     *guard.Guard
	accounts  service.AccountService
	donors     service.DonorService
	businesses service.BusinessService
	directory  *directory.Directory
	logger    logrus.FieldLogger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &Handler{
		session:   d.Session,
		prefs:     d.Preferences,
		guard:     d.Guard,
		accounts:  d.Accounts,
		donors:     d.Donors,
		businesses: d.Businesses,
		directory:  d.Directory,
		logger:    d.Logger.WithField("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/", h.splash)
	router.GET(authPrefix+"/*screen", h.guardMiddleware(), h.screen)
	router.GET(appPrefix+"/*screen", h.guardMiddleware(), h.screen)

	api := router.Group("/api")
	{
		api.GET("/session", h.getSession)
		api.POST("/session/login", h.login)
		api.POST("/session/signup", h.signup)
		api.POST("/session/logout", h.logout)
		api.PATCH("/profile", h.requireSession, h.updateProfile)
		api.PUT("/password", h.requireSession, h.changePassword)
		api.DELETE("/account", h.requireSession, h.deleteAccount)
		api.GET("/sessions", h.requireSession, h.listSessions)
		api.DELETE("/sessions/:id", h.requireSession, h.revokeSession)
		api.POST("/push-token", h.requireSession, h.savePushToken)
		api.GET("/preferences", h.getPreferences)
		api.PUT("/preferences/theme", h.setTheme)
		api.POST("/preferences/theme/toggle", h.toggleTheme)

		api.GET("/donors", h.requireSession, h.listDonors)
		api.GET("/donors/me", h.requireSession, h.donorStatus)
		api.POST("/donors/me", h.requireSession, h.registerDonor)
		api.DELETE("/donors/me", h.requireSession, h.removeDonor)
		api.POST("/donors/me/availability", h.requireSession, h.toggleDonor)

		api.GET("/categories", h.requireSession, h.categories)
		api.GET("/businesses", h.requireSession, h.listBusinesses)
		api.GET("/businesses/mine", h.requireSession, h.myBusinesses)
		api.POST("/businesses", h.requireSession, h.registerBusiness)
		api.DELETE("/businesses/:id", h.requireSession, h.deleteBusiness)
		api.PATCH("/businesses/:id", h.requireSession, h.setBusinessSearchable)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Location, Retry-After")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) state() domain.AuthState {
	return guard.StateOf(h.session.Snapshot())
}

func notReady(c *gin.Context) {
	c.Header("Retry-After", retryAfterSeconds)
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session is still loading"})
}

// guardMiddleware holds requests while the session loads and redirects
// requests for a screen of the wrong area to that area's entry.
func (h *Handler) guardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := h.state()
		if state == domain.AuthStateUndetermined {
			notReady(c)
			return
		}
		route := routeOf(c.Request.URL.Path)
		if target, redirect := guard.Decide(state, route); redirect {
			h.logger.WithFields(logrus.Fields{"from": route, "to": target}).Debug("guard redirect")
			h.guard.SetRoute(target)
			c.Redirect(http.StatusFound, pathOf(target))
			c.Abort()
			return
		}
		h.guard.SetRoute(route)
		c.Set("route", route)
		c.Next()
	}
}

func (h *Handler) splash(c *gin.Context) {
	target, ok := guard.SplashTarget(h.state())
	if !ok {
		notReady(c)
		return
	}
	c.Redirect(http.StatusFound, pathOf(target))
}

func (h *Handler) screen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"route": c.MustGet("route"),
		"state": h.state(),
	})
}

type sessionResponse struct {
	State         domain.AuthState `json:"state"`
	Loading       bool             `json:"loading"`
	Authenticated bool             `json:"authenticated"`
	Profile       domain.Profile   `json:"profile"`
	TokenExpiry   *string          `json:"tokenExpiry,omitempty"`
	Route         domain.Route     `json:"route"`
}

func (h *Handler) sessionView() sessionResponse {
	snap := h.session.Snapshot()
	resp := sessionResponse{
		State:         guard.StateOf(snap),
		Loading:       snap.Loading,
		Authenticated: snap.Authenticated(),
		Profile:       snap.Session.Profile,
		Route:         h.guard.Route(),
	}
	if snap.TokenExpiry != nil {
		v := snap.TokenExpiry.Format(time.RFC3339)
		resp.TokenExpiry = &v
	}
	return resp
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionView())
}

// respondError maps service and backend errors onto status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
	case errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotLoggedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrMalformedLoginPayload):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) requireSession(c *gin.Context) {
	switch h.state() {
	case domain.AuthStateUndetermined:
		notReady(c)
	case domain.AuthStateUnauthenticated:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrNotLoggedIn.Error()})
	default:
		c.Next()
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, req.Remember); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) signup(c *gin.Context) {
	var req api.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.Signup(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) updateProfile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a JSON object of profile fields is required"})
		return
	}
	profile, err := h.accounts.UpdateProfile(c.Request.Context(), fields)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

