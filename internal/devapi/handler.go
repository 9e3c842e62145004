// Package devapi is a local implementation of the mehnda-chinji backend
// used for development and end-to-end tests.
package devapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

const principalKey = "devapi.principal"

// Handler wires the backend routes to the account and directory services.
type Handler struct {
	accounts  AccountService
	directory DirectoryService
	logger    logrus.FieldLogger
}

func NewHandler(accounts AccountService, directory DirectoryService, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		accounts:  accounts,
		directory: directory,
		logger:    logger.WithField("component", "devapi"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/auth/user")
	{
		auth.POST("/signup-with-email", h.signup)
		auth.POST("/login-with-email", h.login)
		auth.POST("/logout", h.requireAuth, h.logout)
	}

	user := router.Group("/api/user/v1", h.requireAuth)
	{
		user.POST("/update-profile", h.updateProfile)
		user.POST("/delete-account", h.deleteAccount)
		user.POST("/change-password", h.changePassword)
		user.GET("/sessions", h.listSessions)
		user.POST("/revoke-session", h.revokeSession)
		user.POST("/save-push-token", h.savePushToken)

		user.POST("/register-as-donor", h.registerDonor)
		user.GET("/get-donor-status", h.donorStatus)
		user.POST("/remove-as-donor", h.removeDonor)
		user.POST("/manage-donor-status", h.toggleDonor)
		user.GET("/get-donors-list", h.listDonors)

		user.POST("/register-business", h.registerBusiness)
		user.GET("/get-business-status", h.businessStatus)
		user.GET("/get-businesses-list", h.listBusinesses)
		user.POST("/remove-business", h.deleteBusiness)
		user.POST("/manage-business-search", h.manageBusinessSearch)
	}

	router.GET("/api/user/category/list", h.requireAuth, h.categories)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrWrongPassword):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrSessionRevoked):
		fail(c, http.StatusUnauthorized, errorMessage(err))
	case errors.Is(err, ErrUserAlreadyExists):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, "not found")
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		fail(c, http.StatusInternalServerError, "something went wrong")
	}
}

func errorMessage(err error) string {
	if errors.Is(err, ErrInvalidToken) {
		return ErrInvalidToken.Error()
	}
	return err.Error()
}

func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		fail(c, http.StatusUnauthorized, "authorization required")
		return
	}
	p, err := h.accounts.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(principalKey, p)
	c.Next()
}

func principal(c *gin.Context) *Principal {
	return c.MustGet(principalKey).(*Principal)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginData(user *domain.User, token string) gin.H {
	return gin.H{"userData": user.Profile(), "token": token}
}

func (h *Handler) signup(c *gin.Context) {
	var req SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, token, err := h.accounts.Signup(c.Request.Context(), req, c.Request.UserAgent())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.WithField("user_id", user.ID).Info("user signed up")
	ok(c, "Account created successfully", loginData(user, token))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "email and password are required")
		return
	}
	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.WithField("user_id", user.ID).Info("user logged in")
	ok(c, "Login successful", loginData(user, token))
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), principal(c)); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Logged out", nil)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), principal(c), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Profile updated", gin.H{"userData": user.Profile()})
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) deleteAccount(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "password is required")
		return
	}
	p := principal(c)
	if err := h.accounts.DeleteAccount(c.Request.Context(), p, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.WithField("user_id", p.User.ID).Info("account deleted")
	ok(c, "Account deleted", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Password changed", nil)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.accounts.Sessions(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "", sessions)
}

type revokeSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *Handler) revokeSession(c *gin.Context) {
	var req revokeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "sessionId is required")
		return
	}
	if err := h.accounts.RevokeSession(c.Request.Context(), principal(c), req.SessionID); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Session revoked", nil)
}

type pushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

func (h *Handler) savePushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.SavePushToken(c.Request.Context(), principal(c), req.PushToken); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Push token saved", nil)
}

func (h *Handler) registerDonor(c *gin.Context) {
	var req DonorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	donor, err := h.directory.RegisterDonor(c.Request.Context(), principal(c).User, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Registered as donor", donor)
}

func (h *Handler) donorStatus(c *gin.Context) {
	donor, err := h.directory.DonorStatus(c.Request.Context(), principal(c).User.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "", donor)
}

func (h *Handler) removeDonor(c *gin.Context) {
	if err := h.directory.RemoveDonor(c.Request.Context(), principal(c).User.ID); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Removed from donors", nil)
}

func (h *Handler) toggleDonor(c *gin.Context) {
	donor, err := h.directory.ToggleDonor(c.Request.Context(), principal(c).User.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Donor status updated", donor)
}

func (h *Handler) listDonors(c *gin.Context) {
	donors, err := h.directory.ListDonors(c.Request.Context(), domain.DonorFilter{
		BloodGroup: c.Query("bloodGroup"),
		Name:       c.Query("name"),
		Location:   c.Query("location"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "", donors)
}

func (h *Handler) registerBusiness(c *gin.Context) {
	var req BusinessInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.directory.RegisterBusiness(c.Request.Context(), principal(c).User, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Business registered", b)
}

func (h *Handler) businessStatus(c *gin.Context) {
	list, err := h.directory.BusinessStatus(c.Request.Context(), principal(c).User.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "", list)
}

func (h *Handler) categories(c *gin.Context) {
	ok(c, "", h.directory.Categories(c.Query("type")))
}

func (h *Handler) listBusinesses(c *gin.Context) {
	page := 1
	if raw := c.Query("currentPage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(c, http.StatusBadRequest, "invalid currentPage")
			return
		}
		page = n
	}
	result, err := h.directory.ListBusinesses(c.Request.Context(), domain.BusinessFilter{
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
	}, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

type businessRequest struct {
	BusinessID string `json:"businessId" binding:"required"`
	Search     *bool  `json:"search"`
}

func (h *Handler) deleteBusiness(c *gin.Context) {
	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "businessId is required")
		return
	}
	if err := h.directory.DeleteBusiness(c.Request.Context(), principal(c).User.ID, req.BusinessID); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Business removed", nil)
}

func (h *Handler) manageBusinessSearch(c *gin.Context) {
	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Search == nil {
		fail(c, http.StatusBadRequest, "businessId and search are required")
		return
	}
	if err := h.directory.SetBusinessSearchable(c.Request.Context(), principal(c).User.ID, req.BusinessID, *req.Search); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, "Business updated", nil)
}
