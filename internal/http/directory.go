package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/domain"
)

func (h *Handler) listDonors(c *gin.Context) {
	donors, err := h.donors.List(c.Request.Context(), domain.DonorFilter{
		BloodGroup: c.Query("bloodGroup"),
		Name:       c.Query("name"),
		Location:   c.Query("location"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donors": donors})
}

// donorStatus answers {"donor": null} when the user is not registered.
func (h *Handler) donorStatus(c *gin.Context) {
	donor, err := h.donors.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donor": donor})
}

func (h *Handler) registerDonor(c *gin.Context) {
	var req api.DonorRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	donor, err := h.donors.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"donor": donor})
}

func (h *Handler) removeDonor(c *gin.Context) {
	if err := h.donors.Remove(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) toggleDonor(c *gin.Context) {
	donor, err := h.donors.ToggleAvailability(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donor": donor})
}

func (h *Handler) categories(c *gin.Context) {
	cats, err := h.businesses.Categories(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// listBusinesses serves the infinite list for a filter. refresh=1 reloads
// from page one, next=1 appends the following page.
func (h *Handler) listBusinesses(c *gin.Context) {
	ctx := c.Request.Context()
	list := h.directory.List(domain.BusinessFilter{
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
	})

	var err error
	if c.Query("refresh") == "1" {
		err = list.Refresh(ctx)
	} else {
		err = list.Load(ctx)
	}
	if err == nil && c.Query("next") == "1" {
		_, err = list.FetchNext(ctx)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := list.Items()
	if items == nil {
		items = []domain.Business{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"pages":   list.PagesLoaded(),
		"hasNext": list.HasNext(),
	})
}

func (h *Handler) myBusinesses(c *gin.Context) {
	mine, err := h.businesses.Mine(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if mine == nil {
		mine = []domain.Business{}
	}
	c.JSON(http.StatusOK, gin.H{"businesses": mine})
}

func (h *Handler) registerBusiness(c *gin.Context) {
	var req api.BusinessRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.businesses.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"business": b})
}

func (h *Handler) deleteBusiness(c *gin.Context) {
	if err := h.businesses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type searchableRequest struct {
	Searchable *bool `json:"searchable" binding:"required"`
}

func (h *Handler) setBusinessSearchable(c *gin.Context) {
	var req searchableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "searchable is required"})
		return
	}
	if err := h.businesses.SetSearchable(c.Request.Context(), c.Param("id"), *req.Searchable); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"searchable": *req.Searchable})
}
