package handler

import (
	"net/http"
	"strconv"

	"savora/internal/middleware"
	"savora/internal/repository"
	"savora/internal/service"

	"github.com/gin-gonic/gin"
)

// ReferralHandler serves the customer-facing referral endpoints.
type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

type CreateReferralRequest struct {
	ReferredEmail string `json:"referred_email" binding:"required,email"`
}

// POST /referrals
func (h *ReferralHandler) Create(c *gin.Context) {
	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref, err := h.svc.CreateReferral(middleware.GetUserID(c), req.ReferredEmail)
	if err != nil {
		switch err {
		case service.ErrProgramInactive:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case service.ErrSelfReferral:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case service.ErrReferrerNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case repository.ErrDuplicateReferral:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case repository.ErrCodeGenerationExhausted:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create referral"})
		}
		return
	}
	c.JSON(http.StatusCreated, ref)
}

// GET /me/referrals
func (h *ReferralHandler) ListMine(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := repository.ReferralFilter{ReferrerID: middleware.GetUserID(c)}
	list, total, totalPages, err := h.svc.Query(filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list referrals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals":   list,
		"total":       total,
		"total_pages": totalPages,
		"page":        page,
	})
}

// GET /me/referrals/stats
func (h *ReferralHandler) MyStats(c *gin.Context) {
	stats, err := h.svc.Stats(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /referrals/code/:code is the public lookup used by sign-up flows.
func (h *ReferralHandler) GetByCode(c *gin.Context) {
	ref, err := h.svc.GetByCode(c.Param("code"))
	if err != nil {
		if err == service.ErrReferralNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referral_code": ref.ReferralCode,
		"referrer_id":   ref.ReferrerID,
		"status":        ref.Status,
		"created_at":    ref.CreatedAt,
	})
}
