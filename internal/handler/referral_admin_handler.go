package handler

import (
	"net/http"
	"strconv"

	"savora/internal/domain"
	"savora/internal/repository"
	"savora/internal/service"

	"github.com/gin-gonic/gin"
)

// ReferralAdminHandler serves the permission-gated back-office endpoints.
type ReferralAdminHandler struct {
	svc *service.ReferralService
}

func NewReferralAdminHandler(svc *service.ReferralService) *ReferralAdminHandler {
	return &ReferralAdminHandler{svc: svc}
}

// GET /admin/referrals
func (h *ReferralAdminHandler) Query(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var filter repository.ReferralFilter
	if v, err := strconv.ParseUint(c.Query("referrer_id"), 10, 64); err == nil {
		filter.ReferrerID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("referred_user_id"), 10, 64); err == nil {
		filter.ReferredUserID = uint(v)
	}
	filter.ReferredEmail = c.Query("referred_email")
	filter.Status = c.Query("status")

	list, total, totalPages, err := h.svc.Query(filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not query referrals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals":   list,
		"total":       total,
		"total_pages": totalPages,
		"page":        page,
	})
}

// GET /admin/referrals/stats/:user_id
func (h *ReferralAdminHandler) StatsByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	stats, err := h.svc.Stats(uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /admin/referrals/config
func (h *ReferralAdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.GetConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PATCH /admin/referrals/config
func (h *ReferralAdminHandler) UpdateConfig(c *gin.Context) {
	var patch repository.ReferralConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.RewardType != nil &&
		*patch.RewardType != domain.RewardTypePercentage && *patch.RewardType != domain.RewardTypeFlat {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_type must be PERCENTAGE or FLAT"})
		return
	}
	if patch.MinOrdersRequired != nil && *patch.MinOrdersRequired < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_orders_required must be at least 1"})
		return
	}
	if patch.RewardExpiryDays != nil && *patch.RewardExpiryDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_expiry_days must be at least 1"})
		return
	}
	if patch.RewardValue != nil && patch.RewardValue.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_value must not be negative"})
		return
	}
	cfg, err := h.svc.UpdateConfig(patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// POST /admin/referrals/expire-sweep manually triggers the periodic sweep.
func (h *ReferralAdminHandler) ExpireSweep(c *gin.Context) {
	count, err := h.svc.ExpireOldRewards()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired_count": count})
}
