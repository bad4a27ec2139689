package handler

import (
	"net/http"
	"strconv"

	"savora/internal/middleware"
	"savora/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type CreateOrderRequest struct {
	Subtotal string `json:"subtotal" binding:"required"` // decimal string, e.g. "24.50"
}

// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subtotal"})
		return
	}
	order, err := h.svc.PlaceOrder(middleware.GetUserID(c), subtotal)
	if err != nil {
		if err == service.ErrInvalidAmount {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not place order"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /me/orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	orders, err := h.svc.ListOrders(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// POST /orders/:id/complete marks the order done and feeds the
// referral qualification check.
func (h *OrderHandler) Complete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.svc.CompleteOrder(uint(id))
	if err != nil {
		switch err {
		case service.ErrOrderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case service.ErrOrderNotPending:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete order"})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}
