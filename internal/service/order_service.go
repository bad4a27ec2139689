package service

import (
	"errors"
	"log"
	"time"

	"savora/internal/domain"
	"savora/internal/models"
	"savora/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrInvalidAmount   = errors.New("order subtotal must be positive")
)

// OrderService is the order-side collaborator of the referral engine: it
// spends rewards when an order is placed and triggers qualification checks
// when one completes.
type OrderService struct {
	orderRepo   *repository.OrderRepository
	referralSvc *ReferralService
}

func NewOrderService(orderRepo *repository.OrderRepository, referralSvc *ReferralService) *OrderService {
	return &OrderService{orderRepo: orderRepo, referralSvc: referralSvc}
}

// PlaceOrder creates a PENDING order, applying the buyer's oldest usable
// referral reward to the subtotal before totals are finalized.
func (s *OrderService) PlaceOrder(userID uint, subtotal decimal.Decimal) (*models.Order, error) {
	if !subtotal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	discount, err := s.referralSvc.ApplyReward(userID, subtotal)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		OrderNumber: uuid.NewString(),
		UserID:      userID,
		Subtotal:    subtotal.Round(2),
		Discount:    discount,
		Total:       subtotal.Sub(discount).Round(2),
		Status:      domain.OrderStatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrder marks the order COMPLETED and re-evaluates the buyer's
// referral qualification with the new completed-order count.
func (s *OrderService) CompleteOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	ok, err := s.orderRepo.MarkCompleted(order.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotPending
	}
	if _, err := s.referralSvc.CheckQualification(order.UserID); err != nil {
		// Qualification is recomputed on the next completed order; the
		// order state change itself already succeeded.
		log.Printf("[order] qualification check failed for user %d: %v", order.UserID, err)
	}
	return s.orderRepo.GetByID(order.ID)
}

func (s *OrderService) ListOrders(userID uint, limit, offset int) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID, limit, offset)
}
