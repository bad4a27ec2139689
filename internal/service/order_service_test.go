package service

import (
	"testing"
	"time"

	"savora/internal/domain"
	"savora/internal/models"

	"github.com/shopspring/decimal"
)

func newOrderEnv(t *testing.T) (*testEnv, *OrderService) {
	t.Helper()
	env := newTestEnv(t)
	return env, NewOrderService(env.orders, env.svc)
}

func TestPlaceOrderWithoutReward(t *testing.T) {
	env, orderSvc := newOrderEnv(t)
	u := env.createUser(t, "alice@example.com")

	order, err := orderSvc.PlaceOrder(u.ID, decimal.NewFromFloat(24.50))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected an order number")
	}
	if !order.Discount.IsZero() {
		t.Fatalf("discount = %s, want 0", order.Discount)
	}
	if !order.Total.Equal(decimal.NewFromFloat(24.50)) {
		t.Fatalf("total = %s, want 24.5", order.Total)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %s, want PENDING", order.Status)
	}
}

func TestPlaceOrderConsumesReward(t *testing.T) {
	env, orderSvc := newOrderEnv(t)
	referrer := env.createUser(t, "alice@example.com")
	env.qualifiedReferral(t, referrer.ID, "bob@example.com", time.Now())

	order, err := orderSvc.PlaceOrder(referrer.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !order.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount = %s, want 10", order.Discount)
	}
	if !order.Total.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("total = %s, want 90", order.Total)
	}

	// The reward is spent; a second order pays full price.
	again, err := orderSvc.PlaceOrder(referrer.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	if !again.Discount.IsZero() {
		t.Fatalf("second discount = %s, want 0", again.Discount)
	}
}

func TestPlaceOrderRejectsNonPositiveSubtotal(t *testing.T) {
	env, orderSvc := newOrderEnv(t)
	u := env.createUser(t, "alice@example.com")
	if _, err := orderSvc.PlaceOrder(u.ID, decimal.Zero); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCompleteOrderTriggersQualification(t *testing.T) {
	env, orderSvc := newOrderEnv(t)
	referrer := env.createUser(t, "alice@example.com")
	referred := env.createUser(t, "bob@example.com")
	if _, err := env.svc.CreateReferral(referrer.ID, referred.Email); err != nil {
		t.Fatalf("create referral: %v", err)
	}

	order, err := orderSvc.PlaceOrder(referred.ID, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	completed, err := orderSvc.CompleteOrder(order.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("order not completed: %+v", completed)
	}

	var ref models.Referral
	if err := env.db.Where("referred_user_id = ?", referred.ID).First(&ref).Error; err != nil {
		t.Fatalf("reload referral: %v", err)
	}
	if ref.Status != domain.ReferralStatusQualified {
		t.Fatalf("expected QUALIFIED after completed order, got %s", ref.Status)
	}
}

func TestCompleteOrderTwice(t *testing.T) {
	env, orderSvc := newOrderEnv(t)
	u := env.createUser(t, "alice@example.com")
	order, err := orderSvc.PlaceOrder(u.ID, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := orderSvc.CompleteOrder(order.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := orderSvc.CompleteOrder(order.ID); err != ErrOrderNotPending {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestCompleteOrderNotFound(t *testing.T) {
	_, orderSvc := newOrderEnv(t)
	if _, err := orderSvc.CompleteOrder(12345); err != ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
