package repository

import (
	"time"

	"savora/internal/domain"
	"savora/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// CountCompletedByUser fully recounts the user's COMPLETED orders.
func (r *OrderRepository) CountCompletedByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, domain.OrderStatusCompleted).
		Count(&count).Error
	return count, err
}

// MarkCompleted transitions a PENDING order to COMPLETED. Returns false
// when the order was not pending (already completed or cancelled).
func (r *OrderRepository) MarkCompleted(id uint, now time.Time) (bool, error) {
	tx := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.OrderStatusCompleted,
			"completed_at": now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
