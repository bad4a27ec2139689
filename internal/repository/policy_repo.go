package repository

import (
	"savora/internal/models"

	"gorm.io/gorm"
)

type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) List() ([]models.PermissionPolicy, error) {
	var list []models.PermissionPolicy
	err := r.db.Order("role ASC, action ASC").Find(&list).Error
	return list, err
}

// SeedDefaults inserts policy rows that don't already exist.
func (r *PolicyRepository) SeedDefaults(defaults []models.PermissionPolicy) error {
	for _, p := range defaults {
		var count int64
		r.db.Model(&models.PermissionPolicy{}).
			Where("role = ? AND action = ?", p.Role, p.Action).
			Count(&count)
		if count == 0 {
			if err := r.db.Create(&models.PermissionPolicy{Role: p.Role, Action: p.Action}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
