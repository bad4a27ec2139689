package repository

import (
	"errors"

	"savora/internal/domain"
	"savora/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referralConfigID pins the config to a single well-known row.
const referralConfigID = 1

type ReferralConfigRepository struct {
	db *gorm.DB
}

func NewReferralConfigRepository(db *gorm.DB) *ReferralConfigRepository {
	return &ReferralConfigRepository{db: db}
}

func defaultReferralConfig() *models.ReferralConfig {
	return &models.ReferralConfig{
		ID:                referralConfigID,
		MinOrdersRequired: 1,
		RewardType:        domain.RewardTypePercentage,
		RewardValue:       decimal.NewFromInt(10),
		RewardExpiryDays:  30,
		IsActive:          true,
	}
}

// Get returns the program config, creating the default row on first access.
func (r *ReferralConfigRepository) Get() (*models.ReferralConfig, error) {
	var cfg models.ReferralConfig
	err := r.db.First(&cfg, referralConfigID).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	def := defaultReferralConfig()
	// DoNothing tolerates a concurrent first access creating the row.
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(def).Error; err != nil {
		return nil, err
	}
	if err := r.db.First(&cfg, referralConfigID).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReferralConfigPatch carries a partial update; nil fields are untouched,
// so an absent reward_value is never coerced to zero.
type ReferralConfigPatch struct {
	MinOrdersRequired *int             `json:"min_orders_required"`
	RewardType        *string          `json:"reward_type"`
	RewardValue       *decimal.Decimal `json:"reward_value"`
	RewardExpiryDays  *int             `json:"reward_expiry_days"`
	IsActive          *bool            `json:"is_active"`
}

// Update applies the patch to the config row and returns the result.
func (r *ReferralConfigRepository) Update(patch ReferralConfigPatch) (*models.ReferralConfig, error) {
	if _, err := r.Get(); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.MinOrdersRequired != nil {
		updates["min_orders_required"] = *patch.MinOrdersRequired
	}
	if patch.RewardType != nil {
		updates["reward_type"] = *patch.RewardType
	}
	if patch.RewardValue != nil {
		updates["reward_value"] = *patch.RewardValue
	}
	if patch.RewardExpiryDays != nil {
		updates["reward_expiry_days"] = *patch.RewardExpiryDays
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) > 0 {
		err := r.db.Model(&models.ReferralConfig{}).
			Where("id = ?", referralConfigID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.Get()
}
