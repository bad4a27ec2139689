package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralConfig is the single active referral program configuration.
// It lives in exactly one row (ID=1) and is only ever upserted, never
// deleted, so there is no "most recent wins" ambiguity.
type ReferralConfig struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	MinOrdersRequired int             `gorm:"not null;default:1" json:"min_orders_required"`
	RewardType        string          `gorm:"size:20;not null" json:"reward_type"` // PERCENTAGE | FLAT
	RewardValue       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"reward_value"`
	RewardExpiryDays  int             `gorm:"not null;default:30" json:"reward_expiry_days"`
	IsActive          bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (ReferralConfig) TableName() string { return "referral_configs" }

// Referral tracks one user inviting another by email through the
// PENDING -> QUALIFIED -> REWARDED / EXPIRED lifecycle. Reward type and
// value are snapshotted from the config at qualification time so later
// config edits never change an already-qualified referral. Rows are never
// physically deleted.
type Referral struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ReferrerID           uint            `gorm:"not null;index;uniqueIndex:idx_referrals_referrer_email" json:"referrer_id"`
	ReferredUserID       *uint           `gorm:"index" json:"referred_user_id"` // set once the email belongs to a registered account
	ReferredEmail        string          `gorm:"size:255;not null;uniqueIndex:idx_referrals_referrer_email" json:"referred_email"`
	ReferralCode         string          `gorm:"uniqueIndex;size:8;not null" json:"referral_code"`
	Status               string          `gorm:"size:20;not null;index" json:"status"` // PENDING, QUALIFIED, REWARDED, EXPIRED
	CompletedOrdersCount int             `gorm:"not null;default:0" json:"completed_orders_count"`
	QualifiedAt          *time.Time      `json:"qualified_at"`
	RewardType           string          `gorm:"size:20" json:"reward_type"` // snapshot, empty until qualified
	RewardValue          decimal.Decimal `gorm:"type:decimal(12,2)" json:"reward_value"`
	RewardExpiry         *time.Time      `json:"reward_expiry"`
	RewardApplied        bool            `gorm:"not null;default:false;index" json:"reward_applied"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`

	Referrer     User  `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredUser *User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
