package repository

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"savora/internal/domain"
	"savora/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCodeGenerationExhausted = errors.New("could not generate a unique referral code")
	ErrDuplicateReferral       = errors.New("referral already exists for this email")
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 8
	codeMaxAttempts = 10
)

type ReferralRepository struct {
	db      *gorm.DB
	newCode func() (string, error)
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db, newCode: generateReferralCode}
}

// generateReferralCode draws each character uniformly from A-Z0-9.
func generateReferralCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Create inserts the referral with a freshly generated unique code. The
// unique index on referral_code doubles as the collision check: a failed
// insert retries with a new code, up to codeMaxAttempts.
func (r *ReferralRepository) Create(ref *models.Referral) error {
	for i := 0; i < codeMaxAttempts; i++ {
		code, err := r.newCode()
		if err != nil {
			return err
		}
		ref.ReferralCode = code
		if err := r.db.Create(ref).Error; err == nil {
			return nil
		}
		// The insert can also fail on the (referrer_id, referred_email)
		// unique index when two requests race; report that as a duplicate
		// rather than burning the remaining code attempts.
		var count int64
		r.db.Model(&models.Referral{}).
			Where("referrer_id = ? AND referred_email = ?", ref.ReferrerID, ref.ReferredEmail).
			Count(&count)
		if count > 0 {
			return ErrDuplicateReferral
		}
	}
	return ErrCodeGenerationExhausted
}

func (r *ReferralRepository) GetByID(id uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.First(&ref, id).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *ReferralRepository) GetByCode(code string) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.Where("referral_code = ?", code).First(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

// ExistsForReferrerAndEmail reports whether the (referrer, email) pair
// already has a referral record.
func (r *ReferralRepository) ExistsForReferrerAndEmail(referrerID uint, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND referred_email = ?", referrerID, email).
		Count(&count).Error
	return count > 0, err
}

// ListPendingByReferredUser returns PENDING referrals linked to the user.
func (r *ReferralRepository) ListPendingByReferredUser(userID uint) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.Where("referred_user_id = ? AND status = ?", userID, domain.ReferralStatusPending).
		Find(&list).Error
	return list, err
}

func (r *ReferralRepository) Save(ref *models.Referral) error {
	return r.db.Save(ref).Error
}

// LinkByEmail attaches a newly registered user to every referral that
// targets their email and has no linked account yet.
func (r *ReferralRepository) LinkByEmail(email string, userID uint) error {
	return r.db.Model(&models.Referral{}).
		Where("referred_email = ? AND referred_user_id IS NULL", email).
		Update("referred_user_id", userID).Error
}

// OldestApplicable returns the oldest-qualified unexpired, unapplied
// referral owned by the buyer, or gorm.ErrRecordNotFound.
func (r *ReferralRepository) OldestApplicable(referrerID uint, now time.Time) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.
		Where("referrer_id = ? AND status = ? AND reward_applied = ? AND reward_expiry >= ?",
			referrerID, domain.ReferralStatusQualified, false, now).
		Order("qualified_at ASC").
		First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// ConsumeReward marks the referral REWARDED if and only if it is still an
// unapplied QUALIFIED row. The guarded WHERE plus the affected-row count is
// what makes concurrent reward application at-most-once: the loser of a
// race sees zero rows updated.
func (r *ReferralRepository) ConsumeReward(id uint) (bool, error) {
	tx := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ? AND reward_applied = ?", id, domain.ReferralStatusQualified, false).
		Updates(map[string]interface{}{
			"status":         domain.ReferralStatusRewarded,
			"reward_applied": true,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// ExpireOld sweeps unapplied QUALIFIED referrals whose expiry has passed.
func (r *ReferralRepository) ExpireOld(now time.Time) (int64, error) {
	tx := r.db.Model(&models.Referral{}).
		Where("status = ? AND reward_applied = ? AND reward_expiry < ?",
			domain.ReferralStatusQualified, false, now).
		Update("status", domain.ReferralStatusExpired)
	return tx.RowsAffected, tx.Error
}

// ReferralFilter narrows List results; zero values mean "no filter".
type ReferralFilter struct {
	ReferrerID     uint
	ReferredUserID uint
	ReferredEmail  string
	Status         string
}

// List returns one page of referrals plus the total matching count.
func (r *ReferralRepository) List(f ReferralFilter, page, limit int) ([]models.Referral, int64, error) {
	q := r.db.Model(&models.Referral{})
	if f.ReferrerID != 0 {
		q = q.Where("referrer_id = ?", f.ReferrerID)
	}
	if f.ReferredUserID != 0 {
		q = q.Where("referred_user_id = ?", f.ReferredUserID)
	}
	if f.ReferredEmail != "" {
		q = q.Where("referred_email = ?", f.ReferredEmail)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Referral
	err := q.Preload("ReferredUser").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&list).Error
	return list, total, err
}

// ReferralStats aggregates one referrer's referrals by status.
type ReferralStats struct {
	Total              int64           `json:"total"`
	Pending            int64           `json:"pending"`
	Qualified          int64           `json:"qualified"`
	Rewarded           int64           `json:"rewarded"`
	Expired            int64           `json:"expired"`
	TotalRewardedValue decimal.Decimal `json:"total_rewarded_value"`
}

// StatsByReferrer computes stats on demand from the referrals table.
func (r *ReferralRepository) StatsByReferrer(referrerID uint) (*ReferralStats, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.Model(&models.Referral{}).
		Select("status, COUNT(*) AS n").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := &ReferralStats{TotalRewardedValue: decimal.Zero}
	for _, row := range rows {
		stats.Total += row.N
		switch row.Status {
		case domain.ReferralStatusPending:
			stats.Pending = row.N
		case domain.ReferralStatusQualified:
			stats.Qualified = row.N
		case domain.ReferralStatusRewarded:
			stats.Rewarded = row.N
		case domain.ReferralStatusExpired:
			stats.Expired = row.N
		}
	}
	var sum decimal.NullDecimal
	row := r.db.Model(&models.Referral{}).
		Select("SUM(reward_value)").
		Where("referrer_id = ? AND status = ?", referrerID, domain.ReferralStatusRewarded).
		Row()
	if err := row.Scan(&sum); err != nil {
		return nil, err
	}
	if sum.Valid {
		stats.TotalRewardedValue = sum.Decimal
	}
	return stats, nil
}
