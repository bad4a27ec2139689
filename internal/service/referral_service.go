package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"savora/internal/domain"
	"savora/internal/models"
	"savora/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProgramInactive  = errors.New("referral program is not active")
	ErrReferrerNotFound = errors.New("referrer not found")
	ErrSelfReferral     = errors.New("cannot refer your own email")
	ErrReferralNotFound = errors.New("referral not found")
)

var oneHundred = decimal.NewFromInt(100)

// ReferralService owns the referral lifecycle: creation, qualification on
// completed orders, at-most-once reward consumption and the expiry sweep.
type ReferralService struct {
	referralRepo *repository.ReferralRepository
	configRepo   *repository.ReferralConfigRepository
	userRepo     *repository.UserRepository
	orderRepo    *repository.OrderRepository
}

func NewReferralService(
	referralRepo *repository.ReferralRepository,
	configRepo *repository.ReferralConfigRepository,
	userRepo *repository.UserRepository,
	orderRepo *repository.OrderRepository,
) *ReferralService {
	return &ReferralService{
		referralRepo: referralRepo,
		configRepo:   configRepo,
		userRepo:     userRepo,
		orderRepo:    orderRepo,
	}
}

// CreateReferral records the referrer inviting referredEmail. The referral
// starts PENDING; if the email already belongs to a registered account it
// is linked immediately (linking is not qualification).
func (s *ReferralService) CreateReferral(referrerID uint, referredEmail string) (*models.Referral, error) {
	email := strings.ToLower(strings.TrimSpace(referredEmail))

	cfg, err := s.configRepo.Get()
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, ErrProgramInactive
	}

	referrer, err := s.userRepo.GetByID(referrerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferrerNotFound
		}
		return nil, err
	}
	if strings.EqualFold(referrer.Email, email) {
		return nil, ErrSelfReferral
	}

	exists, err := s.referralRepo.ExistsForReferrerAndEmail(referrerID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrDuplicateReferral
	}

	ref := &models.Referral{
		ReferrerID:    referrerID,
		ReferredEmail: email,
		Status:        domain.ReferralStatusPending,
	}
	if u, err := s.userRepo.GetByEmail(email); err == nil {
		ref.ReferredUserID = &u.ID
	}
	if err := s.referralRepo.Create(ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// CheckQualification re-evaluates every PENDING referral linked to the
// user after one of their orders completes. The completed-order count is
// recomputed in full each call; crossing the configured threshold
// transitions the referral to QUALIFIED and snapshots the reward policy
// onto the row.
func (s *ReferralService) CheckQualification(referredUserID uint) ([]models.Referral, error) {
	pending, err := s.referralRepo.ListPendingByReferredUser(referredUserID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	count, err := s.orderRepo.CountCompletedByUser(referredUserID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configRepo.Get()
	if err != nil {
		return nil, err
	}

	var updated []models.Referral
	for i := range pending {
		ref := &pending[i]
		ref.CompletedOrdersCount = int(count)
		if count >= int64(cfg.MinOrdersRequired) {
			now := time.Now()
			expiry := now.AddDate(0, 0, cfg.RewardExpiryDays)
			ref.Status = domain.ReferralStatusQualified
			ref.QualifiedAt = &now
			ref.RewardType = cfg.RewardType
			ref.RewardValue = cfg.RewardValue
			ref.RewardExpiry = &expiry
		}
		if err := s.referralRepo.Save(ref); err != nil {
			return updated, err
		}
		updated = append(updated, *ref)
	}
	return updated, nil
}

// ApplyReward consumes the buyer's oldest usable reward and returns the
// discount for an order of orderAmount. Finding nothing to apply is a
// normal outcome and yields a zero discount with no error, as does losing
// the consumption race to a concurrent order.
func (s *ReferralService) ApplyReward(buyerID uint, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	ref, err := s.referralRepo.OldestApplicable(buyerID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	discount := CalculateDiscount(ref.RewardType, ref.RewardValue, orderAmount)

	consumed, err := s.referralRepo.ConsumeReward(ref.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !consumed {
		// A concurrent request already spent this reward.
		log.Printf("[referral] reward %d already consumed, proceeding without discount", ref.ID)
		return decimal.Zero, nil
	}
	return discount, nil
}

// CalculateDiscount computes the discount a reward yields on orderAmount.
// Percentage rewards are value percent of the amount; flat rewards are the
// value itself. The result is clamped to [0, orderAmount] so a reward can
// never make an order negative.
func CalculateDiscount(rewardType string, rewardValue, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch rewardType {
	case domain.RewardTypePercentage:
		discount = orderAmount.Mul(rewardValue).Div(oneHundred).Round(2)
	case domain.RewardTypeFlat:
		discount = rewardValue
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(orderAmount) {
		return orderAmount
	}
	return discount
}

// ExpireOldRewards sweeps qualified-but-unused referrals past their expiry.
// Safe to call repeatedly; a second immediate run expires nothing.
func (s *ReferralService) ExpireOldRewards() (int64, error) {
	return s.referralRepo.ExpireOld(time.Now())
}

// LinkReferralsForUser attaches a freshly registered account to any
// referrals targeting its email.
func (s *ReferralService) LinkReferralsForUser(email string, userID uint) error {
	return s.referralRepo.LinkByEmail(strings.ToLower(strings.TrimSpace(email)), userID)
}

// Stats returns per-status counts and the rewarded-value sum for a referrer.
func (s *ReferralService) Stats(referrerID uint) (*repository.ReferralStats, error) {
	return s.referralRepo.StatsByReferrer(referrerID)
}

// Query returns one page of referrals plus total count and page count.
func (s *ReferralService) Query(f repository.ReferralFilter, page, limit int) ([]models.Referral, int64, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	list, total, err := s.referralRepo.List(f, page, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return list, total, totalPages, nil
}

// GetByCode is the public lookup used by sign-up flows.
func (s *ReferralService) GetByCode(code string) (*models.Referral, error) {
	ref, err := s.referralRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return ref, nil
}

// GetConfig exposes the current program config.
func (s *ReferralService) GetConfig() (*models.ReferralConfig, error) {
	return s.configRepo.Get()
}

// UpdateConfig applies a partial config update.
func (s *ReferralService) UpdateConfig(patch repository.ReferralConfigPatch) (*models.ReferralConfig, error) {
	return s.configRepo.Update(patch)
}
