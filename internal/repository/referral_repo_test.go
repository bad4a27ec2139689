package repository

import (
	"regexp"
	"testing"
	"time"

	"savora/internal/domain"
	"savora/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ReferralConfig{},
		&models.Referral{},
		&models.Order{},
		&models.PermissionPolicy{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGenerateReferralCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	for i := 0; i < 100; i++ {
		code, err := generateReferralCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)

	// First generated code always collides with an existing row; the
	// second attempt succeeds.
	if err := db.Create(&models.Referral{
		ReferrerID:    1,
		ReferredEmail: "taken@example.com",
		ReferralCode:  "AAAA0000",
		Status:        domain.ReferralStatusPending,
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	calls := 0
	repo.newCode = func() (string, error) {
		calls++
		if calls == 1 {
			return "AAAA0000", nil
		}
		return "BBBB1111", nil
	}

	ref := &models.Referral{
		ReferrerID:    2,
		ReferredEmail: "new@example.com",
		Status:        domain.ReferralStatusPending,
	}
	if err := repo.Create(ref); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref.ReferralCode != "BBBB1111" {
		t.Fatalf("code = %q, want retry result BBBB1111", ref.ReferralCode)
	}
}

func TestCreateExhaustsRetries(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)

	if err := db.Create(&models.Referral{
		ReferrerID:    1,
		ReferredEmail: "taken@example.com",
		ReferralCode:  "AAAA0000",
		Status:        domain.ReferralStatusPending,
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	calls := 0
	repo.newCode = func() (string, error) {
		calls++
		return "AAAA0000", nil // always collides
	}

	err := repo.Create(&models.Referral{
		ReferrerID:    2,
		ReferredEmail: "new@example.com",
		Status:        domain.ReferralStatusPending,
	})
	if err != ErrCodeGenerationExhausted {
		t.Fatalf("expected ErrCodeGenerationExhausted, got %v", err)
	}
	if calls != codeMaxAttempts {
		t.Fatalf("attempts = %d, want %d", calls, codeMaxAttempts)
	}
}

func TestCreateReportsDuplicatePair(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)

	first := &models.Referral{
		ReferrerID:    1,
		ReferredEmail: "friend@example.com",
		Status:        domain.ReferralStatusPending,
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(&models.Referral{
		ReferrerID:    1,
		ReferredEmail: "friend@example.com",
		Status:        domain.ReferralStatusPending,
	})
	if err != ErrDuplicateReferral {
		t.Fatalf("expected ErrDuplicateReferral, got %v", err)
	}
}

func TestConsumeRewardGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)

	now := time.Now()
	expiry := now.AddDate(0, 0, 30)
	ref := &models.Referral{
		ReferrerID:    1,
		ReferredEmail: "friend@example.com",
		ReferralCode:  "CCCC2222",
		Status:        domain.ReferralStatusQualified,
		QualifiedAt:   &now,
		RewardType:    domain.RewardTypeFlat,
		RewardValue:   decimal.NewFromInt(5),
		RewardExpiry:  &expiry,
	}
	if err := db.Create(ref).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	ok, err := repo.ConsumeReward(ref.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("first consume should win")
	}
	// The guarded update sees the row already REWARDED and touches nothing.
	ok, err = repo.ConsumeReward(ref.ID)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Fatal("second consume must lose")
	}
}
