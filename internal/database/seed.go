package database

import (
	"log"
	"os"

	"savora/internal/authz"
	"savora/internal/domain"
	"savora/internal/models"
	"savora/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the back-office admin account if it doesn't exist yet.
func SeedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@savora.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin12345"
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash failed: %v", err)
		return
	}
	admin := &models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[seed] admin create failed: %v", err)
		return
	}
	log.Printf("[seed] admin account created: %s", email)
}

// SeedPolicies inserts the default permission policy rows.
func SeedPolicies(db *gorm.DB) {
	if err := repository.NewPolicyRepository(db).SeedDefaults(authz.DefaultPolicies()); err != nil {
		log.Printf("[seed] policies failed: %v", err)
	}
}
