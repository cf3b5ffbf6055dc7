package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions against the given database
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedInstitutions(); err != nil {
		return fmt.Errorf("failed to seed institutions: %w", err)
	}

	if err := s.SeedAdminProfile(); err != nil {
		return fmt.Errorf("failed to seed admin profile: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedInstitutions creates a default institution when none exist
func (s *Seeder) SeedInstitutions() error {
	var count int64
	if err := s.db.Model(&model.Institution{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("⏭️  Institutions already exist, skipping...")
		return nil
	}

	name := os.Getenv("SEED_INSTITUTION_NAME")
	if name == "" {
		name = "General Teaching Hospital"
	}

	institution := &model.Institution{Name: name}
	if err := s.db.Create(institution).Error; err != nil {
		return err
	}

	log.Printf("✅ Created institution: %s\n", institution.Name)
	return nil
}

// SeedAdminProfile creates the default admin from ADMIN_EMAIL and
// ADMIN_PASSWORD, skipping when unset or an admin already exists
func (s *Seeder) SeedAdminProfile() error {
	var count int64
	if err := s.db.Model(&model.Profile{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("⏭️  Admin profile already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Profile{
		Email:        adminEmail,
		FullName:     "System Administrator",
		Role:         model.RoleAdmin,
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	// Keep the invitation table consistent with the profile
	invitation := &model.AuthorizedInvitation{
		Email:    adminEmail,
		FullName: admin.FullName,
		Role:     model.RoleAdmin,
		Status:   model.InvitationRegistered,
	}
	if err := s.db.Create(invitation).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin profile: %s\n", admin.Email)
	return nil
}
