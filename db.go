package main

import (
	"log"

	"medscan/config"
	"medscan/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB(cfg *config.Config) {
	var err error
	db, err = gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if cfg.Database.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Medicine{}); err != nil {
			log.Printf("migration warning (medicines): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.SearchLog{}); err != nil {
			log.Printf("migration warning (search_logs): %v", err)
		}
		if err := db.AutoMigrate(&models.OCRLog{}); err != nil {
			log.Printf("migration warning (ocr_logs): %v", err)
		}
	}
	seedDB(cfg)
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB(cfg *config.Config) {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			Email:    "admin@example.com",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	if cfg.Database.SeedDemo {
		seedDemoMedicines()
	}
}

// seedDemoMedicines loads a small starter catalog for local development.
// Only runs against an empty medicines table.
func seedDemoMedicines() {
	var count int64
	db.Model(&models.Medicine{}).Count(&count)
	if count > 0 {
		return
	}
	demo := []models.Medicine{
		{
			BrandName:    "Napa",
			GenericName:  "Paracetamol",
			Strength:     "500mg",
			Manufacturer: "Beximco Pharmaceuticals Ltd",
			Uses:         "Fever, headache, mild to moderate pain",
			SideEffects:  "Rare at therapeutic doses",
			Warnings:     "Do not exceed 4g per day",
			Barcode:      "8901234567",
		},
		{
			BrandName:    "Napa Extra",
			GenericName:  "Paracetamol + Caffeine",
			Strength:     "500mg+65mg",
			Manufacturer: "Beximco Pharmaceuticals Ltd",
			Uses:         "Fever, headache",
			Barcode:      "8901234568",
		},
		{
			BrandName:    "Seclo",
			GenericName:  "Omeprazole",
			Strength:     "20mg",
			Manufacturer: "Square Pharmaceuticals Ltd",
			Uses:         "Gastric ulcer, GERD",
			Warnings:     "Take before meals",
			Barcode:      "8909876543",
		},
	}
	for _, m := range demo {
		if err := db.Create(&m).Error; err != nil {
			log.Printf("failed to seed medicine %s: %v", m.BrandName, err)
		}
	}
	log.Printf("Seeded %d demo medicines", len(demo))
}
