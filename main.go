package main

import (
	"fmt"
	"log"
	"os"

	"medscan/config"
	"medscan/pkg/match"
	"medscan/pkg/ocr"
	"medscan/pkg/scan"

	"github.com/gin-gonic/gin"
)

var (
	cfg       *config.Config
	jwtSecret []byte
	scanSvc   *scan.Service
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback, Load rejects this in production
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./medscan migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(cfg)

	engine := match.NewEngine(NewCatalogStore(db), match.Config{
		BrandThreshold:        cfg.Match.BrandThreshold,
		GenericThreshold:      cfg.Match.GenericThreshold,
		ManufacturerThreshold: cfg.Match.ManufacturerThreshold,
		ManufacturerWeight:    cfg.Match.ManufacturerWeight,
		FuzzyThreshold:        cfg.Match.FuzzyThreshold,
		FuzzyPageSize:         cfg.Match.FuzzyPageSize,
		KeepBest:              cfg.Match.KeepBest,
	})
	scanSvc = scan.NewService(engine, ocr.NewTesseractEngine(cfg.OCR.Language))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	setupRoutes(r)

	r.Run(":" + cfg.Server.Port)
}
