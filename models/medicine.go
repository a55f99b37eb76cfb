package models

import "time"

// Medicine is a catalog entry for a packaged pharmaceutical product.
type Medicine struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	BrandName    string `gorm:"size:200;not null;index"`
	GenericName  string `gorm:"size:200;not null;index"`
	Strength     string `gorm:"size:100;not null"`
	Manufacturer string `gorm:"size:200;not null;index"`
	Uses         string `gorm:"type:text"`
	SideEffects  string `gorm:"type:text"`
	Warnings     string `gorm:"type:text"`
	// Barcode is the printed EAN/UPC digits. Not every package carries one,
	// so the column is indexed but uniqueness is enforced at insert time.
	Barcode   string `gorm:"size:50;index"`
	ImageURL  string `gorm:"size:500"`
	CreatedBy *uint  `gorm:"index"` // FK to users.id (nullable for seeded rows)
}
