package models

import "time"

// OCRLog records one processed package image so failed scans can be reviewed.
type OCRLog struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UserID        *uint  `gorm:"index"`
	ScanID        string `gorm:"size:64;not null;uniqueIndex"`
	ExtractedText string `gorm:"type:text"`
	MatchesCount  int    `gorm:"not null"`
	TopStrategy   string `gorm:"size:32"`
	TopConfidence float64
	ProcessingMS  int64 `gorm:"not null"`
}
