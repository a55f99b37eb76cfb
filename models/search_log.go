package models

import "time"

// SearchLog records a catalog search (text or fuzzy) for usage auditing.
type SearchLog struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UserID        *uint  `gorm:"index"`
	Query         string `gorm:"size:500;not null"`
	SearchType    string `gorm:"size:32;not null"` // "text" or "fuzzy"
	ResultsCount  int    `gorm:"not null"`
	TopStrategy   string `gorm:"size:32"`
	TopConfidence float64
}
