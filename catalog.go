package main

import (
	"context"
	"errors"
	"fmt"

	"medscan/models"
	"medscan/pkg/match"

	"gorm.io/gorm"
)

// CatalogStore adapts the medicines table to the match.Catalog interface.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) GetByID(ctx context.Context, id uint) (*match.Entry, error) {
	var m models.Medicine
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e := toEntry(m)
	return &e, nil
}

func (s *CatalogStore) GetByBarcode(ctx context.Context, barcode string) (*match.Entry, error) {
	var m models.Medicine
	if err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e := toEntry(m)
	return &e, nil
}

func (s *CatalogStore) SearchField(ctx context.Context, field match.Field, query string, limit int) ([]match.Entry, error) {
	col, err := columnFor(field)
	if err != nil {
		return nil, err
	}
	var ms []models.Medicine
	q := s.db.WithContext(ctx).Where(col+" ILIKE ?", "%"+query+"%").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toEntries(ms), nil
}

func (s *CatalogStore) ListPage(ctx context.Context, offset, limit int) ([]match.Entry, error) {
	var ms []models.Medicine
	q := s.db.WithContext(ctx).Order("id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toEntries(ms), nil
}

// columnFor maps a match field to its column. Explicit so no request
// string ever reaches the SQL text.
func columnFor(field match.Field) (string, error) {
	switch field {
	case match.FieldBrandName:
		return "brand_name", nil
	case match.FieldGenericName:
		return "generic_name", nil
	case match.FieldManufacturer:
		return "manufacturer", nil
	default:
		return "", fmt.Errorf("unknown catalog field %q", field)
	}
}

func toEntry(m models.Medicine) match.Entry {
	return match.Entry{
		ID:           m.ID,
		BrandName:    m.BrandName,
		GenericName:  m.GenericName,
		Strength:     m.Strength,
		Manufacturer: m.Manufacturer,
		Barcode:      m.Barcode,
	}
}

func toEntries(ms []models.Medicine) []match.Entry {
	out := make([]match.Entry, 0, len(ms))
	for _, m := range ms {
		out = append(out, toEntry(m))
	}
	return out
}
