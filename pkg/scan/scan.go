// Package scan runs the whole identification pipeline for one image:
// decode, preprocess, recognize, extract fields, then rank catalog
// matches. A pipeline run holds no shared mutable state, so concurrent
// scans only share the read-only catalog.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"medscan/pkg/match"
	"medscan/pkg/ocr"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Result is the outcome of one scan request.
type Result struct {
	ScanID        string               `json:"scan_id"`
	ExtractedText string               `json:"extracted_text"`
	Fields        ocr.Fields           `json:"fields"`
	Matches       []match.RankedResult `json:"matches,omitempty"`
}

// Service orchestrates the scan pipeline. The OCR engine and the catalog
// (behind the match engine) are injected collaborators; everything the
// service does itself is CPU-bound.
type Service struct {
	engine *match.Engine
	ocr    ocr.Engine
}

func NewService(engine *match.Engine, ocrEngine ocr.Engine) *Service {
	return &Service{engine: engine, ocr: ocrEngine}
}

// ProcessScan extracts text and structured fields from an image without
// touching the catalog. The only hard failure is an undecodable payload;
// a failed recognition degrades to empty text and empty fields.
func (s *Service) ProcessScan(ctx context.Context, imageBytes []byte) (*Result, error) {
	res, _, err := s.runPipeline(ctx, imageBytes)
	return res, err
}

// SearchByScan is ProcessScan plus matching: the ranked list is empty,
// not an error, when nothing in the catalog resembles the scan.
func (s *Service) SearchByScan(ctx context.Context, imageBytes []byte, limit int) (*Result, error) {
	res, text, err := s.runPipeline(ctx, imageBytes)
	if err != nil {
		return nil, err
	}
	res.Matches = s.engine.Rank(ctx, text.Flat, res.Fields, limit)
	return res, nil
}

// SearchByText matches caller-supplied text directly, with the same
// extraction heuristics a scan goes through.
func (s *Service) SearchByText(ctx context.Context, query string, limit int) []match.RankedResult {
	text := ocr.Normalize(query)
	fields := ocr.ExtractFields(text)
	return s.engine.Rank(ctx, text.Flat, fields, limit)
}

func (s *Service) runPipeline(ctx context.Context, imageBytes []byte) (*Result, ocr.Text, error) {
	scanID := uuid.NewString()
	if len(imageBytes) == 0 {
		return nil, ocr.Text{}, fmt.Errorf("%w: empty payload", ocr.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, ocr.Text{}, fmt.Errorf("%w: %v", ocr.ErrDecode, err)
	}
	raw, err := s.ocr.Recognize(ctx, ocr.Preprocess(img))
	if err != nil {
		// degraded recognition is preferable to a failed scan
		log.Printf("scan %s: recognition failed, continuing with empty text: %v", scanID, err)
		raw = ""
	}
	text := ocr.Normalize(raw)
	fields := ocr.ExtractFields(text)
	if fields.Barcode == "" {
		if code, ok := ocr.DecodeBarcode(img); ok {
			log.Printf("scan %s: barcode %s recovered by symbol decode", scanID, code)
			fields.Barcode = code
		}
	}
	return &Result{ScanID: scanID, ExtractedText: text.Flat, Fields: fields}, text, nil
}
