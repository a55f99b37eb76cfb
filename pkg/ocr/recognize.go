package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Engine turns a pixel buffer into recognized text. Implementations may
// return an empty string when nothing is legible; that is not an error.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// TesseractEngine runs recognition through a local Tesseract install.
type TesseractEngine struct {
	Language string
	PageSeg  gosseract.PageSegMode
}

// NewTesseractEngine returns an engine configured for single-block package text.
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{Language: language, PageSeg: gosseract.PSM_SINGLE_BLOCK}
}

// Recognize encodes the buffer to PNG in memory and runs one Tesseract pass.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode for ocr: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage(e.Language)
	_ = client.SetPageSegMode(e.PageSeg)
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr text: %w", err)
	}
	return text, nil
}
