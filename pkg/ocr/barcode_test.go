package ocr

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestDecodeBarcodeNoSymbol(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{255, 255, 255, 255})
	if code, ok := DecodeBarcode(img); ok {
		t.Fatalf("expected no barcode on blank image, got %q", code)
	}
}

func TestDecodeBarcodeNilImage(t *testing.T) {
	if _, ok := DecodeBarcode(nil); ok {
		t.Fatal("expected failure for nil image")
	}
}
