package ocr

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// barcodeReaders in preference order; EAN-13 first since retail medicine
// packs overwhelmingly carry EAN codes.
func barcodeReaders() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewEAN13Reader(),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		oned.NewITFReader(),
	}
}

// DecodeBarcode attempts a direct symbol-level decode of a barcode in the
// image, independent of text recognition. Returns the digit payload and
// true on success; ("", false) when no decodable symbol is present.
func DecodeBarcode(img image.Image) (string, bool) {
	if img == nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	for _, reader := range barcodeReaders() {
		result, err := reader.Decode(bmp, nil)
		if err != nil {
			continue
		}
		if m := barcodeRE.FindString(result.GetText()); m != "" {
			return m, true
		}
	}
	return "", false
}
