package ocr

import "errors"

// ErrDecode is returned when an uploaded payload cannot be decoded into an image.
var ErrDecode = errors.New("cannot decode image")
