//go:build !ocr

package ocr

// NewTesseract fails in builds without the ocr tag; the strategy then reports
// a failed attempt and the chain moves on.
func NewTesseract([]string) (Recognizer, error) {
	return nil, ErrEngineUnavailable
}

// Available reports whether the binary carries an OCR engine.
func Available() bool { return false }
