//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type tesseract struct {
	client *gosseract.Client
}

// NewTesseract opens a Tesseract client for languages (e.g. "eng", "hin").
func NewTesseract(languages []string) (Recognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr languages: %w", err)
	}
	return &tesseract{client: client}, nil
}

func (t *tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := t.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}

func (t *tesseract) Close() error {
	return t.client.Close()
}

// Available reports whether the binary carries an OCR engine.
func Available() bool { return true }
