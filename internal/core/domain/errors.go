package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoContentFound = errors.New("no extractable content")
	ErrExtractor      = errors.New("extractor failure")
	ErrWriteFailure   = errors.New("spreadsheet write failure")
	ErrCleanup        = errors.New("cleanup failure")
	ErrJobNotFound    = errors.New("conversion job not found")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
