package main

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNavigationTimeout  = errors.New("navigation timeout")
	ErrElementTimeout     = errors.New("element timeout")
	ErrDownload           = errors.New("download failed")
	ErrParse              = errors.New("order table parse failed")
	ErrFileSystem         = errors.New("filesystem error")
	ErrInvalidOrder       = errors.New("invalid order row")
	ErrInvalidOrderNumber = errors.New("invalid order number")
	ErrSubmitExhausted    = errors.New("order submission gave up")
	ErrPublish            = errors.New("archive publish failed")
)

// asElementTimeout tags deadline errors coming out of the browser driver so
// callers can match them with errors.Is(err, ErrElementTimeout).
func asElementTimeout(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrElementTimeout, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
