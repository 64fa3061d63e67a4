package pager

import (
	"context"
	"errors"
	"strings"
)

// DefaultFallbackMessage is shown when a failure has no usable text.
const DefaultFallbackMessage = "Failed to load. Make sure the backend is running."

// Displayer is implemented by errors that carry their own display text.
// Message shows it in place of the full wrapped text.
type Displayer interface {
	Display() string
}

// Message converts a fetch failure into display text.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = DefaultFallbackMessage
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. " + fallback
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	}

	msg := err.Error()
	var d Displayer
	if errors.As(err, &d) {
		msg = d.Display()
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return fallback
	}
	return msg
}
