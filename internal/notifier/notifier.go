package notifier

import (
	"context"
	"errors"
	"fmt"
)

// Message is one notification
type Message struct {
	Subject string
	Text    string // plain text body
	HTML    string // optional HTML body, used by channels that render it
}

// Notifier defines the interface for delivering notifications
type Notifier interface {
	// Notify delivers the message
	Notify(ctx context.Context, msg Message) error
}

// Multi delivers a message through every notifier it holds. Every channel is attempted
// even when an earlier one fails.
type Multi []Notifier

// Notify delivers msg to every notifier and joins their errors
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d (%T): %w", i, n, err))
		}
	}
	return errors.Join(errs...)
}
