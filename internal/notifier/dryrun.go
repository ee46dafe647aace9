package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be sent without delivering anything
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the notification that would be sent
func (n *DryRunNotifier) Notify(_ context.Context, msg Message) error {
	fmt.Fprintln(n.out, "--- Notification (dry run) ---")
	fmt.Fprintf(n.out, "Subject: %s\n", msg.Subject)
	fmt.Fprintln(n.out, msg.Text)
	fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", len([]rune(msg.Text)))
	return nil
}
