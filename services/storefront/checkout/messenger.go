package checkout

import (
	"context"
	"fmt"
	"io"
)

// PrintMessenger "sends" an order by printing the deep link for the user
// to open. It stands in for handing the link to a phone's messaging app.
type PrintMessenger struct {
	W io.Writer
}

func (m PrintMessenger) Send(_ context.Context, link, summary string) error {
	if _, err := fmt.Fprintf(m.W, "%s\n\nOpen this link to send the order:\n%s\n", summary, link); err != nil {
		return fmt.Errorf("print order: %w", err)
	}
	return nil
}
