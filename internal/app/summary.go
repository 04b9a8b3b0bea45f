package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
)

// PrintSummary writes the human-readable run summary: a banner, then one
// numbered block per view.
func PrintSummary(w io.Writer, views []event.View, rawCount int, label string) error {
	rule := strings.Repeat("=", 64)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "  %d AI events in %s (from %d raw)\n", len(views), label, rawCount)
	fmt.Fprintf(&b, "%s\n\n", rule)
	for i, v := range views {
		fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, v.EventType, v.Title)
		fmt.Fprintf(&b, "     %s\n", v.DisplayDate)
		fmt.Fprintf(&b, "     %s\n", v.DisplayLocation)
		fmt.Fprintf(&b, "     %s\n", v.DisplayPrice)
		if v.URL != "" {
			fmt.Fprintf(&b, "     %s\n", v.URL)
		}
		if v.Blurb != "" {
			fmt.Fprintf(&b, "     %s\n", v.Blurb)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
