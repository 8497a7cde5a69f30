package screen

import (
	"fmt"
	"io"
	"strings"
)

// Terminal draws views as plain text.
type Terminal struct {
	w io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Draw writes one frame for v.
func (t *Terminal) Draw(v View) error {
	var b strings.Builder
	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "[%s]\n", v.Background)

	switch {
	case v.Busy:
		b.WriteString("  loading...\n")
	case v.Message != "":
		fmt.Fprintf(&b, "  %s\n", v.Message)
	default:
		fmt.Fprintf(&b, "  %s\n  %s\n  %s\n", v.Location, v.Weather, v.Temperature)
	}

	if v.Search.Text != "" {
		fmt.Fprintf(&b, "> %s\n", v.Search.Text)
	} else {
		fmt.Fprintf(&b, "> (%s)\n", v.Search.Placeholder)
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}
