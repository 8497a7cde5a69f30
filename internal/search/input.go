// Package search implements the controlled search field. It keeps the typed
// text locally and emits a SubmitEvent when a non-empty entry is finished.
package search

import (
	"context"
	"sync"
)

// Placeholder is shown while the field is empty.
const Placeholder = "Search any city"

// Event sources, used for metrics and logs.
const (
	SourceTerminal = "terminal"
	SourceHTTP     = "http"
	SourceMount    = "mount"
)

// SubmitEvent is emitted once per finished, non-empty entry.
type SubmitEvent struct {
	Text   string
	Source string
}

// Input is a controlled text field. It performs no I/O; submitting is the
// only way its text reaches the screen.
type Input struct {
	mu     sync.Mutex
	text   string
	source string
	events chan<- SubmitEvent
}

// NewInput returns an Input that emits on events, tagging them with source.
func NewInput(events chan<- SubmitEvent, source string) *Input {
	return &Input{events: events, source: source}
}

// Text returns the current typed text.
func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

// SetText replaces the typed text.
func (in *Input) SetText(text string) {
	in.mu.Lock()
	in.text = text
	in.mu.Unlock()
}

// Type appends one rune.
func (in *Input) Type(r rune) {
	in.mu.Lock()
	in.text += string(r)
	in.mu.Unlock()
}

// Backspace removes the last rune, if any.
func (in *Input) Backspace() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.text == "" {
		return
	}
	runes := []rune(in.text)
	in.text = string(runes[:len(runes)-1])
}

// Submit emits the current text and clears the field. An empty field is a
// no-op. If ctx ends before the event is delivered the text is kept and
// ctx.Err() is returned. Returns whether an event was emitted.
func (in *Input) Submit(ctx context.Context) (bool, error) {
	in.mu.Lock()
	text := in.text
	in.mu.Unlock()
	if text == "" {
		return false, nil
	}

	select {
	case in.events <- SubmitEvent{Text: text, Source: in.source}:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	in.mu.Lock()
	// Keystrokes typed while the send was pending are kept.
	if in.text == text {
		in.text = ""
	}
	in.mu.Unlock()
	return true, nil
}
