package domain

import (
	"fmt"
	"time"
)

// Window is a half-open time range [From, To) under analysis.
type Window struct {
	from time.Time
	to   time.Time
}

// NewWindow validates and creates a Window.
func NewWindow(from, to time.Time) (Window, error) {
	if from.IsZero() || to.IsZero() {
		return Window{}, fmt.Errorf("window bounds are required")
	}
	if !from.Before(to) {
		return Window{}, fmt.Errorf("window start %s must be before end %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return Window{from: from.UTC(), to: to.UTC()}, nil
}

// LastHours returns a window covering the last n hours before now.
func LastHours(now time.Time, n int) Window {
	return Window{from: now.UTC().Add(-time.Duration(n) * time.Hour), to: now.UTC()}
}

// From returns the inclusive lower bound.
func (w Window) From() time.Time { return w.from }

// To returns the exclusive upper bound.
func (w Window) To() time.Time { return w.to }

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.from) && t.Before(w.to)
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 { return w.to.Sub(w.from).Hours() }

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.from.Format(time.RFC3339), w.to.Format(time.RFC3339))
}
