package covid

import (
	"fmt"
	"strings"
	"time"
)

// Window is an inclusive range of dates, usually a pandemic wave. A zero
// From or To leaves that side open, the zero Window contains every date.
type Window struct {
	Name string
	From time.Time
	To   time.Time
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

func (w Window) Contains(date time.Time) bool {
	date = Day(date)
	if !w.From.IsZero() && date.Before(Day(w.From)) {
		return false
	}
	if !w.To.IsZero() && date.After(Day(w.To)) {
		return false
	}
	return true
}

// Slug is the window name in a form usable in file names.
func (w Window) Slug() string {
	if w.Name == "" {
		if w.IsZero() {
			return ""
		}
		return fmt.Sprintf("%s_%s", formatOpen(w.From), formatOpen(w.To))
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, w.Name)
}

func (w Window) String() string {
	if w.IsZero() {
		return "all"
	}
	if w.Name != "" {
		return fmt.Sprintf("%s (%s - %s)", w.Name, formatOpen(w.From), formatOpen(w.To))
	}
	return fmt.Sprintf("%s - %s", formatOpen(w.From), formatOpen(w.To))
}

func formatOpen(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format(DateLayout)
}

// FindWindow looks a window up by name, case insensitively.
func FindWindow(windows []Window, name string) (Window, error) {
	for _, w := range windows {
		if strings.EqualFold(w.Name, name) {
			return w, nil
		}
	}
	known := make([]string, len(windows))
	for i, w := range windows {
		known[i] = w.Name
	}
	return Window{}, fmt.Errorf("unknown wave %q, known waves: %s", name, strings.Join(known, ", "))
}
