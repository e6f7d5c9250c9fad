package chrono

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// the statistics site publishes dates in Hungarian local time
const zone = "Europe/Budapest"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	// Today returns midnight of the current day in Location().
	Today() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API on top of a clockwork clock.
type StandardImpl struct {
	clock    clockwork.Clock
	location *time.Location
}

// NewStandardImpl creates an API backed by the real system clock.
func NewStandardImpl() (StandardImpl, error) {
	return NewWithClock(clockwork.NewRealClock())
}

// NewWithClock creates an API backed by the given clock, tests pass a
// clockwork.FakeClock here.
func NewWithClock(clock clockwork.Clock) (StandardImpl, error) {
	location, err := time.LoadLocation(zone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{clock: clock, location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s StandardImpl) Today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}
