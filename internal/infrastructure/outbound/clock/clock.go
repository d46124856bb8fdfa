package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

var _ ports.Clock = (*RealClock)(nil)

// RealClock implements ports.Clock using the system clock, reporting times
// in a fixed location so log timestamps match the test floor's wall clock.
type RealClock struct {
	loc *time.Location
}

// New creates a RealClock in the local time zone.
func New() *RealClock {
	return &RealClock{loc: time.Local}
}

// NewIn creates a RealClock for the named IANA zone. An empty name means local.
func NewIn(zone string) (*RealClock, error) {
	if zone == "" {
		return New(), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", zone, err)
	}
	return &RealClock{loc: loc}, nil
}

func (c *RealClock) Now() time.Time { return time.Now().In(c.loc) }

// Location returns the zone Now reports in.
func (c *RealClock) Location() *time.Location { return c.loc }

func (c *RealClock) SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
