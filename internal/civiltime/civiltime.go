// Package civiltime produces the canonical timestamps used by clipshare.
//
// Every stored or compared timestamp is "civil milliseconds": the wall-clock
// fields of an instant in a fixed-offset zone, re-read as if they were UTC.
// The result is a self-consistent epoch shifted by the zone offset. All
// components must go through the same Clock or comparisons skew by exactly
// the offset.
package civiltime

import (
	"fmt"
	"time"
)

// DefaultOffset is the fixed civil zone offset (UTC+8).
const DefaultOffset = 8 * time.Hour

// Clock returns the current instant in civil milliseconds.
type Clock interface {
	Now() int64
}

// Civil converts real instants into civil milliseconds for a fixed offset.
type Civil struct {
	zone *time.Location
	now  func() time.Time
}

// New returns a Civil clock for the given offset east of UTC.
func New(offset time.Duration) *Civil {
	return &Civil{
		zone: time.FixedZone(zoneName(offset), int(offset.Seconds())),
		now:  time.Now,
	}
}

// WithSource returns a copy of c that reads real time from now.
func (c *Civil) WithSource(now func() time.Time) *Civil {
	return &Civil{zone: c.zone, now: now}
}

// Now returns the current civil timestamp.
func (c *Civil) Now() int64 {
	return c.ToCivil(c.now())
}

// ToCivil renders t in the civil zone and rebuilds an instant from those
// wall-clock fields as though they were UTC.
func (c *Civil) ToCivil(t time.Time) int64 {
	wall := t.In(c.zone)
	rebuilt := time.Date(
		wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(),
		time.UTC,
	)
	return rebuilt.UnixMilli()
}

// Instant maps a civil timestamp back to the real instant it denotes.
func (c *Civil) Instant(ms int64) time.Time {
	wall := time.UnixMilli(ms).UTC()
	return time.Date(
		wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(),
		c.zone,
	)
}

// Offset returns the zone offset of the clock.
func (c *Civil) Offset() time.Duration {
	_, secs := time.Unix(0, 0).In(c.zone).Zone()
	return time.Duration(secs) * time.Second
}

// Format renders a civil timestamp as wall-clock text for logs and output.
func Format(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

// Frozen is a Clock that always reports the same civil timestamp.
type Frozen int64

// Now implements Clock.
func (f Frozen) Now() int64 { return int64(f) }

func zoneName(offset time.Duration) string {
	if offset == 0 {
		return "UTC"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	if m == 0 {
		return fmt.Sprintf("UTC%s%d", sign, h)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
}
