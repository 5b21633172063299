package feed

import (
	"time"

	"nmealink/internal/nmea"
)

// AggregatedFix is the latest-known-value snapshot across all instrument
// categories. Slots stay nil until the first reading of that kind arrives and
// persist until overwritten; an unrelated sentence never resets them.
type AggregatedFix struct {
	Position    *nmea.PositionFix    `json:"position,omitempty"`
	Nav         *nmea.NavInfo        `json:"nav,omitempty"`
	Track       *nmea.TrackSpeed     `json:"track,omitempty"`
	Wind        *nmea.WindReading    `json:"wind,omitempty"`
	Depth       *nmea.DepthReading   `json:"depth,omitempty"`
	Heading     *nmea.HeadingReading `json:"heading,omitempty"`
	WaterTemp   *nmea.WaterTemp      `json:"water_temp,omitempty"`
	LastUpdated time.Time            `json:"last_updated"`
}

// aggregator folds readings into the current fix. Single-writer: only the
// worker loop calls Apply, so no lock is needed; the ticker reads from the
// same goroutine.
type aggregator struct {
	fix AggregatedFix
	// seq counts applied readings; the scheduler compares it against the
	// last emitted value to skip unchanged ticks.
	seq uint64
}

// Apply stores r in its slot and advances LastUpdated. Each slot holds a
// fresh copy, so previously emitted snapshots are never mutated.
func (a *aggregator) Apply(nowUTC time.Time, r nmea.Reading) {
	switch v := r.(type) {
	case nmea.PositionFix:
		a.fix.Position = &v
	case nmea.NavInfo:
		a.fix.Nav = &v
	case nmea.TrackSpeed:
		a.fix.Track = &v
	case nmea.WindReading:
		a.fix.Wind = &v
	case nmea.DepthReading:
		a.fix.Depth = &v
	case nmea.HeadingReading:
		a.fix.Heading = &v
	case nmea.WaterTemp:
		a.fix.WaterTemp = &v
	default:
		return
	}
	// Monotonic for the lifetime of the connection.
	if nowUTC.After(a.fix.LastUpdated) {
		a.fix.LastUpdated = nowUTC
	}
	a.seq++
}

func (a *aggregator) Snapshot() AggregatedFix {
	return a.fix
}
