package feed

import "nmealink/internal/nmea"

// Status is the connection lifecycle as observed by consumers. Within one
// Feed it only moves forward: disconnected -> connecting -> connected ->
// (error | disconnected).
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Event is the closed union delivered on the feed's event channel.
type Event interface {
	event()
}

// DataEvent carries an instrument snapshot that changed since the previous
// emission. At most one is emitted per batch interval.
type DataEvent struct {
	Fix AggregatedFix
}

// ErrorEvent carries a protocol or connection error. Per-sentence kinds are
// informational; connection kinds precede the feed stopping.
type ErrorEvent struct {
	Err *nmea.Error
}

// StatusEvent carries a connection lifecycle transition.
type StatusEvent struct {
	Status Status
}

func (DataEvent) event()   {}
func (ErrorEvent) event()  {}
func (StatusEvent) event() {}
