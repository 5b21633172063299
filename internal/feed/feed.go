// Package feed runs the NMEA ingestion worker: one goroutine owns the
// transport connection, line reassembly, sentence decoding, aggregation, and
// the batch ticker, and reports to the caller only through an event channel.
// The caller never blocks on socket I/O or parsing.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"nmealink/internal/nmea"
	"nmealink/internal/stream"
	"nmealink/internal/transport"
)

type Config struct {
	Transport transport.Config

	// BatchInterval bounds the DataEvent rate: at most one snapshot per
	// interval, and only when something changed. Default 200ms.
	BatchInterval time.Duration

	// MaxBuffer is the reassembly ceiling in bytes. Default 4096.
	MaxBuffer int

	// EventBuffer sizes the event channel. Default 64. If the consumer
	// stops draining, events are dropped rather than stalling the read
	// loop; snapshots are latest-value so a later tick re-emits the
	// current state.
	EventBuffer int
}

// Stats are cumulative counters for one connection.
type Stats struct {
	BytesRead    uint64 `json:"bytes_read"`
	Sentences    uint64 `json:"sentences"`
	Readings     uint64 `json:"readings"`
	BadSentences uint64 `json:"bad_sentences"`
	Overflows    uint64 `json:"overflows"`
	Snapshots    uint64 `json:"snapshots"`
}

// Feed is one connection lifetime. It is not restartable: a reconnect
// constructs a new Feed, which guarantees a fresh aggregator with no stale
// readings from the previous connection.
type Feed struct {
	cfg  Config
	dial func(ctx context.Context, cfg transport.Config) (io.ReadCloser, error)

	started  atomic.Bool
	events   chan Event
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	mu     sync.RWMutex
	status Status
	last   AggregatedFix
	stats  Stats
}

func New(cfg Config) *Feed {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 200 * time.Millisecond
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = stream.DefaultMaxBytes
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	return &Feed{
		cfg:    cfg,
		dial:   transport.Open,
		status: StatusDisconnected,
		events: make(chan Event, cfg.EventBuffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start connects and begins ingesting. The event channel is closed once the
// worker has fully stopped, whatever the cause.
func (f *Feed) Start(ctx context.Context) error {
	if f == nil {
		return fmt.Errorf("feed is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if f.started.Swap(true) {
		return fmt.Errorf("feed already started")
	}
	go f.run(ctx)
	return nil
}

// Events is the worker-to-caller channel. It carries DataEvent, ErrorEvent,
// and StatusEvent values and is closed when the worker stops.
func (f *Feed) Events() <-chan Event {
	return f.events
}

// Shutdown asks the worker to stop and waits until the socket is released
// and the final status has been emitted. Safe to call more than once.
func (f *Feed) Shutdown() {
	if f == nil {
		return
	}
	f.quitOnce.Do(func() { close(f.quit) })
	if f.started.Load() {
		<-f.done
	}
}

func (f *Feed) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// Latest returns the current aggregated snapshot, which may be zero before
// the first reading.
func (f *Feed) Latest() AggregatedFix {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

func (f *Feed) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stats
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	defer close(f.events)

	f.setStatus(StatusConnecting)
	f.emit(StatusEvent{StatusConnecting})

	conn, err := f.dial(ctx, f.cfg.Transport)
	if err != nil {
		kind := nmea.ErrConnection
		if transport.IsTimeout(err) {
			kind = nmea.ErrTimeout
		}
		f.emitFinal(ErrorEvent{&nmea.Error{Kind: kind, Message: err.Error()}})
		f.setStatus(StatusError)
		f.emitFinal(StatusEvent{StatusError})
		return
	}

	f.setStatus(StatusConnected)
	f.emit(StatusEvent{StatusConnected})

	chunks := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go readLoop(ctx, f.quit, conn, f.cfg.MaxBuffer, chunks, readErr)

	ticker := time.NewTicker(f.cfg.BatchInterval)
	defer ticker.Stop()

	lb := stream.NewLineBuffer(f.cfg.MaxBuffer)
	var agg aggregator
	var emitted uint64

	for {
		select {
		case <-ctx.Done():
			f.stop(conn)
			return

		case <-f.quit:
			f.stop(conn)
			return

		case chunk := <-chunks:
			f.ingest(lb, &agg, chunk)

		case err := <-readErr:
			_ = conn.Close()
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				f.setStatus(StatusDisconnected)
				f.emitFinal(StatusEvent{StatusDisconnected})
			} else {
				f.emitFinal(ErrorEvent{&nmea.Error{Kind: nmea.ErrConnection, Message: err.Error()}})
				f.setStatus(StatusError)
				f.emitFinal(StatusEvent{StatusError})
			}
			return

		case <-ticker.C:
			if agg.seq == emitted {
				continue
			}
			emitted = agg.seq
			f.mu.Lock()
			f.stats.Snapshots++
			f.mu.Unlock()
			f.emit(DataEvent{agg.Snapshot()})
		}
	}
}

// ingest runs one chunk through reassembly and decoding and folds the
// resulting readings into the aggregator.
func (f *Feed) ingest(lb *stream.LineBuffer, agg *aggregator, chunk []byte) {
	lines, overflow := lb.Push(chunk)

	f.mu.Lock()
	f.stats.BytesRead += uint64(len(chunk))
	f.stats.Sentences += uint64(len(lines))
	if overflow {
		f.stats.Overflows++
	}
	f.mu.Unlock()

	if overflow {
		f.emit(ErrorEvent{&nmea.Error{
			Kind:    nmea.ErrBufferOverflow,
			Message: fmt.Sprintf("no line terminator within %d bytes, buffer cleared", f.cfg.MaxBuffer),
		}})
	}

	for _, line := range lines {
		r, derr := nmea.Decode(line)
		if derr != nil {
			f.mu.Lock()
			f.stats.BadSentences++
			f.mu.Unlock()
			f.emit(ErrorEvent{derr})
			continue
		}
		if r == nil {
			// Unsupported sentence type; forward compatibility.
			continue
		}
		agg.Apply(time.Now().UTC(), r)
		f.mu.Lock()
		f.stats.Readings++
		f.last = agg.Snapshot()
		f.mu.Unlock()
	}
}

// stop performs the cooperative shutdown: release the socket, then report
// the final disconnected status.
func (f *Feed) stop(conn io.Closer) {
	_ = conn.Close()
	f.setStatus(StatusDisconnected)
	f.emitFinal(StatusEvent{StatusDisconnected})
}

func (f *Feed) setStatus(s Status) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

// emit never blocks the worker. The channel is buffered; if the consumer has
// stopped draining, the event is dropped.
func (f *Feed) emit(ev Event) {
	select {
	case f.events <- ev:
	default:
	}
}

// emitFinal delivers the one-shot events that explain why the channel is
// about to close. It never blocks either: on a full buffer it evicts the
// oldest queued event to make room. The worker is the only producer, so the
// loop terminates.
func (f *Feed) emitFinal(ev Event) {
	for {
		select {
		case f.events <- ev:
			return
		default:
		}
		select {
		case <-f.events:
		default:
		}
	}
}

// readLoop pulls chunks off the connection until it fails or the feed stops.
// Each chunk is copied, so the worker owns what it receives. The buffer is
// sized to the reassembly ceiling: a UDP datagram delivers in one Read, and a
// smaller buffer would truncate anything past it.
func readLoop(ctx context.Context, quit <-chan struct{}, conn io.Reader, bufSize int, chunks chan<- []byte, readErr chan<- error) {
	buf := make([]byte, bufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			case <-quit:
				return
			}
		}
		if err != nil {
			readErr <- err
			return
		}
	}
}
