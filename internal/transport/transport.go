// Package transport opens the raw byte source for an instrument bus: a TCP
// stream, a UDP listener, or a local serial port. All three present the same
// io.ReadCloser surface; for UDP every Read returns one datagram.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	serial "go.bug.st/serial"
)

type Kind string

const (
	KindTCP    Kind = "tcp"
	KindUDP    Kind = "udp"
	KindSerial Kind = "serial"
)

type Config struct {
	Kind Kind

	// Host and Port address the remote bus for tcp; for udp only Port is
	// used, as the local port to bind.
	Host string
	Port int

	// Device and Baud select the serial port for Kind == KindSerial.
	Device string
	Baud   int

	// ConnectTimeout bounds the TCP dial. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultBaud           = 4800
)

// Open connects to the configured endpoint and returns the chunk source.
// A failed TCP dial that ran out its deadline satisfies IsTimeout.
func Open(ctx context.Context, cfg Config) (io.ReadCloser, error) {
	switch cfg.Kind {
	case KindTCP, "":
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = DefaultConnectTimeout
		}
		dialer := &net.Dialer{Timeout: timeout}
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
		}
		return conn, nil

	case KindUDP:
		conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.Port})
		if err != nil {
			return nil, fmt.Errorf("listen udp :%d: %w", cfg.Port, err)
		}
		return conn, nil

	case KindSerial:
		baud := cfg.Baud
		if baud <= 0 {
			baud = DefaultBaud
		}
		port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("open serial %s @%d: %w", cfg.Device, baud, err)
		}
		return port, nil

	default:
		return nil, fmt.Errorf("unsupported transport kind %q", cfg.Kind)
	}
}

// IsTimeout reports whether err is a connect timeout rather than a general
// socket failure. The two are surfaced as distinct error kinds.
func IsTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
