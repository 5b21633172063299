package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestOpen_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	addr := ln.Addr().(*net.TCPAddr)
	rc, err := Open(context.Background(), Config{Kind: KindTCP, Host: "127.0.0.1", Port: addr.Port})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	select {
	case server := <-accepted:
		defer server.Close()
		if _, err := server.Write([]byte("$YXMTW,17.5,C\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		buf := make([]byte, 64)
		n, err := rc.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(buf[:n]) != "$YXMTW,17.5,C\n" {
			t.Fatalf("unexpected read %q", buf[:n])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no connection accepted")
	}
}

func TestOpen_UDPReadsOneDatagramPerChunk(t *testing.T) {
	rc, err := Open(context.Background(), Config{Kind: KindUDP, Port: 0})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	local := rc.(*net.UDPConn).LocalAddr().(*net.UDPAddr)
	sender, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: local.Port})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sender.Close()

	if _, err := sender.Write([]byte("$SDDPT,2.4,\r\n")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := sender.Write([]byte("$YXMTW,17.5,C\r\n")); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = rc.(*net.UDPConn).SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := rc.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "$SDDPT,2.4,\r\n" {
		t.Fatalf("expected first datagram alone, got %q", buf[:n])
	}
}

func TestOpen_UnsupportedKind(t *testing.T) {
	if _, err := Open(context.Background(), Config{Kind: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be a timeout")
	}
	if !IsTimeout(fmt.Errorf("dial: %w", &timeoutErr{})) {
		t.Fatalf("wrapped net timeout should be a timeout")
	}
	if IsTimeout(errors.New("connection refused")) {
		t.Fatalf("plain error is not a timeout")
	}
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return false }
