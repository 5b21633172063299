package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"nmealink/internal/feed"
	"nmealink/internal/nmea"
)

func testFix(celsius float64) feed.AggregatedFix {
	return feed.AggregatedFix{
		WaterTemp:   &nmea.WaterTemp{Celsius: celsius},
		LastUpdated: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStatusEndpoint(t *testing.T) {
	hub := NewHub()
	hub.Stats = func() feed.Stats { return feed.Stats{Sentences: 42} }

	hub.HandleEvent(feed.StatusEvent{Status: feed.StatusConnected})
	hub.HandleEvent(feed.ErrorEvent{Err: &nmea.Error{Kind: nmea.ErrParse, Message: "bad depth"}})
	hub.HandleEvent(feed.DataEvent{Fix: testFix(17.5)})

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var got struct {
		Status    string      `json:"status"`
		LastError string      `json:"last_error"`
		Stats     *feed.Stats `json:"stats"`
		Fix       *struct {
			WaterTemp *struct {
				Celsius float64 `json:"celsius"`
			} `json:"water_temp"`
		} `json:"fix"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "connected" {
		t.Fatalf("expected connected, got %q", got.Status)
	}
	if !strings.Contains(got.LastError, "bad depth") {
		t.Fatalf("expected last error, got %q", got.LastError)
	}
	if got.Stats == nil || got.Stats.Sentences != 42 {
		t.Fatalf("unexpected stats %+v", got.Stats)
	}
	if got.Fix == nil || got.Fix.WaterTemp == nil || got.Fix.WaterTemp.Celsius != 17.5 {
		t.Fatalf("unexpected fix %+v", got.Fix)
	}
}

func TestStatusEndpoint_MethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewHub().Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestLiveEndpoint_SeedsAndBroadcasts(t *testing.T) {
	hub := NewHub()
	hub.HandleEvent(feed.DataEvent{Fix: testFix(16.0)})

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readFix := func() feed.AggregatedFix {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var fix feed.AggregatedFix
		if err := conn.ReadJSON(&fix); err != nil {
			t.Fatalf("read: %v", err)
		}
		return fix
	}

	// New subscribers are seeded with the latest snapshot.
	if fix := readFix(); fix.WaterTemp == nil || fix.WaterTemp.Celsius != 16.0 {
		t.Fatalf("unexpected seed fix %+v", fix)
	}

	hub.HandleEvent(feed.DataEvent{Fix: testFix(17.5)})
	if fix := readFix(); fix.WaterTemp == nil || fix.WaterTemp.Celsius != 17.5 {
		t.Fatalf("unexpected broadcast fix %+v", fix)
	}
}

func TestLiveEndpoint_StalledClientDoesNotBlockHub(t *testing.T) {
	hub := NewHub()
	hub.Stats = func() feed.Stats { return feed.Stats{} }

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	// This client never reads: its socket buffers fill up and stay full.

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			hub.HandleEvent(feed.DataEvent{Fix: testFix(float64(i))})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("event handling stalled behind a client that never reads")
	}

	// The status endpoint must stay responsive as well.
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("status while client stalled: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}
