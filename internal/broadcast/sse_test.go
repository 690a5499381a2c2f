package broadcast

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServeSSEReplaysAfterLastEventID(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer srv.Close()

	for i := 0; i < 3; i++ {
		if err := hub.Publish("room-a", "room_changed", map[string]any{"i": i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/?room_id=room-a", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var ids []string
	sc := bufio.NewScanner(resp.Body)
	for len(ids) < 2 && sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "id: ") {
			ids = append(ids, strings.TrimPrefix(line, "id: "))
		}
	}
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "3" {
		t.Fatalf("replayed ids = %v, want [2 3]", ids)
	}
}

func TestServeSSERequiresRoom(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()
	rec := httptest.NewRecorder()
	hub.ServeSSE(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
