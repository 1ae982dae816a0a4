package detector

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"desktop-autopilot/killswitch"
)

// newTestClient points a Client at srv and neuters the backoff sleep.
func newTestClient(t *testing.T, srv *httptest.Server, sleeps *int32) *Client {
	t.Helper()
	c := New(srv.URL)
	c.policy.Sleep = func(time.Duration) {
		if sleeps != nil {
			atomic.AddInt32(sleeps, 1)
		}
	}
	return c
}

func TestHealthCheckOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	if !New(srv.URL).HealthCheck() {
		t.Error("expected healthy")
	}
}

func TestHealthCheckNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if New(srv.URL).HealthCheck() {
		t.Error("expected unhealthy on 503")
	}
}

func TestHealthCheckUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	if New(srv.URL).HealthCheck() {
		t.Error("expected unhealthy on a 200 without a JSON body")
	}
}

func TestHealthCheckTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if New(srv.URL).HealthCheck() {
		t.Error("expected unhealthy on a transport error")
	}
}

func TestDetectFoundShortCircuits(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"found": true, "x": 640, "y": 400})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	res, err := c.Detect(killswitch.New(), []byte("png-bytes"), "Notepad icon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.X != 640 || res.Y != 400 {
		t.Fatalf("expected found at (640, 400), got %+v", res)
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("expected exactly 1 request, got %d", n)
	}
}

func TestDetectNotFoundIsDefinitive(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"found": false})
	}))
	defer srv.Close()

	var sleeps int32
	c := newTestClient(t, srv, &sleeps)
	res, err := c.Detect(killswitch.New(), []byte("png-bytes"), "Notepad icon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Fatal("expected not found")
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("a definitive negative must not be retried, got %d requests", n)
	}
	if atomic.LoadInt32(&sleeps) != 0 {
		t.Error("no backoff expected after a definitive answer")
	}
}

func TestDetectRetriesNon200ThenSucceeds(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n < 3 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"found": true, "x": 12, "y": 34})
	}))
	defer srv.Close()

	var sleeps int32
	c := newTestClient(t, srv, &sleeps)
	res, err := c.Detect(killswitch.New(), []byte("png-bytes"), "Notepad icon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.X != 12 || res.Y != 34 {
		t.Fatalf("expected found at (12, 34), got %+v", res)
	}
	if n := atomic.LoadInt32(&requests); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
	if atomic.LoadInt32(&sleeps) != 2 {
		t.Errorf("expected 2 backoff sleeps, got %d", sleeps)
	}
}

func TestDetectExhaustsOnTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	var sleeps int32
	c := newTestClient(t, srv, &sleeps)
	res, err := c.Detect(killswitch.New(), []byte("png-bytes"), "Notepad icon")
	if err != nil {
		t.Fatalf("exhausted retries must not surface an error, got %v", err)
	}
	if res.Found {
		t.Fatal("expected not found after exhausting retries")
	}
	// maxRetries attempts means maxRetries-1 backoffs.
	if atomic.LoadInt32(&sleeps) != maxRetries-1 {
		t.Errorf("expected %d backoff sleeps, got %d", maxRetries-1, sleeps)
	}
}

func TestDetectAbortPropagates(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	ks := killswitch.New()
	ks.Trigger()

	c := newTestClient(t, srv, nil)
	_, err := c.Detect(ks, []byte("png-bytes"), "Notepad icon")
	if !errors.Is(err, killswitch.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("expected no requests after abort, got %d", n)
	}
}

func TestDetectPayloadReusedAcrossAttempts(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4E, 0x47}
	description := "Locate the Notepad icon"

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		var req struct {
			Image       string `json:"image"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("attempt %d: bad payload: %v", n, err)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			t.Errorf("attempt %d: image is not base64: %v", n, err)
		}
		if string(decoded) != string(image) {
			t.Errorf("attempt %d: image bytes do not round-trip", n)
		}
		if req.Description != description {
			t.Errorf("attempt %d: description %q", n, req.Description)
		}
		if n < 2 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"found": true, "x": 1, "y": 2})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	res, err := c.Detect(killswitch.New(), image, description)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected found")
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
}
