package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geodetic-io/cartograph/pkg/cache"
	"github.com/geodetic-io/cartograph/pkg/errors"
)

func TestFetchCachesResponse(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(srv.Client(), fc, time.Hour)
	ctx := context.Background()

	first, err := c.Fetch(ctx, srv.URL+"/countries.geojson")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := c.Fetch(ctx, srv.URL+"/countries.geojson")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if string(first) != string(second) {
		t.Error("cached fetch returned different data")
	}
	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1 (second fetch should be served from cache)", hits)
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.Client(), nil, 0)
	_, err := c.Fetch(context.Background(), srv.URL+"/missing.geojson")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFetchRejectsNonHTTPURL(t *testing.T) {
	c := NewClient(nil, nil, 0)
	for _, raw := range []string{"ftp://example.com/x", "countries.geojson", "::bad::"} {
		if _, err := c.Fetch(context.Background(), raw); !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("Fetch(%q) err = %v, want FILE_NOT_FOUND", raw, err)
		}
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), nil, 0)
	_, err := c.Fetch(context.Background(), srv.URL+"/private.geojson")
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("err = %v, want INTERNAL", err)
	}
	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1 (4xx must not be retried)", hits)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), nil, 0)
	c.baseDelay = time.Millisecond
	data, err := c.Fetch(context.Background(), srv.URL+"/flaky.geojson")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected body after recovery")
	}
	if hits != 3 {
		t.Errorf("upstream hits = %d, want 3", hits)
	}
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), nil, 0)
	c.baseDelay = time.Millisecond
	if _, err := c.Fetch(context.Background(), srv.URL+"/down.geojson"); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if hits != 3 {
		t.Errorf("upstream hits = %d, want 3", hits)
	}
}

func TestFetchStopsBackoffOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.Client(), nil, 0)
	c.baseDelay = time.Minute
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, srv.URL+"/slow.geojson")
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error from cancelled fetch")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch kept backing off after cancellation")
	}
}
