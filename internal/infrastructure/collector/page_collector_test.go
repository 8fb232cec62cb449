package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/config"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<link rel="stylesheet" href="/app.css">
<script src="/app.js"></script>
</head>
<body>
<img src="/logo.png">
<iframe src="/embed"></iframe>
<p>plain text</p>
</body>
</html>`

func testConfig() config.CollectorConfig {
	return config.CollectorConfig{
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 20,
		UserAgent:      "PageHealthBot/test",
	}
}

func TestCollectPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())
	sample, err := c.CollectPageSize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectPageSize() error = %v", err)
	}

	if sample.Kind != valueobject.PageSize {
		t.Errorf("expected pageSize kind, got %v", sample.Kind)
	}
	if !sample.Available {
		t.Error("expected available sample")
	}
	if sample.Value != float64(len(testPage)) {
		t.Errorf("expected %d bytes, got %v", len(testPage), sample.Value)
	}
}

func TestCollectRequestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())
	sample, err := c.CollectRequestCount(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectRequestCount() error = %v", err)
	}

	// Документ + css + js + img + iframe
	if sample.Value != 5 {
		t.Errorf("expected 5 requests, got %v", sample.Value)
	}
}

func TestCollectRequestCountNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())
	sample, err := c.CollectRequestCount(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectRequestCount() error = %v", err)
	}
	if sample.Value != 1 {
		t.Errorf("expected single request for non-HTML payload, got %v", sample.Value)
	}
}

func TestCollectTimings(t *testing.T) {
	const delay = 50 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())

	ttfb, err := c.CollectTTFB(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectTTFB() error = %v", err)
	}
	if ttfb.Value < float64(delay.Milliseconds()) {
		t.Errorf("expected TTFB >= %v ms, got %v", delay.Milliseconds(), ttfb.Value)
	}

	loadTime, err := c.CollectLoadTime(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectLoadTime() error = %v", err)
	}
	if loadTime.Value < ttfb.Value {
		t.Errorf("load time %v must not be below TTFB %v", loadTime.Value, ttfb.Value)
	}
}

func TestCollectSharedProbe(t *testing.T) {
	var requests int32
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())

	// Все четыре семейства одновременно, как в цикле анализа
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); _, _ = c.CollectPageSize(context.Background(), srv.URL) }()
	go func() { defer wg.Done(); _, _ = c.CollectLoadTime(context.Background(), srv.URL) }()
	go func() { defer wg.Done(); _, _ = c.CollectTTFB(context.Background(), srv.URL) }()
	go func() { defer wg.Done(); _, _ = c.CollectRequestCount(context.Background(), srv.URL) }()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Errorf("expected one shared request for a concurrent cycle, got %d", requests)
	}
}

func TestCollectErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewPageCollector(testConfig())
	if _, err := c.CollectPageSize(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCollectUnreachableHost(t *testing.T) {
	c := NewPageCollector(testConfig())
	if _, err := c.CollectLoadTime(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error for unreachable host")
	}
}

func TestCollectBodyLimit(t *testing.T) {
	big := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(big))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 1024

	c := NewPageCollector(cfg)
	sample, err := c.CollectPageSize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CollectPageSize() error = %v", err)
	}
	if sample.Value > 1024 {
		t.Errorf("expected body capped at 1024 bytes, got %v", sample.Value)
	}
}
