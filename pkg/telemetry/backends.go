package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// PrometheusBackend exposes a running count of each event type in
// Prometheus text exposition format, adapted from the teacher's
// atomic-counter exporter.
type PrometheusBackend struct {
	mu       sync.Mutex
	counters map[string]*int64
}

// NewPrometheusBackend constructs an empty PrometheusBackend.
func NewPrometheusBackend() *PrometheusBackend {
	return &PrometheusBackend{counters: make(map[string]*int64)}
}

func (p *PrometheusBackend) Name() string { return "prometheus" }

// Dispatch increments the counter for event.EventType.
func (p *PrometheusBackend) Dispatch(event Event) error {
	p.mu.Lock()
	counter, ok := p.counters[event.EventType]
	if !ok {
		var n int64
		counter = &n
		p.counters[event.EventType] = counter
	}
	p.mu.Unlock()

	atomic.AddInt64(counter, 1)
	return nil
}

// Export renders all counters in Prometheus text exposition format.
func (p *PrometheusBackend) Export() string {
	p.mu.Lock()
	names := make([]string, 0, len(p.counters))
	for name := range p.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString("# HELP director_telemetry_events_total Count of telemetry events by type.\n")
	buf.WriteString("# TYPE director_telemetry_events_total counter\n")
	for _, name := range names {
		count := atomic.LoadInt64(p.counters[name])
		fmt.Fprintf(&buf, "director_telemetry_events_total{event_type=%q} %d\n", name, count)
	}
	p.mu.Unlock()

	return buf.String()
}

// HTTPBackend posts each redacted event as JSON to a configured URL
// (telemetry.backendUrl).
type HTTPBackend struct {
	url    string
	client *http.Client
}

// NewHTTPBackend constructs an HTTPBackend posting to url.
func NewHTTPBackend(url string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{url: url, client: client}
}

func (h *HTTPBackend) Name() string { return "http:" + h.url }

// Dispatch POSTs event as JSON. A non-2xx response is reported as an error
// but, per the Emitter's contract, never reaches the original Emit caller.
func (h *HTTPBackend) Dispatch(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("telemetry: marshal event: %w", err)
	}

	resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telemetry: post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry: backend returned status %d", resp.StatusCode)
	}
	return nil
}
