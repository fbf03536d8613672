package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRedactsEmailLikeSubstrings(t *testing.T) {
	e := New()
	event := e.Emit(EventBranchChoiceMade, "session-1", map[string]any{
		"note": "contact player at scout@example.com for feedback",
	})
	assert.Equal(t, "contact player at REDACTED for feedback", event.EventData["note"])
}

func TestEmitAssignsIDAndTimestamp(t *testing.T) {
	fixed := time.Unix(42, 0)
	e := New(WithClock(func() time.Time { return fixed }))
	event := e.Emit(EventDirectorDecision, "s", nil)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, fixed, event.Timestamp)
}

func TestBufferBoundedAtCapacityPerTopic(t *testing.T) {
	e := New(WithBufferSize(3))
	for i := 0; i < 10; i++ {
		e.Emit(EventPlacementOutcome, "s", map[string]any{"i": i})
	}
	buf := e.Buffer(EventPlacementOutcome)
	require.Len(t, buf, 3)
	assert.Equal(t, 9, buf[2].EventData["i"])
}

type failingBackend struct{ name string }

func (f *failingBackend) Name() string             { return f.name }
func (f *failingBackend) Dispatch(Event) error { return errors.New("backend down") }

func TestFailingBackendDoesNotAffectOthers(t *testing.T) {
	e := New()
	var gotEvent bool
	okBackend := backendFunc{name: "ok", fn: func(Event) error { gotEvent = true; return nil }}

	e.AddBackend(&failingBackend{name: "broken"})
	e.AddBackend(okBackend)

	e.Emit(EventBranchProposalGenerated, "s", nil)
	assert.True(t, gotEvent)
}

func TestRemoveBackendStopsDispatch(t *testing.T) {
	e := New()
	calls := 0
	b := backendFunc{name: "counter", fn: func(Event) error { calls++; return nil }}
	e.AddBackend(b)
	e.Emit(EventBranchExecutionOutcome, "s", nil)
	e.RemoveBackend("counter")
	e.Emit(EventBranchExecutionOutcome, "s", nil)
	assert.Equal(t, 1, calls)
}

func TestPrometheusBackendExportsCounts(t *testing.T) {
	p := NewPrometheusBackend()
	require.NoError(t, p.Dispatch(Event{EventType: EventDirectorDecision}))
	require.NoError(t, p.Dispatch(Event{EventType: EventDirectorDecision}))

	out := p.Export()
	assert.Contains(t, out, `event_type="director_decision"} 2`)
}

func TestHTTPBackendPostsJSONEvent(t *testing.T) {
	var receivedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		receivedBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL, nil)
	err := backend.Dispatch(Event{EventID: "abc", EventType: EventBranchChoicePresented})
	require.NoError(t, err)
	assert.Contains(t, receivedBody, "abc")
}

// backendFunc adapts a plain function to the Backend interface for tests.
type backendFunc struct {
	name string
	fn   func(Event) error
}

func (b backendFunc) Name() string            { return b.name }
func (b backendFunc) Dispatch(e Event) error { return b.fn(e) }
