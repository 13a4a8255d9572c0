package honeypot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tusharkanta407/HoneyPot/internal/detect"
	"github.com/Tusharkanta407/HoneyPot/internal/dispatch"
	"github.com/Tusharkanta407/HoneyPot/internal/extract"
	"github.com/Tusharkanta407/HoneyPot/internal/persona"
	"github.com/Tusharkanta407/HoneyPot/internal/policy"
	"github.com/Tusharkanta407/HoneyPot/internal/report"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

type callbackSink struct {
	mu       sync.Mutex
	calls    atomic.Int32
	payloads []dispatch.Payload
	status   atomic.Int32
}

func newCallbackSink(t *testing.T) (*callbackSink, *httptest.Server) {
	t.Helper()
	sink := &callbackSink{}
	sink.status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sink.calls.Add(1)
		var p dispatch.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			sink.mu.Lock()
			sink.payloads = append(sink.payloads, p)
			sink.mu.Unlock()
		}
		w.WriteHeader(int(sink.status.Load()))
	}))
	t.Cleanup(srv.Close)
	return sink, srv
}

func (c *callbackSink) delivered() []dispatch.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dispatch.Payload, len(c.payloads))
	copy(out, c.payloads)
	return out
}

func newTestEngine(t *testing.T, endpoint string) *Engine {
	t.Helper()
	reports, err := report.NewStore(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reports.Close() })

	return New(Config{
		Store:       session.NewStore(),
		Classifier:  detect.NewClassifier(nil, ""),
		Personas:    persona.NewLibraryStore(),
		Generator:   persona.NewGenerator(nil, ""),
		Extractor:   extract.MustNew(),
		Termination: policy.NewTermination(0),
		Dispatcher: dispatch.NewDispatcher(endpoint,
			dispatch.WithMaxAttempts(3),
			dispatch.WithInitialInterval(time.Millisecond)),
		Reports: reports,
	})
}

func TestFirstScamMessageEngagesWithoutReporting(t *testing.T) {
	sink, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)

	res, err := eng.HandleMessage(context.Background(), "sess-a", session.Turn{
		Sender: "scammer", Text: "Your bank account will be blocked today. Verify immediately.", Timestamp: 1,
	}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, res.Reply)
	assert.False(t, res.Duplicate)
	assert.False(t, res.Completed)
	assert.True(t, res.Detection.IsScam)
	assert.Equal(t, "phishing", res.Detection.ScamType)

	eng.Wait()
	assert.Equal(t, int32(0), sink.calls.Load(), "keywords alone must not trigger the callback")

	snap, ok := eng.Snapshot("sess-a")
	require.True(t, ok)
	assert.False(t, snap.Completed)
	assert.NotEmpty(t, snap.PersonaID)
	assert.Equal(t, 1, snap.TotalMessages, "replies do not count as exchanged messages")
	assert.Contains(t, snap.Intelligence["keyword"], "blocked")
}

func TestUPIExtractionTriggersExactlyOneCallback(t *testing.T) {
	sink, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "sess-b", session.Turn{
		Sender: "scammer", Text: "Your bank account will be blocked today. Verify immediately.", Timestamp: 1,
	}, nil)
	require.NoError(t, err)

	res, err := eng.HandleMessage(ctx, "sess-b", session.Turn{
		Sender: "scammer", Text: "Send the fee to scammer@upi right now.", Timestamp: 2,
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed)

	eng.Wait()
	require.Equal(t, int32(1), sink.calls.Load())

	got := sink.delivered()[0]
	assert.Equal(t, "sess-b", got.SessionID)
	assert.True(t, got.ScamDetected)
	assert.Equal(t, 2, got.TotalMessagesExchanged)
	assert.Contains(t, got.ExtractedIntelligence.UPIIDs, "scammer@upi")
	assert.NotEmpty(t, got.AgentNotes)

	// Archived alongside delivery.
	recs, err := eng.reports.List(ctx, "sess-b", false, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Delivered)
}

func TestBenignConversationNeverReports(t *testing.T) {
	sink, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	var completed bool
	for i := 0; i < 20; i++ {
		res, err := eng.HandleMessage(ctx, "sess-c", session.Turn{
			Sender: "friend", Text: fmt.Sprintf("Lunch at noon on day %d?", i), Timestamp: int64(i + 1),
		}, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Reply)
		completed = completed || res.Completed
	}

	eng.Wait()
	// The message cap ends the session eventually, but a session that was
	// never classified as a scam produces no report.
	assert.True(t, completed)
	assert.Equal(t, int32(0), sink.calls.Load())

	snap, ok := eng.Snapshot("sess-c")
	require.True(t, ok)
	assert.Equal(t, 20, snap.TotalMessages)
}

func TestDuplicateRequestDoesNotDoubleCount(t *testing.T) {
	sink, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	turn := session.Turn{
		Sender: "scammer", Text: "Account suspended, verify at http://fake-bank.tk or pay scammer@upi", Timestamp: 9,
	}
	first, err := eng.HandleMessage(ctx, "sess-d", turn, nil)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	retry, err := eng.HandleMessage(ctx, "sess-d", turn, nil)
	require.NoError(t, err)
	assert.True(t, retry.Duplicate)
	assert.NotEmpty(t, retry.Reply)

	eng.Wait()
	assert.Equal(t, int32(1), sink.calls.Load())

	got := sink.delivered()[0]
	assert.Equal(t, []string{"scammer@upi"}, got.ExtractedIntelligence.UPIIDs)
	assert.Equal(t, 1, got.TotalMessagesExchanged)
}

func TestFailedCallbackIsNeverRetriedLater(t *testing.T) {
	sink, srv := newCallbackSink(t)
	sink.status.Store(http.StatusServiceUnavailable)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	res, err := eng.HandleMessage(ctx, "sess-e", session.Turn{
		Sender: "scammer", Text: "Account suspended! Verify now and send OTP to scammer@upi", Timestamp: 1,
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed)

	eng.Wait()
	attempts := sink.calls.Load()
	require.Equal(t, int32(3), attempts)

	recs, err := eng.reports.List(ctx, "sess-e", false, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Delivered)
	assert.Equal(t, 3, recs[0].Attempts)

	// A later message on the completed session never re-opens dispatch.
	later, err := eng.HandleMessage(ctx, "sess-e", session.Turn{
		Sender: "scammer", Text: "Hello? Are you still there?", Timestamp: 2,
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, later.Reply)
	assert.False(t, later.Completed)

	eng.Wait()
	assert.Equal(t, attempts, sink.calls.Load())
}

func TestConcurrentMessagesProduceOneCallback(t *testing.T) {
	sink, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.HandleMessage(ctx, "sess-f", session.Turn{
				Sender:    "scammer",
				Text:      fmt.Sprintf("Account blocked! Verify immediately, pay scammer@upi (msg %d)", i),
				Timestamp: int64(i + 1),
			}, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	eng.Wait()

	assert.Equal(t, int32(1), sink.calls.Load())
}

func TestHistoryReplayIsIdempotent(t *testing.T) {
	_, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	history := []session.Turn{
		{Sender: "scammer", Text: "Hello dear", Timestamp: 1},
		{Sender: "victim", Text: "Who is this?", Timestamp: 2},
	}
	_, err := eng.HandleMessage(ctx, "sess-g", session.Turn{
		Sender: "scammer", Text: "I am from your bank", Timestamp: 3,
	}, history)
	require.NoError(t, err)

	// The same history arrives with every request; it must not re-count.
	_, err = eng.HandleMessage(ctx, "sess-g", session.Turn{
		Sender: "scammer", Text: "Please cooperate", Timestamp: 4,
	}, history)
	require.NoError(t, err)

	snap, ok := eng.Snapshot("sess-g")
	require.True(t, ok)
	// Only the two directly processed inbound messages count; replayed
	// history and the honeypot's replies are context, not exchanges.
	assert.Equal(t, 2, snap.TotalMessages)
}

func TestPersonaStaysLockedAcrossTurns(t *testing.T) {
	_, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "sess-i", session.Turn{
		Sender: "scammer", Text: "Your bank account will be blocked today. Verify immediately.", Timestamp: 1,
	}, nil)
	require.NoError(t, err)

	snap, ok := eng.Snapshot("sess-i")
	require.True(t, ok)
	locked := snap.PersonaID
	require.NotEmpty(t, locked)

	// Later turns of a different flavour must not shift the identity.
	for i, text := range []string{
		"Congratulations, you won a lottery prize!",
		"Just checking in, how is the weather?",
	} {
		_, err := eng.HandleMessage(ctx, "sess-i", session.Turn{
			Sender: "scammer", Text: text, Timestamp: int64(i + 2),
		}, nil)
		require.NoError(t, err)

		snap, ok = eng.Snapshot("sess-i")
		require.True(t, ok)
		assert.Equal(t, locked, snap.PersonaID)
	}
}

// countingClassifier wraps the rule classifier and counts invocations.
type countingClassifier struct {
	inner detect.Classifier
	calls atomic.Int32
}

func (c *countingClassifier) Classify(ctx context.Context, text string, history []session.Turn) (session.Detection, error) {
	c.calls.Add(1)
	return c.inner.Classify(ctx, text, history)
}

func TestScamVerdictStopsFurtherClassification(t *testing.T) {
	_, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)
	spy := &countingClassifier{inner: detect.NewClassifier(nil, "")}
	eng.classifier = spy
	ctx := context.Background()

	// Benign turns are re-classified each time, so a conversation that
	// opens innocently can still be caught later.
	_, err := eng.HandleMessage(ctx, "sess-j", session.Turn{
		Sender: "scammer", Text: "Hello, how are you today?", Timestamp: 1,
	}, nil)
	require.NoError(t, err)
	_, err = eng.HandleMessage(ctx, "sess-j", session.Turn{
		Sender: "scammer", Text: "Your account is suspended. Verify immediately to avoid blocking.", Timestamp: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), spy.calls.Load())

	snap, ok := eng.Snapshot("sess-j")
	require.True(t, ok)
	require.True(t, snap.Detection.IsScam)

	// Once the verdict latches, the classifier is never consulted again.
	_, err = eng.HandleMessage(ctx, "sess-j", session.Turn{
		Sender: "scammer", Text: "Are you still there?", Timestamp: 3,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), spy.calls.Load())
}

func TestInvalidMessageRejected(t *testing.T) {
	_, srv := newCallbackSink(t)
	eng := newTestEngine(t, srv.URL)

	_, err := eng.HandleMessage(context.Background(), "", session.Turn{Text: "hi"}, nil)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = eng.HandleMessage(context.Background(), "sess-h", session.Turn{}, nil)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
