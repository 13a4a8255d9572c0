package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tusharkanta407/HoneyPot/internal/extract"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

func reportableSession(t *testing.T) *session.Session {
	t.Helper()
	st := session.NewStore()
	st.WithLock("sess-1", func(s *session.Session) {
		s.RecordTurn(session.Turn{Sender: "scammer", Text: "Your account will be blocked", Timestamp: 1})
		s.RecordTurn(session.Turn{Sender: "scammer", Text: "Share your UPI ID: scammer@upi", Timestamp: 2})
		s.SetDetection(session.Detection{Evaluated: true, IsScam: true, ScamType: "upi_fraud", Confidence: 0.9})
		s.Intelligence().Merge(&extract.Result{
			UPIIDs:   []string{"scammer@upi"},
			Keywords: []string{"blocked", "upi id"},
		})
	})
	s, _ := st.Get("sess-1")
	return s
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload(reportableSession(t))

	assert.Equal(t, "sess-1", p.SessionID)
	assert.True(t, p.ScamDetected)
	assert.Equal(t, 2, p.TotalMessagesExchanged)
	assert.Equal(t, []string{"scammer@upi"}, p.ExtractedIntelligence.UPIIDs)
	assert.Equal(t, []string{"blocked", "upi id"}, p.ExtractedIntelligence.SuspiciousKeywords)
	assert.Equal(t, []string{}, p.ExtractedIntelligence.BankAccounts)
	assert.Contains(t, p.AgentNotes, "Scam type: upi_fraud.")
	assert.Contains(t, p.AgentNotes, "UPI IDs captured: 1.")

	// Empty categories serialize as [] not null.
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bankAccounts":[]`)
	assert.Contains(t, string(raw), `"phishingLinks":[]`)
}

func TestDispatchDeliversOnce(t *testing.T) {
	var calls atomic.Int32
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	out := d.Dispatch(context.Background(), BuildPayload(reportableSession(t)))

	assert.True(t, out.Delivered)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "sess-1", got.SessionID)
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, WithInitialInterval(time.Millisecond))
	out := d.Dispatch(context.Background(), BuildPayload(reportableSession(t)))

	assert.True(t, out.Delivered)
	assert.Equal(t, 3, out.Attempts)
}

func TestDispatchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, WithMaxAttempts(3), WithInitialInterval(time.Millisecond))
	out := d.Dispatch(context.Background(), BuildPayload(reportableSession(t)))

	assert.False(t, out.Delivered)
	assert.Error(t, out.Err)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, http.StatusServiceUnavailable, out.StatusCode)
}

func TestDispatchUnreachableEndpoint(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1", WithMaxAttempts(2), WithInitialInterval(time.Millisecond))
	out := d.Dispatch(context.Background(), BuildPayload(reportableSession(t)))

	assert.False(t, out.Delivered)
	assert.Error(t, out.Err)
	assert.Equal(t, 2, out.Attempts)
}
