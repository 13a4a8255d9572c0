// Package session holds per-conversation honeypot state: the turn log,
// scam detection verdict, locked persona, accumulated intelligence, and
// the one-way completion latch. Invariants (monotone sets, latches,
// turn dedup) are enforced at the mutation boundary, not by convention.
package session

import (
	"sort"
	"strconv"
	"time"

	"github.com/Tusharkanta407/HoneyPot/internal/extract"
)

// recentTurnWindow is how many recorded turns are checked when
// deduplicating a retried inbound message by content fingerprint.
const recentTurnWindow = 8

// Turn is one message in the conversation, as received.
type Turn struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// fingerprint is the best-effort idempotency key for a turn. No explicit
// request ID is guaranteed by the transport, so sender+text+timestamp is
// used to absorb transport-level retries.
func (t Turn) fingerprint() string {
	return t.Sender + "\x1f" + t.Text + "\x1f" + strconv.FormatInt(t.Timestamp, 10)
}

// Detection is the classifier verdict for a session. Evaluated
// distinguishes "classified as non-scam" from "not yet classified".
type Detection struct {
	Evaluated  bool    `json:"evaluated"`
	IsScam     bool    `json:"isScam"`
	ScamType   string  `json:"scamType,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Session is the full state of one conversation. All mutation must happen
// under the owning store's per-session lock (Store.WithLock); the methods
// here enforce the state-machine invariants but not mutual exclusion.
type Session struct {
	ID        string
	CreatedAt time.Time

	turns        []Turn
	totalMsgs    int
	detection    Detection
	personaID    string
	intelligence *Intelligence
	completed    bool
	completedAt  time.Time
}

// newSession creates a fresh session for the given id.
func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		intelligence: NewIntelligence(),
	}
}

// RecordTurn appends an inbound turn and bumps the message counter,
// unless an identical turn (same sender, text, and timestamp) was
// recorded within the recent window: duplicated transport retries must
// not double-count. Returns true when the turn was actually recorded.
func (s *Session) RecordTurn(t Turn) bool {
	return s.record(t, true)
}

// RecordContext appends a turn to the log without touching the message
// counter. Replayed history and the honeypot's own replies go through
// here; the counter tracks inbound messages processed, not everything
// said in the conversation. Deduplicated the same way as RecordTurn.
func (s *Session) RecordContext(t Turn) bool {
	return s.record(t, false)
}

func (s *Session) record(t Turn, counted bool) bool {
	fp := t.fingerprint()
	start := len(s.turns) - recentTurnWindow
	if start < 0 {
		start = 0
	}
	for _, prev := range s.turns[start:] {
		if prev.fingerprint() == fp {
			return false
		}
	}
	s.turns = append(s.turns, t)
	if counted {
		s.totalMsgs++
	}
	return true
}

// Turns returns a copy of the turn log.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// TotalMessages returns the count of distinct inbound turns processed.
func (s *Session) TotalMessages() int { return s.totalMsgs }

// Detection returns the current classifier verdict.
func (s *Session) Detection() Detection { return s.detection }

// SetDetection stores a classifier verdict. A scam verdict is a latch:
// once IsScam is true it is never downgraded or re-evaluated. A completed
// session accepts no detection changes at all. Unevaluated input is
// ignored so a failed classification never clobbers state.
func (s *Session) SetDetection(d Detection) {
	if s.completed || !d.Evaluated {
		return
	}
	if s.detection.Evaluated && s.detection.IsScam {
		return
	}
	s.detection = d
}

// PersonaID returns the locked persona, or "" when none is assigned.
func (s *Session) PersonaID() string { return s.personaID }

// LockPersona assigns the persona if none is set and returns the persona
// the session is locked to. Reassignment is a no-op so every later read
// observes the same identity.
func (s *Session) LockPersona(id string) string {
	if s.completed {
		return s.personaID
	}
	if s.personaID == "" {
		s.personaID = id
	}
	return s.personaID
}

// Intelligence returns the session's accumulated intelligence sets.
func (s *Session) Intelligence() *Intelligence { return s.intelligence }

// Completed reports whether the final report latch has fired.
func (s *Session) Completed() bool { return s.completed }

// CompletedAt returns when the latch fired (zero when not completed).
func (s *Session) CompletedAt() time.Time { return s.completedAt }

// Complete flips the one-way completion latch. Exactly one caller observes
// the false→true transition and must perform the final dispatch; all
// others get false and must do nothing.
func (s *Session) Complete(now time.Time) bool {
	if s.completed {
		return false
	}
	s.completed = true
	s.completedAt = now
	return true
}

// Intelligence accumulates extracted identifiers across turns as five
// monotone-union sets keyed by normalized value. Sets only grow; merging
// the same value twice is a no-op and the first-seen spelling is kept.
type Intelligence struct {
	sets map[extract.Category]map[string]string
}

// NewIntelligence returns empty intelligence sets.
func NewIntelligence() *Intelligence {
	sets := make(map[extract.Category]map[string]string, 5)
	for _, cat := range []extract.Category{
		extract.CategoryUPI, extract.CategoryAccount, extract.CategoryPhone,
		extract.CategoryURL, extract.CategoryKeyword,
	} {
		sets[cat] = make(map[string]string)
	}
	return &Intelligence{sets: sets}
}

// Merge unions an extraction result into the sets.
func (in *Intelligence) Merge(r *extract.Result) {
	if r == nil {
		return
	}
	in.add(extract.CategoryUPI, r.UPIIDs)
	in.add(extract.CategoryAccount, r.Accounts)
	in.add(extract.CategoryPhone, r.Phones)
	in.add(extract.CategoryURL, r.URLs)
	in.add(extract.CategoryKeyword, r.Keywords)
}

func (in *Intelligence) add(cat extract.Category, values []string) {
	for _, v := range values {
		key := extract.Normalize(cat, v)
		if key == "" {
			continue
		}
		if _, ok := in.sets[cat][key]; !ok {
			in.sets[cat][key] = v
		}
	}
}

// Values returns the sorted members of one category.
func (in *Intelligence) Values(cat extract.Category) []string {
	out := make([]string, 0, len(in.sets[cat]))
	for _, v := range in.sets[cat] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ActionableCount is the number of entries across the four identifier
// categories. Keyword matches indicate tactic, not actionable
// intelligence, so they are excluded.
func (in *Intelligence) ActionableCount() int {
	return len(in.sets[extract.CategoryUPI]) +
		len(in.sets[extract.CategoryAccount]) +
		len(in.sets[extract.CategoryPhone]) +
		len(in.sets[extract.CategoryURL])
}

// Total is the number of entries across all five categories.
func (in *Intelligence) Total() int {
	return in.ActionableCount() + len(in.sets[extract.CategoryKeyword])
}
