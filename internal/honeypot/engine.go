// Package honeypot orchestrates a conversation turn end to end: record
// the inbound message, harvest intelligence, classify, pick and hold a
// persona, generate the decoy reply, and decide whether the session is
// done. When a session crosses the finish line for the first time the
// engine builds the final report under the session lock and hands it to
// the dispatcher exactly once.
package honeypot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tusharkanta407/HoneyPot/internal/detect"
	"github.com/Tusharkanta407/HoneyPot/internal/dispatch"
	"github.com/Tusharkanta407/HoneyPot/internal/extract"
	hpotel "github.com/Tusharkanta407/HoneyPot/internal/otel"
	"github.com/Tusharkanta407/HoneyPot/internal/persona"
	"github.com/Tusharkanta407/HoneyPot/internal/policy"
	"github.com/Tusharkanta407/HoneyPot/internal/report"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

var tracer = hpotel.Tracer("github.com/Tusharkanta407/HoneyPot/internal/honeypot")

// ErrInvalidMessage rejects requests without a session id or text.
var ErrInvalidMessage = errors.New("session id and message text are required")

// ReplySender is the sender tag recorded for outbound decoy turns.
const ReplySender = "honeypot"

// Engine wires the per-turn pipeline together.
type Engine struct {
	store       *session.Store
	classifier  detect.Classifier
	personas    persona.Store
	generator   *persona.Generator
	extractor   *extract.Extractor
	termination *policy.Termination
	dispatcher  *dispatch.Dispatcher
	reports     *report.Store

	now func() time.Time
	wg  sync.WaitGroup
}

// Config carries the engine's collaborators. Reports may be nil when no
// archive is configured; everything else is required.
type Config struct {
	Store       *session.Store
	Classifier  detect.Classifier
	Personas    persona.Store
	Generator   *persona.Generator
	Extractor   *extract.Extractor
	Termination *policy.Termination
	Dispatcher  *dispatch.Dispatcher
	Reports     *report.Store
}

// New creates an engine from its collaborators.
func New(cfg Config) *Engine {
	return &Engine{
		store:       cfg.Store,
		classifier:  cfg.Classifier,
		personas:    cfg.Personas,
		generator:   cfg.Generator,
		extractor:   cfg.Extractor,
		termination: cfg.Termination,
		dispatcher:  cfg.Dispatcher,
		reports:     cfg.Reports,
		now:         time.Now,
	}
}

// Result is what one processed turn produces.
type Result struct {
	Reply     string
	Duplicate bool
	Completed bool
	Detection session.Detection
}

// HandleMessage processes one inbound message for a session.
//
// State mutation happens under the session lock in two short critical
// sections; the classifier and reply generator run between them so a slow
// LLM call never blocks the store. Detection latching and the completion
// latch make the interleaving safe when the same session is hit
// concurrently: verdicts only upgrade, and only one caller ever observes
// the completion flip.
func (e *Engine) HandleMessage(ctx context.Context, sessionID string, msg session.Turn, history []session.Turn) (Result, error) {
	if sessionID == "" || msg.Text == "" {
		return Result{}, ErrInvalidMessage
	}

	ctx, span := tracer.Start(ctx, "honeypot.handle_message",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	// Phase 1: record and harvest under the lock, then snapshot.
	var (
		recorded  bool
		turns     []session.Turn
		det       session.Detection
		personaID string
	)
	e.store.WithLock(sessionID, func(s *session.Session) {
		for _, h := range history {
			s.RecordContext(h)
		}
		recorded = s.RecordTurn(msg)
		if recorded {
			s.Intelligence().Merge(e.extractor.Extract(msg.Text))
		}
		turns = s.Turns()
		det = s.Detection()
		personaID = s.PersonaID()
	})

	// Phase 2: classify and generate without holding the lock.
	//
	// A still-benign session is re-classified on every turn so a
	// conversation that opens innocently can still be caught when the
	// pitch arrives. That costs one classifier call per benign turn; a
	// latched scam verdict stops the calls for the rest of the session.
	if !det.IsScam {
		verdict, err := e.classifier.Classify(ctx, msg.Text, turns)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).
				Func(hpotel.LogTraceFields(ctx)).
				Msg("classification_failed")
		} else {
			det = verdict
		}
	}

	p := e.resolvePersona(personaID, det)
	reply, err := e.generator.Reply(ctx, p, turns, msg.Text)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).
			Str("persona", p.ID).
			Func(hpotel.LogTraceFields(ctx)).
			Msg("reply_generation_failed")
		reply = e.generator.Fallback(p, len(turns))
	}

	// Phase 3: commit, evaluate termination, flip at most once.
	res := Result{Reply: reply, Duplicate: !recorded}
	var payload *dispatch.Payload
	e.store.WithLock(sessionID, func(s *session.Session) {
		s.SetDetection(det)
		s.LockPersona(p.ID)
		if recorded {
			s.RecordContext(session.Turn{
				Sender:    ReplySender,
				Text:      reply,
				Timestamp: e.now().Unix(),
			})
		}
		res.Detection = s.Detection()
		if e.termination.ShouldTerminate(s) && s.Complete(e.now()) {
			res.Completed = true
			if e.termination.ShouldReport(s) {
				payload = dispatch.BuildPayload(s)
			}
		}
	})

	if payload != nil {
		e.deliver(ctx, payload)
	}

	span.SetAttributes(
		attribute.Bool("honeypot.duplicate", res.Duplicate),
		attribute.Bool("honeypot.completed", res.Completed),
		attribute.Bool("detect.is_scam", res.Detection.IsScam),
	)
	return res, nil
}

// resolvePersona honours an already-locked persona and otherwise picks
// the best fit for the current verdict.
func (e *Engine) resolvePersona(lockedID string, det session.Detection) persona.Persona {
	if lockedID != "" {
		if p, ok := e.personas.FindByID(lockedID); ok {
			return p
		}
	}
	scamType := det.ScamType
	if !det.IsScam {
		scamType = ""
	}
	return e.personas.BestFor(scamType)
}

// deliver runs the callback off the request path. Delivery failure is
// terminal for the session: the completion latch has already flipped, so
// the report is archived with its outcome and never re-sent.
func (e *Engine) deliver(ctx context.Context, p *dispatch.Payload) {
	// Detach from the request context so a client disconnect cannot
	// cancel the callback mid-flight.
	dctx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		out := e.dispatcher.Dispatch(dctx, p)
		if e.reports == nil {
			return
		}
		rec := report.NewRecord(p, out, e.now())
		if err := e.reports.Save(dctx, rec); err != nil {
			log.Error().Err(err).Str("session_id", p.SessionID).
				Msg("report_archive_failed")
		}
	}()
}

// Wait blocks until all in-flight callback deliveries finish. Used on
// shutdown and in tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Snapshot is a read-only view of one session for the inspection API.
type Snapshot struct {
	SessionID     string              `json:"sessionId"`
	CreatedAt     time.Time           `json:"createdAt"`
	TotalMessages int                 `json:"totalMessages"`
	PersonaID     string              `json:"personaId,omitempty"`
	Detection     session.Detection   `json:"detection"`
	Completed     bool                `json:"completed"`
	CompletedAt   *time.Time          `json:"completedAt,omitempty"`
	Intelligence  map[string][]string `json:"intelligence"`
}

// Snapshot returns the current state of a session, or false when the
// session does not exist.
func (e *Engine) Snapshot(sessionID string) (Snapshot, bool) {
	if _, ok := e.store.Get(sessionID); !ok {
		return Snapshot{}, false
	}
	var snap Snapshot
	e.store.WithLock(sessionID, func(s *session.Session) {
		snap = Snapshot{
			SessionID:     s.ID,
			CreatedAt:     s.CreatedAt,
			TotalMessages: s.TotalMessages(),
			PersonaID:     s.PersonaID(),
			Detection:     s.Detection(),
			Completed:     s.Completed(),
			Intelligence:  intelligenceMap(s.Intelligence()),
		}
		if s.Completed() {
			at := s.CompletedAt()
			snap.CompletedAt = &at
		}
	})
	return snap, true
}

// SessionIDs lists known sessions.
func (e *Engine) SessionIDs() []string {
	return e.store.IDs()
}

func intelligenceMap(in *session.Intelligence) map[string][]string {
	out := make(map[string][]string, 5)
	for _, cat := range []extract.Category{
		extract.CategoryAccount,
		extract.CategoryUPI,
		extract.CategoryURL,
		extract.CategoryPhone,
		extract.CategoryKeyword,
	} {
		out[string(cat)] = in.Values(cat)
	}
	return out
}
