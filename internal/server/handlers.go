package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Tusharkanta407/HoneyPot/internal/honeypot"
	hpotel "github.com/Tusharkanta407/HoneyPot/internal/otel"
	"github.com/Tusharkanta407/HoneyPot/internal/requestctx"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		components := map[string]string{
			"engine": "ok",
		}
		if s.reportStore == nil {
			components["report_archive"] = "disabled"
		} else {
			components["report_archive"] = "ok"
		}
		resp["components"] = components
		resp["active_sessions"] = len(s.engine.SessionIDs())
	}
	writeJSON(w, http.StatusOK, resp)
}

type messageBody struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type honeypotRequest struct {
	SessionID           string            `json:"sessionId"`
	Message             messageBody       `json:"message"`
	ConversationHistory []messageBody     `json:"conversationHistory"`
	Metadata            map[string]string `json:"metadata"`
}

type honeypotResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req honeypotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}

	history := make([]session.Turn, len(req.ConversationHistory))
	for i, m := range req.ConversationHistory {
		history[i] = session.Turn{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp}
	}
	msg := session.Turn{
		Sender:    req.Message.Sender,
		Text:      req.Message.Text,
		Timestamp: req.Message.Timestamp,
	}

	res, err := s.engine.HandleMessage(r.Context(), req.SessionID, msg, history)
	if err != nil {
		if errors.Is(err, honeypot.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	log.Info().
		Str("session_id", req.SessionID).
		Str("caller", requestctx.CallerID(r.Context())).
		Bool("duplicate", res.Duplicate).
		Bool("completed", res.Completed).
		Bool("is_scam", res.Detection.IsScam).
		Func(hpotel.LogTraceFields(r.Context())).
		Msg("message_handled")

	writeJSON(w, http.StatusOK, honeypotResponse{Status: "success", Reply: res.Reply})
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": s.engine.SessionIDs(),
	})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := s.engine.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	if s.reportStore == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "report archive is disabled")
		return
	}

	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	deliveredOnly := q.Get("delivered") == "true"

	recs, err := s.reportStore.List(r.Context(), q.Get("session_id"), deliveredOnly, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": recs,
		"count":   len(recs),
	})
}

func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	if s.reportStore == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "report archive is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.reportStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
