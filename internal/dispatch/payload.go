package dispatch

import (
	"fmt"
	"strings"

	"github.com/Tusharkanta407/HoneyPot/internal/extract"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

// Payload is the final-report body POSTed to the evaluation endpoint.
type Payload struct {
	SessionID              string       `json:"sessionId"`
	ScamDetected           bool         `json:"scamDetected"`
	TotalMessagesExchanged int          `json:"totalMessagesExchanged"`
	ExtractedIntelligence  Intelligence `json:"extractedIntelligence"`
	AgentNotes             string       `json:"agentNotes"`
}

// Intelligence carries the five extracted sets as ordered lists.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// BuildPayload snapshots a session into the report shape. Call it under
// the session's lock so the report reflects a consistent state.
func BuildPayload(s *session.Session) *Payload {
	in := s.Intelligence()
	return &Payload{
		SessionID:              s.ID,
		ScamDetected:           s.Detection().IsScam,
		TotalMessagesExchanged: s.TotalMessages(),
		ExtractedIntelligence: Intelligence{
			BankAccounts:       emptyNotNil(in.Values(extract.CategoryAccount)),
			UPIIDs:             emptyNotNil(in.Values(extract.CategoryUPI)),
			PhishingLinks:      emptyNotNil(in.Values(extract.CategoryURL)),
			PhoneNumbers:       emptyNotNil(in.Values(extract.CategoryPhone)),
			SuspiciousKeywords: emptyNotNil(in.Values(extract.CategoryKeyword)),
		},
		AgentNotes: buildAgentNotes(s),
	}
}

// emptyNotNil keeps empty categories as [] rather than null in JSON.
func emptyNotNil(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

// buildAgentNotes produces a short deterministic summary. No extra LLM
// call: the notes only restate what was already collected.
func buildAgentNotes(s *session.Session) string {
	scamType := s.Detection().ScamType
	if scamType == "" {
		scamType = "unknown"
	}
	in := s.Intelligence()

	parts := []string{fmt.Sprintf("Scam type: %s.", scamType)}
	if kws := in.Values(extract.CategoryKeyword); len(kws) > 0 {
		if len(kws) > 8 {
			kws = kws[:8]
		}
		parts = append(parts, fmt.Sprintf("Keywords: %s.", strings.Join(kws, ", ")))
	}
	appendCount := func(label string, cat extract.Category) {
		if n := len(in.Values(cat)); n > 0 {
			parts = append(parts, fmt.Sprintf("%s captured: %d.", label, n))
		}
	}
	appendCount("UPI IDs", extract.CategoryUPI)
	appendCount("Bank accounts", extract.CategoryAccount)
	appendCount("Phone numbers", extract.CategoryPhone)
	appendCount("Links", extract.CategoryURL)

	return strings.Join(parts, " ")
}
