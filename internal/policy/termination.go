// Package policy decides when a honeypot engagement has run its course.
package policy

import "github.com/Tusharkanta407/HoneyPot/internal/session"

// DefaultMaxMessages caps engagement length so an unresponsive or looping
// counterparty cannot hold a session open forever.
const DefaultMaxMessages = 18

// Termination is a pure decision function over session state.
type Termination struct {
	// MaxMessages is the inbound-message cap; <=0 selects the default.
	MaxMessages int
}

// NewTermination builds a termination policy with the given message cap.
func NewTermination(maxMessages int) *Termination {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Termination{MaxMessages: maxMessages}
}

// ShouldTerminate reports whether the session is done. A session
// terminates when the message cap is reached, or when it is a confirmed
// scam and at least one actionable identifier (UPI ID, account, phone, or
// URL) has been captured. Keyword matches alone indicate tactic, not
// actionable intelligence, and never terminate on their own. A session
// never classified as scam runs until the cap and never reports.
func (t *Termination) ShouldTerminate(s *session.Session) bool {
	if s.TotalMessages() >= t.MaxMessages {
		return true
	}
	d := s.Detection()
	if !d.Evaluated || !d.IsScam {
		return false
	}
	return s.Intelligence().ActionableCount() > 0
}

// ShouldReport reports whether a terminated session warrants the final
// callback. Benign conversations are never reported.
func (t *Termination) ShouldReport(s *session.Session) bool {
	d := s.Detection()
	return d.Evaluated && d.IsScam
}
