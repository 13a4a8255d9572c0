package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tusharkanta407/HoneyPot/internal/llm"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

// defaultModel is used when configuration does not name one.
const defaultModel = "gpt-4o-mini"

// Generator produces in-character replies for a locked persona. With no
// provider it degrades to the persona's canned fallback lines, so reply
// generation never fails the conversational request.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a reply generator. provider may be nil.
func NewGenerator(provider llm.Provider, model string) *Generator {
	if model == "" {
		model = defaultModel
	}
	return &Generator{provider: provider, model: model}
}

// Reply generates the outbound reply for the inbound text given the
// conversation so far. The reply never reveals that the counterparty has
// been classified; it only ever speaks as the persona.
func (g *Generator) Reply(ctx context.Context, p Persona, turns []session.Turn, inbound string) (string, error) {
	if g.provider == nil {
		return g.Fallback(p, len(turns)), nil
	}

	resp, err := g.provider.Generate(ctx, &llm.Request{
		Model: g.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt(p)},
			{Role: "user", Content: userPrompt(turns, inbound)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("generating persona reply: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", llm.ErrEmptyContent
	}
	return reply, nil
}

// Fallback returns a canned in-character line, rotating by turn count so
// repeated failures don't produce identical replies.
func (g *Generator) Fallback(p Persona, turn int) string {
	if len(p.FallbackLines) == 0 {
		return "Sorry, I was away from my phone. What was that again?"
	}
	return p.FallbackLines[turn%len(p.FallbackLines)]
}

func systemPrompt(p Persona) string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\nYOUR GOAL: ")
	b.WriteString(p.Goal)
	b.WriteString("\n\nSTYLE GUIDE:\n")
	b.WriteString(p.StyleGuide)
	b.WriteString("\n\nCURRENT SCENARIO:\nYou are in a chat. You suspect or know the other person is a scammer (or a stranger).\nAct your role perfectly.\nNEVER break character.\n")
	return b.String()
}

func userPrompt(turns []session.Turn, inbound string) string {
	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	for _, t := range turns {
		b.WriteString(t.Sender)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nNEW MESSAGE:\n")
	b.WriteString(inbound)
	b.WriteString("\n\nReply:")
	return b.String()
}
