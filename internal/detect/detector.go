// Package detect classifies inbound messages as scam or benign. With an
// LLM provider configured it performs semantic classification and treats
// provider failure as "unknown, keep engaging"; without one it falls back
// to fast rule-based indicator scoring so the honeypot still functions
// with zero external dependencies.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Tusharkanta407/HoneyPot/internal/llm"
	hpotel "github.com/Tusharkanta407/HoneyPot/internal/otel"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

var tracer = hpotel.Tracer("github.com/Tusharkanta407/HoneyPot/internal/detect")

// Classifier decides whether a message is a scam attempt.
type Classifier interface {
	// Classify returns a verdict for the inbound text given prior turns.
	// An error means the verdict is unknown and session state must not
	// change; it never means "not a scam".
	Classify(ctx context.Context, text string, history []session.Turn) (session.Detection, error)
}

// NewClassifier returns the LLM-backed classifier when a provider is
// configured, otherwise the rule-based one.
func NewClassifier(provider llm.Provider, model string) Classifier {
	if provider == nil {
		return &RuleClassifier{}
	}
	return &LLMClassifier{provider: provider, model: model}
}

// RuleClassifier scores messages against per-scam-type keyword and regex
// indicator sets. Pure and infallible.
type RuleClassifier struct{}

// Classify runs rule-based indicator scoring.
func (c *RuleClassifier) Classify(ctx context.Context, text string, _ []session.Turn) (session.Detection, error) {
	_, span := tracer.Start(ctx, "detect.rules")
	defer span.End()

	scamType, score := bestScore(scoreRules(text))
	d := session.Detection{Evaluated: true}
	if score >= scamScoreThreshold {
		d.IsScam = true
		d.ScamType = scamType
		d.Confidence = float64(score) * 0.15
		if d.Confidence > 0.85 {
			d.Confidence = 0.85
		}
	} else {
		d.ScamType = "none"
		d.Confidence = 0.1
	}

	span.SetAttributes(
		attribute.Bool("detect.is_scam", d.IsScam),
		attribute.String("detect.scam_type", d.ScamType),
	)
	return d, nil
}

// LLMClassifier asks the configured provider for a structured verdict.
type LLMClassifier struct {
	provider llm.Provider
	model    string
}

// llmVerdict is the JSON shape the classifier prompt requests.
type llmVerdict struct {
	IsScam     bool    `json:"is_scam"`
	ScamType   string  `json:"scam_type"`
	Confidence float64 `json:"confidence"`
}

const classifyPrompt = `You are an expert scam detection AI with deep understanding of fraud tactics.

Analyze the message by understanding CONTEXT, INTENT, and MEANING - not just keywords.

CRITICAL SCAM INDICATORS:
1. Credential requests: asking for OTP, password, PIN, or CVV is ALWAYS a scam.
2. Phishing pretexts: "suspicious activity detected" or "secure your account" plus an action request is phishing. No legitimate company asks for an OTP or password via message.
3. Urgency plus a credential or payment request is a scam.

SCAM TYPES: phishing, lottery, investment, tech_support, romance, job_offer, impersonation, upi_fraud, none.

Respond with ONLY a JSON object, no prose:
{"is_scam": <bool>, "scam_type": "<type>", "confidence": <0.0-1.0>}

BE VERY STRICT: any OTP/password request means is_scam=true with confidence > 0.9.`

// Classify sends the message (and recent history for context) to the LLM
// and parses its JSON verdict.
func (c *LLMClassifier) Classify(ctx context.Context, text string, history []session.Turn) (session.Detection, error) {
	ctx, span := tracer.Start(ctx, "detect.llm")
	defer span.End()

	var user strings.Builder
	if len(history) > 0 {
		user.WriteString("CONVERSATION SO FAR:\n")
		for _, t := range history {
			user.WriteString(t.Sender)
			user.WriteString(": ")
			user.WriteString(t.Text)
			user.WriteString("\n")
		}
		user.WriteString("\n")
	}
	user.WriteString("MESSAGE TO ANALYZE:\n")
	user.WriteString(text)

	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: "system", Content: classifyPrompt},
			{Role: "user", Content: user.String()},
		},
		Temperature: 0.2,
	})
	if err != nil {
		span.RecordError(err)
		return session.Detection{}, fmt.Errorf("llm classification: %w", err)
	}

	verdict, err := parseVerdict(resp.Content)
	if err != nil {
		span.RecordError(err)
		return session.Detection{}, err
	}

	span.SetAttributes(
		attribute.Bool("detect.is_scam", verdict.IsScam),
		attribute.String("detect.scam_type", verdict.ScamType),
	)
	return session.Detection{
		Evaluated:  true,
		IsScam:     verdict.IsScam,
		ScamType:   verdict.ScamType,
		Confidence: clamp01(verdict.Confidence),
	}, nil
}

// parseVerdict extracts the JSON object from the model output, tolerating
// surrounding prose or markdown fences.
func parseVerdict(content string) (*llmVerdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON verdict in classifier output")
	}
	var v llmVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("parsing classifier verdict: %w", err)
	}
	if v.ScamType == "" {
		v.ScamType = "none"
		if v.IsScam {
			v.ScamType = "unknown"
		}
	}
	return &v, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
