package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tusharkanta407/HoneyPot/internal/llm"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

func TestRuleClassifier(t *testing.T) {
	c := &RuleClassifier{}
	ctx := context.Background()

	tests := []struct {
		name         string
		text         string
		wantScam     bool
		wantScamType string
	}{
		{
			name:         "phishing with credential request",
			text:         "We detected suspicious activity. Share your OTP to secure your account",
			wantScam:     true,
			wantScamType: "phishing",
		},
		{
			name:         "account blocked phishing",
			text:         "Your bank account will be blocked today. Verify immediately.",
			wantScam:     true,
			wantScamType: "phishing",
		},
		{
			name:         "lottery",
			text:         "Congratulations! You won Rs. 50,000 in our lottery. Claim your prize now",
			wantScam:     true,
			wantScamType: "lottery",
		},
		{
			name:         "investment",
			text:         "Guaranteed returns of 20% profit every month with crypto",
			wantScam:     true,
			wantScamType: "investment",
		},
		{
			name:         "impersonation",
			text:         "This is the police. An arrest warrant is issued, legal action will follow",
			wantScam:     true,
			wantScamType: "impersonation",
		},
		{
			name:     "benign greeting",
			text:     "Hey, are we still on for lunch tomorrow?",
			wantScam: false,
		},
		{
			name:     "empty",
			text:     "",
			wantScam: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Classify(ctx, tt.text, nil)
			require.NoError(t, err)
			assert.True(t, d.Evaluated)
			assert.Equal(t, tt.wantScam, d.IsScam)
			if tt.wantScam {
				assert.Equal(t, tt.wantScamType, d.ScamType)
				assert.Greater(t, d.Confidence, 0.2)
				assert.LessOrEqual(t, d.Confidence, 0.85)
			} else {
				assert.Equal(t, "none", d.ScamType)
			}
		})
	}
}

func TestRuleClassifierCredentialRequestDominates(t *testing.T) {
	d, err := (&RuleClassifier{}).Classify(context.Background(), "please enter your CVV to continue", nil)
	require.NoError(t, err)
	assert.True(t, d.IsScam)
	assert.Equal(t, 0.85, d.Confidence)
}

func TestLLMClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[1].Content, "Verify immediately")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"role":    "assistant",
					"content": "```json\n{\"is_scam\": true, \"scam_type\": \"phishing\", \"confidence\": 0.95}\n```",
				}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	c := NewClassifier(llm.NewOpenAIProviderWithBaseURL("k", srv.URL+"/v1"), "gpt-4o-mini")
	d, err := c.Classify(context.Background(), "Your bank account will be blocked today. Verify immediately.", nil)
	require.NoError(t, err)
	assert.True(t, d.Evaluated)
	assert.True(t, d.IsScam)
	assert.Equal(t, "phishing", d.ScamType)
	assert.InDelta(t, 0.95, d.Confidence, 1e-9)
}

func TestLLMClassifierIncludesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Contains(t, req.Messages[1].Content, "scammer: step one")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"is_scam\":false,\"scam_type\":\"none\",\"confidence\":0.2}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClassifier(llm.NewOpenAIProviderWithBaseURL("k", srv.URL+"/v1"), "gpt-4o-mini")
	d, err := c.Classify(context.Background(), "ok", []session.Turn{{Sender: "scammer", Text: "step one", Timestamp: 1}})
	require.NoError(t, err)
	assert.False(t, d.IsScam)
}

func TestLLMClassifierErrorLeavesVerdictUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClassifier(llm.NewOpenAIProviderWithBaseURL("k", srv.URL+"/v1"), "gpt-4o-mini")
	d, err := c.Classify(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.False(t, d.Evaluated)
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(`Sure! Here is the analysis: {"is_scam": true, "scam_type": "", "confidence": 2.5} hope that helps`)
	require.NoError(t, err)
	assert.True(t, v.IsScam)
	assert.Equal(t, "unknown", v.ScamType)

	_, err = parseVerdict("definitely a scam")
	assert.Error(t, err)

	_, err = parseVerdict("{not json}")
	assert.Error(t, err)
}

func TestNewClassifierSelection(t *testing.T) {
	assert.IsType(t, &RuleClassifier{}, NewClassifier(nil, ""))
	assert.IsType(t, &LLMClassifier{}, NewClassifier(llm.NewOllamaProvider(""), "llama3"))
}
