package detect

import (
	"regexp"
	"sort"
	"strings"
)

// scamIndicators scores messages per scam type. Keywords count once,
// regex patterns twice, and credential requests ten times — a message
// asking for an OTP, password, PIN, or CVV is treated as near-certain
// fraud regardless of anything else it says.
type indicatorSet struct {
	keywords           []string
	patterns           []*regexp.Regexp
	credentialRequests []*regexp.Regexp
}

const (
	keywordWeight    = 1
	patternWeight    = 2
	credentialWeight = 10

	// scamScoreThreshold is the minimum score treated as a scam verdict.
	scamScoreThreshold = 2
)

var scamIndicators = map[string]indicatorSet{
	"phishing": {
		keywords: []string{"verify", "suspended", "locked", "otp", "suspicious activity"},
		patterns: compileAll(
			`(?:share|send|provide).*otp`,
			`suspicious.*activity`,
			`secure.*account`,
			`account.*(?:suspended|locked|blocked)`,
		),
		credentialRequests: compileAll(
			`(?:share|send|provide|enter).*(?:otp|password|pin|cvv)`,
		),
	},
	"lottery": {
		keywords: []string{"won", "winner", "lottery", "prize", "congratulations"},
		patterns: compileAll(`won.*(?:rs\.?|₹|\$)\s*[\d,]+`, `claim.*prize`),
	},
	"investment": {
		keywords: []string{"profit", "returns", "guaranteed", "crypto"},
		patterns: compileAll(`\d+%.*(?:profit|returns)`, `guaranteed.*returns`),
	},
	"tech_support": {
		keywords: []string{"virus", "infected", "microsoft", "tech support"},
		patterns: compileAll(`computer.*virus`, `call.*immediately`),
	},
	"impersonation": {
		keywords: []string{"police", "government", "arrest", "warrant"},
		patterns: compileAll(`legal.*action`, `arrest.*warrant`),
	},
	"upi_fraud": {
		keywords: []string{"upi", "paytm", "phonepe", "cashback", "refund"},
		patterns: compileAll(`(?:share|send|confirm).*upi`, `upi.*(?:id|pin)`),
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// scoreRules runs the rule-based indicator scoring over a lowercased
// message and returns per-type scores.
func scoreRules(message string) map[string]int {
	lower := strings.ToLower(message)
	scores := make(map[string]int, len(scamIndicators))
	for scamType, ind := range scamIndicators {
		score := 0
		for _, kw := range ind.keywords {
			if strings.Contains(lower, kw) {
				score += keywordWeight
			}
		}
		for _, p := range ind.patterns {
			if p.MatchString(lower) {
				score += patternWeight
			}
		}
		for _, p := range ind.credentialRequests {
			if p.MatchString(lower) {
				score += credentialWeight
			}
		}
		scores[scamType] = score
	}
	return scores
}

// bestScore returns the highest-scoring scam type, breaking ties by name
// so the result is deterministic.
func bestScore(scores map[string]int) (string, int) {
	types := make([]string, 0, len(scores))
	for t := range scores {
		types = append(types, t)
	}
	sort.Strings(types)

	bestType, best := "", -1
	for _, t := range types {
		if scores[t] > best {
			bestType, best = t, scores[t]
		}
	}
	return bestType, best
}
