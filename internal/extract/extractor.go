// Package extract identifies actionable scam intelligence in free text:
// payment handles (UPI IDs), bank account numbers, phone numbers, URLs,
// and indicator phrases from a configurable lexicon. Extraction is pure
// and synchronous so it can run on every conversation turn; false
// positives are tolerated because the intelligence is advisory and
// accumulation across turns compensates for misses on a single turn.
package extract

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMinAccountDigits is the minimum digit-run length treated as a
// candidate bank account number. Runs shorter than this are left to the
// phone recognizers.
const DefaultMinAccountDigits = 11

const maxAccountDigits = 18

// Result holds the identifiers found in one piece of text, deduplicated
// per category by normalized value. Slices are sorted for determinism.
type Result struct {
	UPIIDs   []string
	Accounts []string
	Phones   []string
	URLs     []string
	Keywords []string
}

// Empty reports whether no identifiers of any category were found.
func (r *Result) Empty() bool {
	return len(r.UPIIDs) == 0 && len(r.Accounts) == 0 && len(r.Phones) == 0 &&
		len(r.URLs) == 0 && len(r.Keywords) == 0
}

// Extractor scans text with compiled recognizer patterns. It is immutable
// after construction and safe for concurrent use.
type Extractor struct {
	patterns         []Pattern
	minAccountDigits int
}

// Option configures an Extractor via the functional options pattern.
type Option func(*extractorConfig)

type extractorConfig struct {
	patternFile      string
	extraRecognizers []RecognizerConfig
	minAccountDigits int
}

// WithPatternFile loads additional recognizers from an operator YAML file.
// A missing file is silently skipped.
func WithPatternFile(path string) Option {
	return func(c *extractorConfig) { c.patternFile = path }
}

// WithRecognizers appends recognizer definitions on top of the defaults.
func WithRecognizers(recs []RecognizerConfig) Option {
	return func(c *extractorConfig) { c.extraRecognizers = recs }
}

// WithMinAccountDigits overrides the minimum digit run treated as an
// account number.
func WithMinAccountDigits(n int) Option {
	return func(c *extractorConfig) { c.minAccountDigits = n }
}

// New creates an Extractor. Without options it uses the embedded defaults.
func New(opts ...Option) (*Extractor, error) {
	var cfg extractorConfig
	for _, o := range opts {
		o(&cfg)
	}

	defaults, err := DefaultRecognizers()
	if err != nil {
		return nil, fmt.Errorf("loading default recognizers: %w", err)
	}

	var operator []RecognizerConfig
	if cfg.patternFile != "" {
		rf, err := LoadRecognizerFile(cfg.patternFile)
		if err != nil {
			return nil, fmt.Errorf("loading operator pattern file: %w", err)
		}
		if rf != nil {
			operator = rf.Recognizers
		}
	}

	merged := MergeRecognizers(defaults, operator, cfg.extraRecognizers)

	minDigits := DefaultMinAccountDigits
	if cfg.minAccountDigits > 0 {
		minDigits = cfg.minAccountDigits
	}
	for i, rec := range merged {
		if rec.Category == CategoryAccount {
			merged[i].Patterns = []PatternConfig{{
				Name:  "account_digits",
				Regex: fmt.Sprintf(`\b\d{%d,%d}\b`, minDigits, maxAccountDigits),
			}}
		}
	}

	compiled, err := CompilePatterns(merged)
	if err != nil {
		return nil, fmt.Errorf("compiling patterns: %w", err)
	}

	return &Extractor{patterns: compiled, minAccountDigits: minDigits}, nil
}

// MustNew is like New but panics on error. Useful for zero-config startup
// where the embedded defaults are expected to always compile.
func MustNew(opts ...Option) *Extractor {
	e, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("extract.New: %v", err))
	}
	return e
}

// Extract scans text and returns all recognized identifiers. Pure and
// deterministic: empty or irrelevant input yields an empty result, never
// an error.
func (e *Extractor) Extract(text string) *Result {
	seen := make(map[Category]map[string]bool)
	result := &Result{}

	add := func(cat Category, value string) {
		key := Normalize(cat, value)
		if key == "" {
			return
		}
		if seen[cat] == nil {
			seen[cat] = make(map[string]bool)
		}
		if seen[cat][key] {
			return
		}
		seen[cat][key] = true
		switch cat {
		case CategoryUPI:
			result.UPIIDs = append(result.UPIIDs, value)
		case CategoryAccount:
			result.Accounts = append(result.Accounts, value)
		case CategoryPhone:
			result.Phones = append(result.Phones, value)
		case CategoryURL:
			result.URLs = append(result.URLs, strings.TrimRight(value, ".,;:!?)"))
		case CategoryKeyword:
			result.Keywords = append(result.Keywords, strings.ToLower(value))
		}
	}

	for _, p := range e.patterns {
		for _, value := range p.Pattern.FindAllString(text, -1) {
			if p.Category == CategoryAccount && looksLikePhone(value) {
				continue
			}
			add(p.Category, value)
		}
	}

	sort.Strings(result.UPIIDs)
	sort.Strings(result.Accounts)
	sort.Strings(result.Phones)
	sort.Strings(result.URLs)
	sort.Strings(result.Keywords)
	return result
}

// looksLikePhone reports whether a bare digit run is an Indian phone number
// in disguise: 0XXXXXXXXXX (11 digits) or 91XXXXXXXXXX (12 digits) with a
// mobile prefix. Such runs belong to the phone recognizers, not accounts.
func looksLikePhone(digits string) bool {
	if len(digits) == 11 && digits[0] == '0' && digits[1] >= '6' && digits[1] <= '9' {
		return true
	}
	if len(digits) == 12 && strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9' {
		return true
	}
	return false
}

// Normalize returns the dedup key for a value within a category. Values
// whose keys collide are treated as the same identifier, so near-identical
// formats (spacing, separators, case) merge to one entry.
func Normalize(cat Category, value string) string {
	switch cat {
	case CategoryAccount, CategoryPhone:
		digits := stripNonDigits(value)
		if cat == CategoryPhone {
			// Collapse +91/0 prefixed forms onto the 10-digit number.
			if len(digits) == 12 && strings.HasPrefix(digits, "91") {
				digits = digits[2:]
			} else if len(digits) == 11 && digits[0] == '0' {
				digits = digits[1:]
			}
		}
		return digits
	case CategoryURL:
		return strings.ToLower(strings.TrimRight(value, ".,;:!?)"))
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// stripNonDigits removes all non-digit characters from s.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
