package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Tusharkanta407/HoneyPot/patterns"
)

// Category identifies which intelligence set a recognizer feeds.
type Category string

// Recognizer categories. Each maps to one set in the final report.
const (
	CategoryUPI     Category = "upi_id"
	CategoryAccount Category = "account"
	CategoryPhone   Category = "phone"
	CategoryURL     Category = "url"
	CategoryKeyword Category = "keyword"
)

// RecognizerFile is the top-level YAML structure for a recognizer config file.
type RecognizerFile struct {
	Recognizers []RecognizerConfig `yaml:"recognizers"`
}

// RecognizerConfig defines one recognizer: a named group of regex patterns
// and/or literal phrases that all feed the same intelligence category.
type RecognizerConfig struct {
	Name     string          `yaml:"name" json:"name"`
	Category Category        `yaml:"category" json:"category"`
	Enabled  *bool           `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Patterns []PatternConfig `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	// Phrases are matched case-insensitively as whole words/phrases.
	Phrases []string `yaml:"phrases,omitempty" json:"phrases,omitempty"`
}

// PatternConfig is a single regex pattern within a recognizer.
type PatternConfig struct {
	Name  string `yaml:"name" json:"name"`
	Regex string `yaml:"regex" json:"regex"`
}

// isEnabled returns true if the recognizer is enabled (defaults to true when nil).
func (r *RecognizerConfig) isEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// Pattern is a compiled, ready-to-use recognizer pattern.
type Pattern struct {
	Name     string
	Category Category
	Pattern  *regexp.Regexp
}

// ParseRecognizerFile parses recognizer YAML bytes into a RecognizerFile.
func ParseRecognizerFile(data []byte) (*RecognizerFile, error) {
	var rf RecognizerFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recognizer YAML: %w", err)
	}
	return &rf, nil
}

// LoadRecognizerFile reads and parses a recognizer YAML file from disk.
// Returns nil (not an error) if the file does not exist, so callers can
// treat a missing operator config as a no-op.
func LoadRecognizerFile(path string) (*RecognizerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recognizer file %s: %w", path, err)
	}
	return ParseRecognizerFile(data)
}

// DefaultRecognizers returns the built-in recognizers parsed from the
// embedded scam.yaml file. This is the first layer in the merge chain.
func DefaultRecognizers() ([]RecognizerConfig, error) {
	rf, err := ParseRecognizerFile(patterns.ScamYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded scam patterns: %w", err)
	}
	return rf.Recognizers, nil
}

// MergeRecognizers layers operator recognizers over the defaults. Later
// layers override earlier ones by matching on the recognizer Name field;
// new recognizers are appended in order.
func MergeRecognizers(layers ...[]RecognizerConfig) []RecognizerConfig {
	var merged []RecognizerConfig
	index := make(map[string]int)
	for _, layer := range layers {
		for _, rec := range layer {
			if i, ok := index[rec.Name]; ok {
				merged[i] = rec
				continue
			}
			index[rec.Name] = len(merged)
			merged = append(merged, rec)
		}
	}
	return merged
}

// CompilePatterns compiles enabled recognizers into runtime patterns.
// Phrases become case-insensitive whole-word regexes.
func CompilePatterns(recognizers []RecognizerConfig) ([]Pattern, error) {
	var compiled []Pattern
	for _, rec := range recognizers {
		if !rec.isEnabled() {
			continue
		}
		for _, p := range rec.Patterns {
			re, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %s/%s: %w", rec.Name, p.Name, err)
			}
			compiled = append(compiled, Pattern{Name: p.Name, Category: rec.Category, Pattern: re})
		}
		for _, phrase := range rec.Phrases {
			re, err := compilePhrase(phrase)
			if err != nil {
				return nil, fmt.Errorf("compiling phrase %q in %s: %w", phrase, rec.Name, err)
			}
			compiled = append(compiled, Pattern{Name: "phrase:" + phrase, Category: rec.Category, Pattern: re})
		}
	}
	return compiled, nil
}

// compilePhrase turns a literal phrase into a case-insensitive whole-word
// matcher. Internal whitespace matches any whitespace run.
func compilePhrase(phrase string) (*regexp.Regexp, error) {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}
