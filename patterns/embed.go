// Package patterns provides embedded default recognizer definitions.
// The YAML file in this directory defines the regex recognizers and
// keyword lexicon used by the intelligence extractor; operators can
// layer their own recognizer file on top at runtime.
package patterns

import _ "embed"

//go:embed scam.yaml
var scamYAML []byte

// ScamYAML returns the embedded default scam intelligence recognizers.
func ScamYAML() []byte { return scamYAML }
