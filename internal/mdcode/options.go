package mdcode

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Option tokens understood by the orchestrator. Other tokens are kept but ignored.
const (
	OptSkip        = "skip"
	OptKeepContext = "keep_context"
)

// Options holds the normalized tokens of a block's "^opts" annotation.
type Options map[string]struct{}

// ParseOptions case-folds raw and splits it on whitespace.
func ParseOptions(raw string) Options {
	opts := make(Options)

	for _, token := range strings.Fields(cases.Fold().String(raw)) {
		opts[token] = struct{}{}
	}

	return opts
}

// Has reports whether the token is present. It is safe to call on a nil Options.
func (o Options) Has(token string) bool {
	_, has := o[token]

	return has
}

// Tokens returns the tokens in sorted order.
func (o Options) Tokens() []string {
	tokens := make([]string, 0, len(o))
	for token := range o {
		tokens = append(tokens, token)
	}

	sort.Strings(tokens)

	return tokens
}

func (o Options) String() string {
	return strings.Join(o.Tokens(), " ")
}
