// Package classify decides whether a captured fragment reads like
// user-facing English copy rather than code.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is a single rejection step. Reject returns true when the text must be
// discarded.
type Rule struct {
	Name   string
	Reject func(text string) bool
}

var (
	identifierPattern  = regexp.MustCompile(`^[\p{L}\p{N}_]+\n?$`)
	urlPattern         = regexp.MustCompile(`^https?://`)
	codeCharPattern    = regexp.MustCompile(`[\p{Nd}@/_\-]`)
	asciiLetterPattern = regexp.MustCompile(`[a-zA-Z]`)
	ternaryPattern     = regexp.MustCompile(`\?\s*[\p{L}\p{N}_"']+\s*:`)
	accessorPattern    = regexp.MustCompile(`[\p{L}\p{N}_]+(?:\?\.)?[\p{L}\p{N}_]+`)
	returnPattern      = regexp.MustCompile(`^\s*return\s*\(`)
	punctuationPattern = regexp.MustCompile(`^[\s(){}\[\];.,]*$`)
)

// DefaultRules is the ordered rule chain. Order matters: the first rule that
// rejects wins, and the cheap prefix checks run before the broad character
// class checks.
var DefaultRules = []Rule{
	{Name: "empty", Reject: func(s string) bool {
		return strings.TrimSpace(s) == ""
	}},
	{Name: "too-short", Reject: func(s string) bool {
		return utf8.RuneCountInString(strings.TrimSpace(s)) <= 1
	}},
	{Name: "identifier", Reject: func(s string) bool {
		return identifierPattern.MatchString(s) && strings.Contains(s, "_")
	}},
	{Name: "url", Reject: func(s string) bool {
		return urlPattern.MatchString(s) || strings.HasPrefix(s, "www.")
	}},
	{Name: "selector", Reject: func(s string) bool {
		return strings.HasPrefix(s, "#") || strings.HasPrefix(s, ".") || strings.HasPrefix(s, "<")
	}},
	{Name: "code-chars", Reject: func(s string) bool {
		return codeCharPattern.MatchString(s)
	}},
	{Name: "no-letters", Reject: func(s string) bool {
		return !asciiLetterPattern.MatchString(s)
	}},
	{Name: "ternary", Reject: func(s string) bool {
		return ternaryPattern.MatchString(s)
	}},
	{Name: "accessor", Reject: func(s string) bool {
		return len(strings.Fields(s)) <= 3 && accessorPattern.MatchString(s) && strings.Contains(s, ".")
	}},
	{Name: "return", Reject: func(s string) bool {
		return returnPattern.MatchString(s)
	}},
	{Name: "punctuation", Reject: func(s string) bool {
		return punctuationPattern.MatchString(s)
	}},
}

// Classifier runs a rule chain over fragments. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New creates a classifier. With no rules it uses DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// IsHumanReadable reports whether no rule rejects the text.
func (c *Classifier) IsHumanReadable(text string) bool {
	_, ok := c.Explain(text)
	return ok
}

// Explain returns the name of the first rejecting rule, or ok=true when the
// text is accepted.
func (c *Classifier) Explain(text string) (rule string, ok bool) {
	for _, r := range c.rules {
		if r.Reject(text) {
			return r.Name, false
		}
	}
	return "", true
}

// Rules returns the classifier's rule chain in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

var defaultClassifier = New()

// IsHumanReadable checks text against DefaultRules.
func IsHumanReadable(text string) bool {
	return defaultClassifier.IsHumanReadable(text)
}
