// Package extract locates literal text in markup and source files and keeps
// the fragments the classifier accepts.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ui-translator/internal/classify"
)

// DefaultTemplateExtensions lists file suffixes whose backtick strings are
// scanned as template literals.
var DefaultTemplateExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".vue"}

var (
	tagTextPattern       = regexp.MustCompile(`>\s*([^<>{}]+)\s*<`)
	doubleQuotePattern   = quotedPattern('"')
	singleQuotePattern   = quotedPattern('\'')
	templatePattern      = quotedPattern('`')
	interpolationPattern = regexp.MustCompile(`\$\{[^}]*\}`)
	lineBreakPattern     = regexp.MustCompile(`[\n\t\r]+`)
	spacePattern         = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+`)
)

// quotedPattern matches text between two delim characters. Inside, any
// character other than delim or a backslash is allowed, and a backslash
// escapes exactly one following character.
func quotedPattern(delim rune) *regexp.Regexp {
	d := regexp.QuoteMeta(string(delim))
	return regexp.MustCompile(fmt.Sprintf(`%s((?:[^%s\\]|\\.)*)%s`, d, d, d))
}

// Clean trims the text, strips surrounding asterisks and collapses runs of
// whitespace into single spaces.
func Clean(text string) string {
	text = strings.TrimFunc(text, isSpace)
	text = strings.Trim(text, "*")
	text = lineBreakPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return text
}

// isSpace also counts the ASCII information separators U+001C..U+001F as
// whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// StripInterpolations removes ${...} expressions. Nested braces are not
// understood: the expression ends at the first closing brace.
func StripInterpolations(text string) string {
	return interpolationPattern.ReplaceAllString(text, "")
}

type strategy struct {
	kind    Strategy
	pattern *regexp.Regexp
	// prepare turns the raw capture into the text handed to the classifier.
	prepare func(raw string) string
	// minLen is enforced on the prepared text, in runes. Zero disables it.
	minLen int
}

var strategies = []strategy{
	{kind: StrategyTagText, pattern: tagTextPattern, prepare: Clean, minLen: 2},
	{kind: StrategyDoubleQuote, pattern: doubleQuotePattern},
	{kind: StrategySingleQuote, pattern: singleQuotePattern},
	{kind: StrategyTemplate, pattern: templatePattern, prepare: func(raw string) string {
		return Clean(StripInterpolations(raw))
	}, minLen: 2},
}

// Extractor applies the four extraction strategies to file content.
type Extractor struct {
	classifier   *classify.Classifier
	templateExts []string
}

// NewExtractor creates an extractor. A nil classifier uses the default rule
// chain; nil templateExts uses DefaultTemplateExtensions.
func NewExtractor(classifier *classify.Classifier, templateExts []string) *Extractor {
	if classifier == nil {
		classifier = classify.New()
	}
	if templateExts == nil {
		templateExts = DefaultTemplateExtensions
	}
	return &Extractor{
		classifier:   classifier,
		templateExts: templateExts,
	}
}

// SupportsTemplates reports whether template literal extraction applies to
// filePath.
func (e *Extractor) SupportsTemplates(filePath string) bool {
	for _, ext := range e.templateExts {
		if strings.HasSuffix(filePath, ext) {
			return true
		}
	}
	return false
}

// Candidates returns every capture from every applicable strategy, in
// strategy order and then match order.
func (e *Extractor) Candidates(content, filePath string) []Candidate {
	var out []Candidate
	for _, s := range strategies {
		if s.kind == StrategyTemplate && !e.SupportsTemplates(filePath) {
			continue
		}
		for _, loc := range s.pattern.FindAllStringSubmatchIndex(content, -1) {
			raw := content[loc[2]:loc[3]]
			text := raw
			if s.prepare != nil {
				text = s.prepare(raw)
			}
			out = append(out, Candidate{
				Text:     text,
				Raw:      raw,
				File:     filePath,
				Strategy: s.kind,
				Offset:   loc[0],
			})
		}
	}
	return out
}

// Classify evaluates every candidate and reports the outcome.
func (e *Extractor) Classify(content, filePath string) []Decision {
	candidates := e.Candidates(content, filePath)
	decisions := make([]Decision, 0, len(candidates))
	for _, c := range candidates {
		d := Decision{Candidate: c}
		if rule, ok := e.classifier.Explain(c.Text); !ok {
			d.Rule = rule
		} else if s := strategyFor(c.Strategy); utf8.RuneCountInString(c.Text) >= s.minLen {
			d.Accepted = true
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// Extract returns the accepted fragments of content. Fragments are unique
// (exact match) and ordered by first acceptance: tag text, then double
// quotes, single quotes and template literals.
func (e *Extractor) Extract(content, filePath string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range e.Classify(content, filePath) {
		if !d.Accepted {
			continue
		}
		if _, dup := seen[d.Text]; dup {
			continue
		}
		seen[d.Text] = struct{}{}
		out = append(out, d.Text)
	}
	return out
}

func strategyFor(kind Strategy) strategy {
	for _, s := range strategies {
		if s.kind == kind {
			return s
		}
	}
	return strategy{kind: kind}
}
