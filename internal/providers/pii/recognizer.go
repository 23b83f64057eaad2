package pii

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/sandevgo/piichat/internal/core"
)

const (
	contextWindowBefore = 5
	contextWindowAfter  = 2
	contextBoost        = 0.35
	minScoreWithContext = 0.4
)

// Recognizer finds spans of one or more entity kinds.
type Recognizer interface {
	Name() string
	Kinds() []core.EntityKind
	Analyze(ctx context.Context, text string, wanted map[core.EntityKind]bool) ([]core.DetectedSpan, error)
}

type verdict int

const (
	unverified verdict = iota
	verified
	rejected
)

type pattern struct {
	name  string
	re    *regexp.Regexp
	score float64
	// group selects the submatch reported as the span; 0 is the whole match.
	group int
}

// PatternRecognizer detects a single entity kind with regular expressions,
// an optional validator and context words that raise the score of weak
// matches.
type PatternRecognizer struct {
	name     string
	kind     core.EntityKind
	patterns []pattern
	validate func(match string) verdict
	context  []string
	trim     string
}

func (r *PatternRecognizer) Name() string {
	return r.name
}

func (r *PatternRecognizer) Kinds() []core.EntityKind {
	return []core.EntityKind{r.kind}
}

func (r *PatternRecognizer) Analyze(ctx context.Context, text string, wanted map[core.EntityKind]bool) ([]core.DetectedSpan, error) {
	if !wanted[r.kind] {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := make(map[[2]int]float64)
	for _, p := range r.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*p.group], loc[2*p.group+1]
			if start < 0 || end <= start {
				continue
			}
			if r.trim != "" {
				for end > start && strings.ContainsRune(r.trim, rune(text[end-1])) {
					end--
				}
				if end == start {
					continue
				}
			}

			score := p.score
			if r.validate != nil {
				switch r.validate(text[start:end]) {
				case rejected:
					continue
				case verified:
					score = 1.0
				}
			}
			if score < 1.0 && hasContext(text, start, end, r.context) {
				score = boost(score)
			}

			key := [2]int{start, end}
			if prev, ok := best[key]; !ok || score > prev {
				best[key] = score
			}
		}
	}

	spans := make([]core.DetectedSpan, 0, len(best))
	for key, score := range best {
		spans = append(spans, core.DetectedSpan{
			Start:      key[0],
			End:        key[1],
			Kind:       r.kind,
			Score:      score,
			Recognizer: r.name,
		})
	}
	sortSpans(spans)
	return spans, nil
}

func boost(score float64) float64 {
	score += contextBoost
	if score < minScoreWithContext {
		score = minScoreWithContext
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// hasContext reports whether one of the context words appears among the few
// tokens surrounding text[start:end].
func hasContext(text string, start, end int, words []string) bool {
	if len(words) == 0 {
		return false
	}

	before := tokenize(text[:start])
	if len(before) > contextWindowBefore {
		before = before[len(before)-contextWindowBefore:]
	}
	after := tokenize(text[end:])
	if len(after) > contextWindowAfter {
		after = after[:contextWindowAfter]
	}

	for _, tok := range append(before, after...) {
		for _, w := range words {
			if tok == w || (len(w) > 2 && strings.HasPrefix(tok, w)) {
				return true
			}
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortSpans(spans []core.DetectedSpan) {
	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Kind < b.Kind
	})
}

// denyList compiles a case sensitive whole-word alternation. Longer terms
// come first so that "New York City" wins over "New York".
func denyList(terms []string) *regexp.Regexp {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
