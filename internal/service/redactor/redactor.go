package redactor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/metrics"
	"github.com/sandevgo/piichat/pkg/log"
)

const (
	DefaultLanguage  = "en"
	DefaultThreshold = 0.4
)

type Config struct {
	// Entities limits detection to these kinds; empty means all kinds.
	// The order breaks ties between overlapping spans of equal score and length.
	Entities  []core.EntityKind
	Language  string
	Threshold float64
}

// Result is the redacted text together with the number of placeholders
// inserted per kind.
type Result struct {
	Text   string
	Counts map[core.EntityKind]int
}

// Redactor replaces detected PII with <KIND> placeholders.
type Redactor struct {
	detector  core.Detector
	entities  []core.EntityKind
	rank      map[core.EntityKind]int
	language  string
	threshold float64
	metrics   *metrics.Metrics
}

func New(detector core.Detector, cfg Config, m *metrics.Metrics) *Redactor {
	entities := cfg.Entities
	if len(entities) == 0 {
		entities = core.AllEntityKinds()
	}
	rank := make(map[core.EntityKind]int, len(entities))
	for i, k := range entities {
		rank[k] = i
	}

	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}

	return &Redactor{
		detector:  detector,
		entities:  entities,
		rank:      rank,
		language:  language,
		threshold: cfg.Threshold,
		metrics:   m,
	}
}

func (r *Redactor) Entities() []core.EntityKind {
	out := make([]core.EntityKind, len(r.entities))
	copy(out, r.entities)
	return out
}

// Redact returns text with every confidently detected entity replaced.
// On any detector failure it returns a *core.DetectionError and no text.
func (r *Redactor) Redact(ctx context.Context, text string) (string, error) {
	res, err := r.Apply(ctx, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (r *Redactor) Apply(ctx context.Context, text string) (Result, error) {
	started := time.Now()

	spans, err := r.Detect(ctx, text)
	if err != nil {
		return Result{}, err
	}

	counts := make(map[core.EntityKind]int)
	var b strings.Builder
	b.Grow(len(text))

	cursor := 0
	for _, s := range spans {
		b.WriteString(text[cursor:s.Start])
		b.WriteString(s.Kind.Placeholder())
		counts[s.Kind]++
		cursor = s.End
	}
	b.WriteString(text[cursor:])

	r.metrics.RecordRedaction(time.Since(started), counts)
	if len(counts) > 0 {
		event := log.FromCtx(ctx).Debug()
		for kind, n := range counts {
			event = event.Int(string(kind), n)
		}
		event.Msg("Redacted entities")
	}

	return Result{Text: b.String(), Counts: counts}, nil
}

// Detect runs the detector and returns the resolved, non-overlapping spans
// at or above the threshold, in ascending order.
func (r *Redactor) Detect(ctx context.Context, text string) ([]core.DetectedSpan, error) {
	if text == "" {
		return nil, nil
	}

	spans, err := r.detector.Analyze(ctx, core.AnalyzeRequest{
		Text:     text,
		Entities: r.Entities(),
		Language: r.language,
	})
	if err != nil {
		return nil, &core.DetectionError{Err: err}
	}

	kept := make([]core.DetectedSpan, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			return nil, &core.DetectionError{
				Err: fmt.Errorf("span [%d,%d) of %s is outside text of length %d", s.Start, s.End, s.Kind, len(text)),
			}
		}
		if s.Score >= r.threshold {
			kept = append(kept, s)
		}
	}

	return r.resolve(kept), nil
}

// resolve merges overlapping spans into one region per overlap group. The
// region takes the kind of its strongest span: highest score, then longest,
// then earliest in the configured entity order. Spans that merely touch are
// kept apart.
func (r *Redactor) resolve(spans []core.DetectedSpan) []core.DetectedSpan {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]core.DetectedSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var out []core.DetectedSpan
	region := sorted[0]
	best := sorted[0]
	for _, s := range sorted[1:] {
		if s.Start < region.End {
			if s.End > region.End {
				region.End = s.End
			}
			if r.stronger(s, best) {
				best = s
			}
			continue
		}
		out = append(out, r.finish(region, best))
		region, best = s, s
	}
	return append(out, r.finish(region, best))
}

func (r *Redactor) finish(region, best core.DetectedSpan) core.DetectedSpan {
	return core.DetectedSpan{
		Start:      region.Start,
		End:        region.End,
		Kind:       best.Kind,
		Score:      best.Score,
		Recognizer: best.Recognizer,
	}
}

func (r *Redactor) stronger(a, b core.DetectedSpan) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Len() != b.Len() {
		return a.Len() > b.Len()
	}
	return r.rankOf(a.Kind) < r.rankOf(b.Kind)
}

func (r *Redactor) rankOf(k core.EntityKind) int {
	if i, ok := r.rank[k]; ok {
		return i
	}
	return len(r.rank)
}
