package pii

import (
	"context"
	"fmt"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

const LanguageEnglish = "en"

// Detector runs a set of recognizers over the text and returns every span
// they report. Scores are not filtered here.
type Detector struct {
	recognizers []Recognizer
	supported   map[core.EntityKind]bool
}

func NewDetector(recognizers ...Recognizer) *Detector {
	supported := make(map[core.EntityKind]bool)
	for _, r := range recognizers {
		for _, k := range r.Kinds() {
			supported[k] = true
		}
	}
	return &Detector{
		recognizers: recognizers,
		supported:   supported,
	}
}

// NewDefaultDetector builds a detector with the built-in pattern recognizers
// plus any extra ones, such as the NER recognizer.
func NewDefaultDetector(extra ...Recognizer) *Detector {
	return NewDetector(append(DefaultRecognizers(), extra...)...)
}

func (d *Detector) Analyze(ctx context.Context, req core.AnalyzeRequest) ([]core.DetectedSpan, error) {
	if req.Language != LanguageEnglish {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}

	kinds := req.Entities
	if len(kinds) == 0 {
		kinds = core.AllEntityKinds()
	}
	wanted := make(map[core.EntityKind]bool, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("unknown entity kind %q", k)
		}
		if !d.supported[k] {
			return nil, fmt.Errorf("no recognizer for entity kind %s", k)
		}
		wanted[k] = true
	}

	var spans []core.DetectedSpan
	for _, r := range d.recognizers {
		found, err := r.Analyze(ctx, req.Text, wanted)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name(), err)
		}
		spans = append(spans, found...)
	}
	sortSpans(spans)

	log.FromCtx(ctx).Debug().
		Int("spans", len(spans)).
		Int("recognizers", len(d.recognizers)).
		Msg("PII analysis finished")

	return spans, nil
}

func (d *Detector) Recognizers() string {
	return recognizerNames(d.recognizers)
}
