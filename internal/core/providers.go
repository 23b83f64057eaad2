package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, history []Turn) (Turn, error)
	Models(ctx context.Context) ([]Model, error)
}

// Detector finds PII spans in text.
type Detector interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]DetectedSpan, error)
}
