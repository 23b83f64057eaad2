package core

import "context"

// TurnsRepository persists redacted turns per session. The preamble is never
// stored.
type TurnsRepository interface {
	AddTurns(ctx context.Context, sessionID string, turns ...Turn) error
	GetTurns(ctx context.Context, sessionID string) ([]Turn, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
