package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

type provider interface {
	SetModel(ctx context.Context, model string) error
	GetModel() string
	Models(ctx context.Context) ([]core.Model, error)
}

// GlobalState holds the process wide settings that chat commands may change.
// Conversations themselves live in the conversation package.
type GlobalState struct {
	provider provider
}

func NewGlobalState(
	provider provider,
) *GlobalState {
	return &GlobalState{
		provider: provider,
	}
}

func (s *GlobalState) ChangeModel(ctx context.Context, model string) error {
	previous := s.provider.GetModel()
	if err := s.provider.SetModel(ctx, model); err != nil {
		return err
	}
	log.FromCtx(ctx).Info().Str("from", previous).Str("to", model).Msg("Model changed")
	return nil
}

func (s *GlobalState) CurrentModel() string {
	return s.provider.GetModel()
}

// Models lists the provider's models sorted by ID.
func (s *GlobalState) Models(ctx context.Context) ([]core.Model, error) {
	models, err := s.provider.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}
