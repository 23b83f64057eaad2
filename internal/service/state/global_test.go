package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/core"
)

type fakeProvider struct {
	model   string
	allowed map[string]bool
	models  []core.Model
	listErr error
}

func (p *fakeProvider) SetModel(_ context.Context, model string) error {
	if !p.allowed[model] {
		return errors.New("unknown model")
	}
	p.model = model
	return nil
}

func (p *fakeProvider) GetModel() string { return p.model }

func (p *fakeProvider) Models(context.Context) ([]core.Model, error) {
	return p.models, p.listErr
}

func TestGlobalState_ChangeModel(t *testing.T) {
	p := &fakeProvider{model: "gpt-3.5-turbo", allowed: map[string]bool{"gpt-4o": true}}
	s := NewGlobalState(p)

	require.NoError(t, s.ChangeModel(context.Background(), "gpt-4o"))
	assert.Equal(t, "gpt-4o", s.CurrentModel())

	err := s.ChangeModel(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, "gpt-4o", s.CurrentModel())
}

func TestGlobalState_Models(t *testing.T) {
	p := &fakeProvider{models: []core.Model{{ID: "b"}, {ID: "a"}, {ID: "c"}}}
	s := NewGlobalState(p)

	models, err := s.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, "a", models[0].ID)
	assert.Equal(t, "c", models[2].ID)

	p.listErr = errors.New("offline")
	_, err = s.Models(context.Background())
	assert.ErrorIs(t, err, p.listErr)
}
