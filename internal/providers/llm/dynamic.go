package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

type ModelValidator interface {
	ValidateModel(provider, model string) error
}

// DynamicProvider forwards to the configured provider and lets the model be
// swapped at runtime.
type DynamicProvider struct {
	config  core.ProviderConfig
	catalog ModelValidator
	current atomic.Value
	mu      sync.RWMutex
}

func NewDynamicProvider(
	ctx context.Context,
	config core.ProviderConfig,
	catalog ModelValidator,
) (*DynamicProvider, error) {
	d := &DynamicProvider{
		config:  config,
		catalog: catalog,
	}

	if err := d.validate(config.GetModel()); err != nil {
		return nil, &core.ConfigurationError{Field: "LLM_MODEL", Err: err}
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, &core.ConfigurationError{Field: "LLM_PROVIDER", Err: err}
	}

	d.current.Store(provider)
	return d, nil
}

func (d *DynamicProvider) validate(model string) error {
	if d.catalog == nil {
		if model == "" {
			return errors.New("model name is empty")
		}
		return nil
	}
	return d.catalog.ValidateModel(d.config.GetProvider(), model)
}

// Chat sends the turns to the active provider. Failures come back as
// *core.TransportError.
func (d *DynamicProvider) Chat(ctx context.Context, history []core.Turn) (core.Turn, error) {
	provider := d.current.Load().(core.AIProvider)

	if event := log.FromCtx(ctx).Debug(); event.Enabled() {
		event.
			Str("model", d.GetModel()).
			Int("turns", len(history)).
			Int("prompt_tokens", EstimateTokens(history)).
			Msg("Sending conversation")
	}

	reply, err := provider.Chat(ctx, history)
	if err != nil {
		return core.Turn{}, &core.TransportError{Provider: d.Name(), Err: err}
	}
	return reply, nil
}

func (d *DynamicProvider) Models(ctx context.Context) ([]core.Model, error) {
	provider := d.current.Load().(core.AIProvider)
	return provider.Models(ctx)
}

func (d *DynamicProvider) Name() string {
	return d.config.GetProvider()
}

// GetModel (thread-safe)
func (d *DynamicProvider) GetModel() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config.GetModel()
}

// SetModel validates model against the catalog, then swaps in a provider
// using it. The previous model stays active on failure.
func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validate(model); err != nil {
		return err
	}

	previous := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	newProvider, err := NewProvider(ctx, d.config)
	if err != nil {
		_ = d.config.SetModel(previous)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(newProvider)
	return nil
}
