package core

import (
	"context"
	"time"
)

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	SetModel(model string) error
	GetAPIKey() string
	GetBaseURL() string
	GetTimeout() time.Duration
}

type GlobalState interface {
	ChangeModel(ctx context.Context, model string) error
	CurrentModel() string
}
