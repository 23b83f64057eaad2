package srv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBackground_RunsUntilShutdown(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})
	svc := NewBackground(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(stopped)
	})

	ctx, cancel := context.WithCancel(context.Background())
	StartServices(ctx, []Service{svc})
	<-started

	cancel()
	ShutdownServices(ctx, []Service{svc})
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("background service ignored cancellation")
	}
}

func TestNewCleanup(t *testing.T) {
	var calls int
	svc := NewCleanup(func() error {
		calls++
		return errors.New("already closed")
	})

	assert.NoError(t, svc.Start(context.Background()))
	assert.EqualError(t, svc.Shutdown(context.Background()), "already closed")
	assert.Equal(t, 1, calls)
}
