package srv

import "context"

// funcService adapts plain functions to Service: run blocks in Start,
// cleanup is called on shutdown.
type funcService struct {
	run     func(ctx context.Context)
	cleanup func() error
}

func (f *funcService) Start(ctx context.Context) error {
	if f.run != nil {
		f.run(ctx)
	}
	return nil
}

func (f *funcService) Shutdown(ctx context.Context) error {
	if f.cleanup != nil {
		return f.cleanup()
	}
	return nil
}

// NewCleanup returns a Service that only releases a resource, such as the
// transcript database, on shutdown.
func NewCleanup(fn func() error) Service {
	return &funcService{cleanup: fn}
}

// NewBackground returns a Service running fn until the serve context ends.
// fn must return once ctx is done.
func NewBackground(fn func(ctx context.Context)) Service {
	return &funcService{run: fn}
}
