// Package shutdown closes process resources in reverse order of acquisition.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout is the default graceful shutdown timeout.
const DefaultTimeout = 30 * time.Second

// Func releases one resource. It should return within the context deadline.
type Func func(ctx context.Context) error

type component struct {
	name string
	fn   Func
}

// Coordinator releases registered resources once, last registered first.
type Coordinator struct {
	mu         sync.Mutex
	components []component
	timeout    time.Duration
	logger     *slog.Logger
	once       sync.Once
	err        error
}

// NewCoordinator creates a coordinator. A non-positive timeout uses
// DefaultTimeout.
func NewCoordinator(timeout time.Duration, logger *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{timeout: timeout, logger: logger}
}

// Register adds a resource to release during shutdown.
func (c *Coordinator) Register(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = append(c.components, component{name: name, fn: fn})
}

// RegisterCloser adds a resource released by a Close method.
func (c *Coordinator) RegisterCloser(name string, closer interface{ Close() error }) {
	c.Register(name, func(context.Context) error { return closer.Close() })
}

// Shutdown releases every resource in reverse order, continuing past
// failures. Later calls return the result of the first.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		c.mu.Lock()
		components := append([]component(nil), c.components...)
		c.mu.Unlock()

		var errs []error
		for i := len(components) - 1; i >= 0; i-- {
			comp := components[i]
			if err := ctx.Err(); err != nil {
				c.logger.Warn("shutdown timeout exceeded, skipping component", "name", comp.name)
				errs = append(errs, fmt.Errorf("%s: %w", comp.name, err))
				continue
			}
			if err := comp.fn(ctx); err != nil {
				c.logger.Error("component shutdown error", "name", comp.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", comp.name, err))
				continue
			}
			c.logger.Info("component shutdown complete", "name", comp.name)
		}
		c.err = errors.Join(errs...)
	})
	return c.err
}
