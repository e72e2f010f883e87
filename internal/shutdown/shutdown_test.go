package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownReverseOrder(t *testing.T) {
	c := NewCoordinator(time.Second, nil)
	var order []string
	for _, name := range []string{"store", "redis", "server"} {
		c.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	assert.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, []string{"server", "redis", "store"}, order)
}

func TestShutdownContinuesPastFailures(t *testing.T) {
	c := NewCoordinator(time.Second, nil)
	boom := errors.New("boom")
	closed := false
	c.Register("store", func(context.Context) error { closed = true; return nil })
	c.Register("redis", func(context.Context) error { return boom })

	err := c.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, closed)

	// Only the first call does any work.
	closed = false
	assert.ErrorIs(t, c.Shutdown(context.Background()), boom)
	assert.False(t, closed)
}

func TestShutdownTimeout(t *testing.T) {
	c := NewCoordinator(20*time.Millisecond, nil)
	skipped := true
	c.Register("store", func(context.Context) error { skipped = false; return nil })
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := c.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, skipped)
}

type closer struct{ closed bool }

func (c *closer) Close() error { c.closed = true; return nil }

func TestRegisterCloser(t *testing.T) {
	c := NewCoordinator(0, nil)
	res := &closer{}
	c.RegisterCloser("store", res)
	assert.NoError(t, c.Shutdown(context.Background()))
	assert.True(t, res.closed)
}
