package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalens-ai/analytics-console/pkg/logger"
)

// flippableChecker is a probe whose outcome the test controls.
type flippableChecker struct {
	mu  sync.Mutex
	err error
}

func (c *flippableChecker) check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *flippableChecker) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func TestPollerStartsUnknown(t *testing.T) {
	p := NewPoller(func(ctx context.Context) error { return nil }, time.Minute, logger.NewNop())
	assert.Equal(t, StatusUnknown, p.Status())
}

func TestPollerProbesImmediately(t *testing.T) {
	p := NewPoller(func(ctx context.Context) error { return nil }, time.Hour, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return p.Status() == StatusOnline
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestPollerFlipsAndNotifies(t *testing.T) {
	checker := &flippableChecker{}
	p := NewPoller(checker.check, 10*time.Millisecond, logger.NewNop())

	var mu sync.Mutex
	var changes []Status
	p.OnChange(func(s Status) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return p.Status() == StatusOnline
	}, time.Second, 5*time.Millisecond)

	checker.set(errors.New("connection refused"))
	require.Eventually(t, func() bool {
		return p.Status() == StatusOffline
	}, time.Second, 5*time.Millisecond)

	checker.set(nil)
	require.Eventually(t, func() bool {
		return p.Status() == StatusOnline
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	// Each flip fires exactly one notification, steady states none.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusOnline, StatusOffline, StatusOnline}, changes)
}
