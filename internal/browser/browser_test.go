package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "en-US", opts.Locale)
}

func TestLaunchArgs(t *testing.T) {
	opts := DefaultOptions()
	args := launchArgs(opts)

	for _, want := range []string{
		"--disable-blink-features=AutomationControlled",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-accelerated-2d-canvas",
		"--window-size=1920,1080",
	} {
		assert.Contains(t, args, want)
	}
	assert.Contains(t, args, "--user-agent="+opts.UserAgent)
}

func TestDefaultRenderOptions(t *testing.T) {
	opts := DefaultRenderOptions()

	assert.Equal(t, 60*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 5*time.Second, opts.SettleDelay)
	assert.Equal(t, `[data-test-id="pin"]`, opts.WaitSelector)
	assert.Equal(t, 10*time.Second, opts.WaitTimeout)
	assert.Equal(t, 3, opts.ScrollCount)
	assert.Equal(t, 2*time.Second, opts.ScrollDelay)
}

func TestSleep(t *testing.T) {
	t.Run("Elapses", func(t *testing.T) {
		start := time.Now()
		assert.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	})

	t.Run("Zero duration", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})
}

type countingCloser struct {
	closes atomic.Int32
	err    error
}

func (c *countingCloser) Close() error {
	c.closes.Add(1)
	return c.err
}

func TestCloseOnCancel_ClosesWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closer := &countingCloser{}

	release := closeOnCancel(ctx, closer, slog.Default())
	assert.Zero(t, closer.closes.Load())

	cancel()
	assert.Eventually(t, func() bool { return closer.closes.Load() == 1 }, time.Second, 5*time.Millisecond)

	release()
	assert.Equal(t, int32(1), closer.closes.Load(), "release after cancellation does not close twice")
}

func TestCloseOnCancel_ReleaseClosesOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	closer := &countingCloser{err: errors.New("already gone")}

	release := closeOnCancel(ctx, closer, slog.Default())
	release()
	assert.Equal(t, int32(1), closer.closes.Load())

	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), closer.closes.Load(), "cancelling after release is a no-op")
}

func TestCloseOnCancel_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	closer := &countingCloser{}

	release := closeOnCancel(ctx, closer, slog.Default())
	assert.Eventually(t, func() bool { return closer.closes.Load() == 1 }, time.Second, 5*time.Millisecond)
	release()
	assert.Equal(t, int32(1), closer.closes.Load())
}
