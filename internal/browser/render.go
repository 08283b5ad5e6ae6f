package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RenderOptions describe how long to let a client-rendered page settle.
type RenderOptions struct {
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	WaitSelector      string
	WaitTimeout       time.Duration
	ScrollCount       int
	ScrollDelay       time.Duration
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		NavigationTimeout: 60 * time.Second,
		SettleDelay:       5 * time.Second,
		WaitSelector:      `[data-test-id="pin"]`,
		WaitTimeout:       10 * time.Second,
		ScrollCount:       3,
		ScrollDelay:       2 * time.Second,
	}
}

// Renderer launches a fresh browser per call and returns the page HTML
// after client-side rendering and lazy loading have had time to run.
type Renderer struct {
	Launch  *Options
	Options RenderOptions
	logger  *slog.Logger
}

func NewRenderer(browserOpts *Options, renderOpts RenderOptions) *Renderer {
	return &Renderer{
		Launch:  browserOpts,
		Options: renderOpts,
		logger:  slog.Default().With("component", "renderer"),
	}
}

func (r *Renderer) Render(ctx context.Context, url string) (html string, err error) {
	b, err := New(r.Launch)
	if err != nil {
		return "", err
	}
	release := closeOnCancel(ctx, b, r.logger)
	defer release()
	defer func() {
		// a teardown mid-call surfaces as a playwright error
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("render %s: %w", url, ctx.Err())
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return "", err
	}

	opts := r.Options
	r.logger.Info("navigating", "url", url)
	if err := b.Navigate(page, url, opts.NavigationTimeout); err != nil {
		return "", err
	}

	if err := Sleep(ctx, opts.SettleDelay); err != nil {
		return "", err
	}

	if opts.WaitSelector != "" {
		_, err := page.WaitForSelector(opts.WaitSelector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(float64(opts.WaitTimeout.Milliseconds())),
		})
		if err != nil {
			r.logger.Warn("content selector not found, continuing", "selector", opts.WaitSelector)
		}
	}

	if err := b.ScrollViewport(ctx, page, opts.ScrollCount, opts.ScrollDelay); err != nil {
		return "", err
	}

	html, err = page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	return html, nil
}

// closeOnCancel closes c as soon as ctx is done, so a cancelled render does
// not leave a browser process behind while playwright finishes a blocking
// call. The returned release closes c once if the cancellation did not.
func closeOnCancel(ctx context.Context, c io.Closer, logger *slog.Logger) (release func()) {
	closeIt := func(reason string) {
		if err := c.Close(); err != nil {
			logger.Error("failed to close browser", "reason", reason, "error", err)
		}
	}

	stop := context.AfterFunc(ctx, func() { closeIt("context done") })
	return func() {
		if stop() {
			closeIt("render finished")
		}
	}
}
