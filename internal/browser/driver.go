// Package browser drives a real Chromium instance over the DevTools
// protocol. The Driver satisfies every capability surface the agent loop
// consumes: coordinate primitives, page-level navigation, frame-scoped
// element queries, and structured page snapshots.
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/config"
)

// Driver owns one browser process and one page target. It is not safe for
// concurrent use; the turn loop that drives it is single-threaded.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewDriver launches the browser process and opens a blank page target.
// Launch failures surface here, not on the first action.
func NewDriver(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	d := &Driver{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	if err := chromedp.Run(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	d.logger.Info("Browser launched.",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return d, nil
}

// Close tears down the page target and the browser process.
func (d *Driver) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
}

// run executes chromedp actions against the page target, honoring both the
// driver lifecycle and the caller's context, with a per-operation timeout.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := combineContext(d.ctx, ctx)
	defer cancel()

	if timeout > 0 {
		var tcancel context.CancelFunc
		opCtx, tcancel = context.WithTimeout(opCtx, timeout)
		defer tcancel()
	}

	return chromedp.Run(opCtx, actions...)
}

// combineContext derives a context from primary that is also canceled when
// secondary is. The chromedp target handle lives in primary's values, so
// primary must be the parent.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// -- Computer implementation --

func (d *Driver) Environment() schemas.Environment { return schemas.EnvBrowser }

func (d *Driver) Dimensions() (int, int) { return d.cfg.Width, d.cfg.Height }

// Screenshot captures the current viewport as base64-encoded PNG.
func (d *Driver) Screenshot(ctx context.Context) (string, error) {
	var buf []byte
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (d *Driver) Click(ctx context.Context, x, y int, button string) error {
	if button == "" {
		button = "left"
	}
	return d.run(ctx, d.cfg.ActionTimeout,
		chromedp.MouseClickXY(float64(x), float64(y), chromedp.Button(button)))
}

func (d *Driver) DoubleClick(ctx context.Context, x, y int) error {
	return d.run(ctx, d.cfg.ActionTimeout,
		chromedp.MouseClickXY(float64(x), float64(y), chromedp.ClickCount(2)))
}

// Scroll dispatches a mouse wheel event at the given position.
func (d *Driver) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	p := input.DispatchMouseEvent(input.MouseWheel, float64(x), float64(y)).
		WithDeltaX(float64(scrollX)).
		WithDeltaY(float64(scrollY))
	return d.run(ctx, d.cfg.ActionTimeout, p)
}

// Type sends the text through the keyboard event pipeline so page-level key
// handlers observe it.
func (d *Driver) Type(ctx context.Context, text string) error {
	return d.run(ctx, d.cfg.ActionTimeout, chromedp.KeyEvent(text))
}

func (d *Driver) Wait(ctx context.Context, ms int) error {
	return waitMillis(ctx, d.ctx, ms)
}

func (d *Driver) Move(ctx context.Context, x, y int) error {
	return d.run(ctx, d.cfg.ActionTimeout,
		input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)))
}

// Keypress presses a key combination: every entry except the last is treated
// as a modifier when it names one.
func (d *Driver) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	var modifiers input.Modifier
	for _, k := range keys[:len(keys)-1] {
		m, ok := modifierFor(k)
		if !ok {
			return fmt.Errorf("unsupported modifier key %q", k)
		}
		modifiers |= m
	}

	key := mapKeyName(keys[len(keys)-1])
	keyDown := input.DispatchKeyEvent(input.KeyDown).WithModifiers(modifiers).WithKey(key)
	keyUp := input.DispatchKeyEvent(input.KeyUp).WithModifiers(modifiers).WithKey(key)
	return d.run(ctx, d.cfg.ActionTimeout, keyDown, keyUp)
}

// Drag presses at the first point, moves through the rest, and releases at
// the last.
func (d *Driver) Drag(ctx context.Context, path []schemas.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("drag path needs at least two points, got %d", len(path))
	}

	actions := []chromedp.Action{
		input.DispatchMouseEvent(input.MousePressed, float64(path[0].X), float64(path[0].Y)).
			WithButton(input.Left).WithClickCount(1),
	}
	for _, p := range path[1:] {
		actions = append(actions,
			input.DispatchMouseEvent(input.MouseMoved, float64(p.X), float64(p.Y)).
				WithButton(input.Left))
	}
	last := path[len(path)-1]
	actions = append(actions,
		input.DispatchMouseEvent(input.MouseReleased, float64(last.X), float64(last.Y)).
			WithButton(input.Left).WithClickCount(1))

	return d.run(ctx, d.cfg.ActionTimeout, actions...)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, d.cfg.ActionTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read current location: %w", err)
	}
	return loc, nil
}

// -- PageDriver implementation --

// Navigate loads the URL and waits for the page to settle.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Info("Navigating.", zap.String("url", url))
	if err := d.run(ctx, d.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to '%s': %w", url, err)
	}
	return d.stabilize(ctx)
}

func (d *Driver) NavigateBack(ctx context.Context) error {
	if err := d.run(ctx, d.cfg.NavigationTimeout, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("failed to navigate back: %w", err)
	}
	return d.stabilize(ctx)
}

func (d *Driver) NavigateForward(ctx context.Context) error {
	if err := d.run(ctx, d.cfg.NavigationTimeout, chromedp.NavigateForward()); err != nil {
		return fmt.Errorf("failed to navigate forward: %w", err)
	}
	return d.stabilize(ctx)
}

func (d *Driver) Reload(ctx context.Context) error {
	if err := d.run(ctx, d.cfg.NavigationTimeout, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return d.stabilize(ctx)
}

func (d *Driver) WaitMillis(ctx context.Context, ms int) error {
	return waitMillis(ctx, d.ctx, ms)
}

// PressKey presses one key by name, without modifiers.
func (d *Driver) PressKey(ctx context.Context, key string) error {
	return d.Keypress(ctx, []string{key})
}

// ScrollBy scrolls the page vertically from the viewport center.
func (d *Driver) ScrollBy(ctx context.Context, deltaY int) error {
	return d.Scroll(ctx, d.cfg.Width/2, d.cfg.Height/2, 0, deltaY)
}

// stabilize gives the page a quiet period after navigation so late resources
// and scripts can settle before the next observation.
func (d *Driver) stabilize(ctx context.Context) error {
	wait := d.cfg.PostLoadWait
	if wait <= 0 {
		return nil
	}
	return waitMillis(ctx, d.ctx, int(wait.Milliseconds()))
}

// waitMillis pauses, honoring both the operation and the lifecycle context.
func waitMillis(ctx, lifecycle context.Context, ms int) error {
	if ms <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-lifecycle.Done():
		return lifecycle.Err()
	}
}
