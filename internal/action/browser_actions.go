package action

import (
	"context"
	"fmt"
	"strings"
)

// -- Browser-level variants --

// GotoAction navigates the current tab to a URL. Scheme-less URLs are
// upgraded to https.
type GotoAction struct {
	URL string `json:"url"`
}

func (a *GotoAction) Type() string { return "goto" }

func (a *GotoAction) Validate() error {
	if a.URL == "" {
		return &ValidationError{Tag: a.Type(), Field: "url", Reason: "must not be empty"}
	}
	return nil
}

func (a *GotoAction) Execute(ctx context.Context, d PageDriver) error {
	url := a.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return d.Navigate(ctx, url)
}

func (a *GotoAction) messageTemplate() string {
	return fmt.Sprintf("Navigat{suffix} to '%s' in current tab", a.URL)
}

// GoBackAction returns to the previous page in history.
type GoBackAction struct{}

func (a *GoBackAction) Type() string    { return "go_back" }
func (a *GoBackAction) Validate() error { return nil }

func (a *GoBackAction) Execute(ctx context.Context, d PageDriver) error {
	return d.NavigateBack(ctx)
}

func (a *GoBackAction) messageTemplate() string {
	return "Navigat{suffix} back to the previous page"
}

// GoForwardAction advances in history; only effective after a go_back.
type GoForwardAction struct{}

func (a *GoForwardAction) Type() string    { return "go_forward" }
func (a *GoForwardAction) Validate() error { return nil }

func (a *GoForwardAction) Execute(ctx context.Context, d PageDriver) error {
	return d.NavigateForward(ctx)
}

func (a *GoForwardAction) messageTemplate() string {
	return "Navigat{suffix} forward to the next page"
}

// ReloadAction reloads the current page.
type ReloadAction struct{}

func (a *ReloadAction) Type() string    { return "reload" }
func (a *ReloadAction) Validate() error { return nil }

func (a *ReloadAction) Execute(ctx context.Context, d PageDriver) error {
	return d.Reload(ctx)
}

func (a *ReloadAction) messageTemplate() string {
	return "Reload{suffix} the current page"
}

// WaitAction pauses for a given number of milliseconds.
type WaitAction struct {
	TimeMS int `json:"time_ms"`
}

func (a *WaitAction) Type() string { return "wait" }

func (a *WaitAction) Validate() error {
	if a.TimeMS < 0 {
		return &ValidationError{Tag: a.Type(), Field: "time_ms", Reason: "must not be negative"}
	}
	return nil
}

func (a *WaitAction) Execute(ctx context.Context, d PageDriver) error {
	return d.WaitMillis(ctx, a.TimeMS)
}

func (a *WaitAction) messageTemplate() string {
	return fmt.Sprintf("Wait{suffix} for %d milliseconds", a.TimeMS)
}

// PressKeyAction presses one keyboard key by name.
type PressKeyAction struct {
	Key string `json:"key"`
}

func (a *PressKeyAction) Type() string { return "press_key" }

func (a *PressKeyAction) Validate() error {
	if a.Key == "" {
		return &ValidationError{Tag: a.Type(), Field: "key", Reason: "must not be empty"}
	}
	return nil
}

func (a *PressKeyAction) Execute(ctx context.Context, d PageDriver) error {
	return d.PressKey(ctx, a.Key)
}

func (a *PressKeyAction) messageTemplate() string {
	return fmt.Sprintf("Press{suffix} the keyboard key: %s", a.Key)
}

// ScrollUpAction scrolls up by a pixel amount, or one full page when no
// amount is given.
type ScrollUpAction struct {
	Amount *int `json:"amount,omitempty"`
}

func (a *ScrollUpAction) Type() string    { return "scroll_up" }
func (a *ScrollUpAction) Validate() error { return validateScrollAmount(a.Type(), a.Amount) }

func (a *ScrollUpAction) Execute(ctx context.Context, d PageDriver) error {
	if a.Amount != nil {
		return d.ScrollBy(ctx, -*a.Amount)
	}
	return d.PressKey(ctx, "PageUp")
}

func (a *ScrollUpAction) messageTemplate() string {
	return fmt.Sprintf("Scroll{suffix} up by %s", scrollAmountLabel(a.Amount))
}

// ScrollDownAction scrolls down by a pixel amount, or one full page when no
// amount is given.
type ScrollDownAction struct {
	Amount *int `json:"amount,omitempty"`
}

func (a *ScrollDownAction) Type() string    { return "scroll_down" }
func (a *ScrollDownAction) Validate() error { return validateScrollAmount(a.Type(), a.Amount) }

func (a *ScrollDownAction) Execute(ctx context.Context, d PageDriver) error {
	if a.Amount != nil {
		return d.ScrollBy(ctx, *a.Amount)
	}
	return d.PressKey(ctx, "PageDown")
}

func (a *ScrollDownAction) messageTemplate() string {
	return fmt.Sprintf("Scroll{suffix} down by %s", scrollAmountLabel(a.Amount))
}

func validateScrollAmount(tag string, amount *int) error {
	if amount != nil && *amount <= 0 {
		return &ValidationError{Tag: tag, Field: "amount", Reason: "must be positive when set"}
	}
	return nil
}

func scrollAmountLabel(amount *int) string {
	if amount != nil {
		return fmt.Sprintf("%d pixels", *amount)
	}
	return "one page"
}
