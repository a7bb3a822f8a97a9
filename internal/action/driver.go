package action

import "context"

// PageDriver is the page-level capability surface browser actions execute
// against. It is satisfied by the chromedp session; actions never see the
// driver's concrete type.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	NavigateBack(ctx context.Context) error
	NavigateForward(ctx context.Context) error
	Reload(ctx context.Context) error
	// WaitMillis pauses for the given duration, honoring ctx cancellation.
	WaitMillis(ctx context.Context, ms int) error
	PressKey(ctx context.Context, key string) error
	// ScrollBy scrolls the page vertically; negative deltas scroll up.
	ScrollBy(ctx context.Context, deltaY int) error
}

// Element is one live, resolved element handle. Interaction actions operate
// exclusively through it.
type Element interface {
	Click(ctx context.Context) error
	// Fill sets the element's value, clearing any existing content first when
	// clearFirst is set.
	Fill(ctx context.Context, value string, clearFirst bool) error
	SetChecked(ctx context.Context, checked bool) error
	// SelectOption picks a dropdown option by visible value or by option id.
	// Drivers report the available options in the error when neither matches.
	SelectOption(ctx context.Context, value, optionID string) error
	TagName(ctx context.Context) (string, error)
}

// Scope is one frame-level query surface of the live page. The page itself
// is the root scope; each embedded frame is a nested one.
type Scope interface {
	// Frame descends into the embedded frame matching the selector and
	// returns the scope of its document.
	Frame(ctx context.Context, selector string) (Scope, error)
	// Query counts the elements matching the selector within the scope. When
	// the count is exactly one, the returned Element is the live handle;
	// otherwise it is nil.
	Query(ctx context.Context, selector string) (Element, int, error)
}
