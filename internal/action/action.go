// Package action defines the typed protocol of UI operations the agent may
// request, the closed registry that parses raw payloads into concrete
// variants, and the locator-resolution algorithm that turns an abstract
// Selector into exactly one live element.
package action

import (
	"context"
	"sort"
	"strings"

	json "github.com/json-iterator/go"
)

// Action is one typed, executable UI operation requested by the model. The
// unexported template method keeps the union closed: only variants declared
// in this package can satisfy the interface, and every one of them is
// registered in NewRegistry.
type Action interface {
	// Type returns the stable discriminator tag of the variant.
	Type() string
	// Validate checks type-specific fields after decoding.
	Validate() error
	// messageTemplate returns the progress-message template for the variant.
	// It contains a single {suffix} token substituted with "ing" or "ed".
	messageTemplate() string
}

// BrowserAction is an action executed against the page as a whole, always
// available regardless of the current content.
type BrowserAction interface {
	Action
	Execute(ctx context.Context, d PageDriver) error
}

// InteractionAction is an action executed against one resolved element of
// the current page.
type InteractionAction interface {
	Action
	// Target returns the element identifier and, when present, the resolved
	// selectors attached to the payload.
	Target() (id string, sel *Selector)
	ExecuteElement(ctx context.Context, d PageDriver, el Element) error
}

// ExecutionMessage renders the operator-visible progress string for an
// action. The same per-variant template serves both tenses by substituting
// the suffix token.
func ExecutionMessage(a Action, past bool) string {
	suffix := "ing"
	if past {
		suffix = "ed"
	}
	return strings.ReplaceAll(a.messageTemplate(), "{suffix}", suffix)
}

// interactionFields is the shared shape of every interaction variant.
type interactionFields struct {
	ID        string    `json:"id"`
	Selectors *Selector `json:"selectors,omitempty"`
	TextLabel string    `json:"text_label,omitempty"`
	// PressEnter requests an Enter key press after the interaction.
	PressEnter bool `json:"press_enter,omitempty"`
}

func (f interactionFields) Target() (string, *Selector) { return f.ID, f.Selectors }

// Registry maps discriminator tags to action variant factories. It is built
// once at process start and closed over all declared variants; there is no
// late registration.
type Registry struct {
	factories map[string]func() Action
}

// NewRegistry constructs the registry over the full, closed action set.
// Adding a variant means adding it here; the registry tests enumerate
// Types() so an unregistered variant fails fast.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]func() Action{}}
	for _, f := range []func() Action{
		func() Action { return &GotoAction{} },
		func() Action { return &GoBackAction{} },
		func() Action { return &GoForwardAction{} },
		func() Action { return &ReloadAction{} },
		func() Action { return &WaitAction{} },
		func() Action { return &PressKeyAction{} },
		func() Action { return &ScrollUpAction{} },
		func() Action { return &ScrollDownAction{} },
		func() Action { return &ClickAction{} },
		func() Action { return &FillAction{} },
		func() Action { return &CheckAction{} },
		func() Action { return &SelectDropdownOptionAction{} },
		func() Action { return &CompletionAction{} },
		func() Action { return &HelpAction{} },
	} {
		proto := f()
		r.factories[proto.Type()] = f
	}
	return r
}

// Types returns the registered discriminator tags, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Parse decodes a raw action payload into its concrete typed variant. An
// unknown tag or an invalid field yields a *ValidationError; the payload is
// validated exactly once, here.
func (r *Registry) Parse(raw []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if head.Type == "" {
		return nil, &ValidationError{Field: "type", Reason: "missing discriminator"}
	}

	factory, ok := r.factories[head.Type]
	if !ok {
		return nil, &ValidationError{Tag: head.Type, Reason: "not a registered action"}
	}

	a := factory()
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, &ValidationError{Tag: head.Type, Field: "payload", Reason: err.Error()}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
