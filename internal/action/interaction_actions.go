package action

import (
	"context"
	"fmt"
)

// -- Interaction variants --

// ClickAction clicks one element of the current page.
type ClickAction struct {
	interactionFields
}

func (a *ClickAction) Type() string { return "click" }

func (a *ClickAction) Validate() error {
	if a.ID == "" {
		return &ValidationError{Tag: a.Type(), Field: "id", Reason: "must not be empty"}
	}
	return nil
}

func (a *ClickAction) ExecuteElement(ctx context.Context, d PageDriver, el Element) error {
	if err := el.Click(ctx); err != nil {
		return err
	}
	if a.PressEnter {
		return d.PressKey(ctx, "Enter")
	}
	return nil
}

func (a *ClickAction) messageTemplate() string {
	if a.TextLabel == "" {
		return fmt.Sprintf("Click{suffix} on element %s", a.ID)
	}
	return fmt.Sprintf("Click{suffix} on the element with text label: %s", a.TextLabel)
}

// FillAction fills an input field with a value, clearing it first by default.
type FillAction struct {
	interactionFields
	Value           string `json:"value"`
	ClearBeforeFill *bool  `json:"clear_before_fill,omitempty"`
}

func (a *FillAction) Type() string { return "fill" }

func (a *FillAction) Validate() error {
	if a.ID == "" {
		return &ValidationError{Tag: a.Type(), Field: "id", Reason: "must not be empty"}
	}
	return nil
}

func (a *FillAction) ExecuteElement(ctx context.Context, d PageDriver, el Element) error {
	clear := true
	if a.ClearBeforeFill != nil {
		clear = *a.ClearBeforeFill
	}
	if err := el.Fill(ctx, a.Value, clear); err != nil {
		return err
	}
	if a.PressEnter {
		return d.PressKey(ctx, "Enter")
	}
	return nil
}

func (a *FillAction) messageTemplate() string {
	return fmt.Sprintf("Fill{suffix} the input field '%s' with the value: '%s'", a.TextLabel, a.Value)
}

// CheckAction checks or unchecks a checkbox.
type CheckAction struct {
	interactionFields
	Value bool `json:"value"`
}

func (a *CheckAction) Type() string { return "check" }

func (a *CheckAction) Validate() error {
	if a.ID == "" {
		return &ValidationError{Tag: a.Type(), Field: "id", Reason: "must not be empty"}
	}
	return nil
}

func (a *CheckAction) ExecuteElement(ctx context.Context, d PageDriver, el Element) error {
	return el.SetChecked(ctx, a.Value)
}

func (a *CheckAction) messageTemplate() string {
	if a.TextLabel == "" {
		return "Check{suffix} the checkbox"
	}
	return fmt.Sprintf("Check{suffix} the checkbox '%s'", a.TextLabel)
}

// SelectDropdownOptionAction selects an option from a standard select
// element, by option text or by option id.
type SelectDropdownOptionAction struct {
	interactionFields
	OptionID string `json:"option_id,omitempty"`
	Value    string `json:"value,omitempty"`
}

func (a *SelectDropdownOptionAction) Type() string { return "select_dropdown" }

func (a *SelectDropdownOptionAction) Validate() error {
	if a.ID == "" {
		return &ValidationError{Tag: a.Type(), Field: "id", Reason: "must not be empty"}
	}
	if a.OptionID == "" && a.Value == "" {
		return &ValidationError{Tag: a.Type(), Field: "value", Reason: "either value or option_id is required"}
	}
	return nil
}

func (a *SelectDropdownOptionAction) ExecuteElement(ctx context.Context, d PageDriver, el Element) error {
	tag, err := el.TagName(ctx)
	if err != nil {
		return err
	}
	if tag != "select" {
		return fmt.Errorf("element %s is not a standard select, use a different id or try clicking it instead", a.ID)
	}
	return el.SelectOption(ctx, a.Value, a.OptionID)
}

func (a *SelectDropdownOptionAction) messageTemplate() string {
	if a.TextLabel == "" {
		return "Select{suffix} the option from the dropdown"
	}
	return fmt.Sprintf("Select{suffix} the option '%s' from the dropdown '%s'", a.Value, a.TextLabel)
}
