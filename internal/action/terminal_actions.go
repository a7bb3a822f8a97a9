package action

import "fmt"

// -- Terminal variants --
//
// Terminal actions end the turn instead of touching the UI. The turn
// controller recognizes them by type assertion and emits an assistant
// message from their payload.

// CompletionAction reports that the task is finished, with an answer for the
// operator.
type CompletionAction struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer"`
}

func (a *CompletionAction) Type() string { return "completion" }

func (a *CompletionAction) Validate() error {
	if a.Answer == "" {
		return &ValidationError{Tag: a.Type(), Field: "answer", Reason: "must not be empty"}
	}
	return nil
}

func (a *CompletionAction) messageTemplate() string {
	return fmt.Sprintf("Complet{suffix} the task, answer: %s", a.Answer)
}

// HelpAction escalates to the operator when the agent cannot proceed alone.
type HelpAction struct {
	Reason string `json:"reason"`
}

func (a *HelpAction) Type() string { return "help" }

func (a *HelpAction) Validate() error {
	if a.Reason == "" {
		return &ValidationError{Tag: a.Type(), Field: "reason", Reason: "must not be empty"}
	}
	return nil
}

func (a *HelpAction) messageTemplate() string {
	return fmt.Sprintf("Request{suffix} operator help: %s", a.Reason)
}
