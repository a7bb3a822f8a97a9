package schemas

import (
	"encoding/json"
)

// -- Conversation Item Schemas --

// ItemType enumerates the kinds of items that flow between the agent loop and
// the reasoning model. Every model output item and every synthesized output
// the agent appends is one of these.
type ItemType string

const (
	ItemMessage            ItemType = "message"
	ItemFunctionCall       ItemType = "function_call"
	ItemFunctionCallOutput ItemType = "function_call_output"
	// ItemBrowserCall carries a typed action payload for browser-flavor models.
	ItemBrowserCall       ItemType = "browser_call"
	ItemBrowserCallOutput ItemType = "browser_call_output"
	// ItemComputerCall carries a coordinate-based action for computer-use models.
	ItemComputerCall       ItemType = "computer_call"
	ItemComputerCallOutput ItemType = "computer_call_output"
)

// Role values used on message items.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentPart is one element of a message item's content list.
type ContentPart struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// SafetyCheck is a warning attached by the model to a pending call. Every
// check must be acknowledged before the call may execute; a rejected check is
// fatal to the turn.
type SafetyCheck struct {
	ID      string `json:"id,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// CallOutput is the observation payload of a call-output item. For function
// calls only Text is set; for UI calls it carries the post-action screenshot,
// the current location for browser-like environments, and (for browser-flavor
// calls) a structured page snapshot.
type CallOutput struct {
	Type       string    `json:"type,omitempty"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	CurrentURL string    `json:"current_url,omitempty"`
	Snapshot   *PageNode `json:"dom,omitempty"`
}

// Item is one entry of the conversation transcript. The Type discriminator
// selects which of the optional fields are meaningful. Call outputs
// correlate to their originating call through CallID.
type Item struct {
	Type    ItemType      `json:"type,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`

	// Call correlation and payloads.
	CallID    string          `json:"call_id,omitempty"`
	Name      string          `json:"name,omitempty"`      // function_call: method name on the driver
	Arguments json.RawMessage `json:"arguments,omitempty"` // function_call: JSON-encoded argument object
	Action    json.RawMessage `json:"action,omitempty"`    // browser_call / computer_call payload

	PendingSafetyChecks      []SafetyCheck `json:"pending_safety_checks,omitempty"`
	AcknowledgedSafetyChecks []SafetyCheck `json:"acknowledged_safety_checks,omitempty"`

	Output *CallOutput `json:"output,omitempty"`
}

// Text returns the concatenated text content of a message item.
func (it Item) Text() string {
	if len(it.Content) == 0 {
		return ""
	}
	out := ""
	for _, part := range it.Content {
		out += part.Text
	}
	return out
}

// UserMessage builds a message item carrying plain user text.
func UserMessage(text string) Item {
	return Item{
		Type:    ItemMessage,
		Role:    RoleUser,
		Content: []ContentPart{{Type: "input_text", Text: text}},
	}
}

// AssistantMessage builds a terminal assistant message. The turn controller
// appends one of these when a completion or help action ends the turn.
func AssistantMessage(text string) Item {
	return Item{
		Type:    ItemMessage,
		Role:    RoleAssistant,
		Content: []ContentPart{{Type: "output_text", Text: text}},
	}
}

// Usage reports the token accounting of a single model response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
