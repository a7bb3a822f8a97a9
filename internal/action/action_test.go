package action_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarops/bua/internal/action"
)

func TestRegistryParseRoundTripsTag(t *testing.T) {
	reg := action.NewRegistry()

	// Minimal well-formed payload per registered tag.
	payloads := map[string]string{
		"goto":            `{"type":"goto","url":"https://example.com"}`,
		"go_back":         `{"type":"go_back"}`,
		"go_forward":      `{"type":"go_forward"}`,
		"reload":          `{"type":"reload"}`,
		"wait":            `{"type":"wait","time_ms":250}`,
		"press_key":       `{"type":"press_key","key":"Enter"}`,
		"scroll_up":       `{"type":"scroll_up","amount":100}`,
		"scroll_down":     `{"type":"scroll_down"}`,
		"click":           `{"type":"click","id":"B3"}`,
		"fill":            `{"type":"fill","id":"I1","value":"hello"}`,
		"check":           `{"type":"check","id":"C2","value":true}`,
		"select_dropdown": `{"type":"select_dropdown","id":"S1","value":"Option A"}`,
		"completion":      `{"type":"completion","success":true,"answer":"done"}`,
		"help":            `{"type":"help","reason":"captcha encountered"}`,
	}

	// Every registered tag must have a payload here; a new variant without
	// one fails the test immediately.
	require.ElementsMatch(t, reg.Types(), keys(payloads))

	for tag, payload := range payloads {
		t.Run(tag, func(t *testing.T) {
			a, err := reg.Parse([]byte(payload))
			require.NoError(t, err)
			assert.Equal(t, tag, a.Type())
		})
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRegistryParseFailures(t *testing.T) {
	reg := action.NewRegistry()

	tests := []struct {
		name    string
		payload string
	}{
		{"unknown tag", `{"type":"teleport"}`},
		{"missing tag", `{"url":"https://example.com"}`},
		{"not json", `{{`},
		{"goto without url", `{"type":"goto"}`},
		{"click without id", `{"type":"click"}`},
		{"fill without id", `{"type":"fill","value":"x"}`},
		{"wait negative", `{"type":"wait","time_ms":-5}`},
		{"scroll zero amount", `{"type":"scroll_down","amount":0}`},
		{"select without value or option", `{"type":"select_dropdown","id":"S1"}`},
		{"completion without answer", `{"type":"completion","success":true}`},
		{"help without reason", `{"type":"help"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Parse([]byte(tt.payload))
			require.Error(t, err)
			var verr *action.ValidationError
			assert.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
		})
	}
}

func TestExecutionMessageTenses(t *testing.T) {
	reg := action.NewRegistry()

	a, err := reg.Parse([]byte(`{"type":"goto","url":"https://portal.example"}`))
	require.NoError(t, err)

	assert.Equal(t, "Navigating to 'https://portal.example' in current tab", action.ExecutionMessage(a, false))
	assert.Equal(t, "Navigated to 'https://portal.example' in current tab", action.ExecutionMessage(a, true))
}

func TestExecutionMessageUsesTextLabel(t *testing.T) {
	reg := action.NewRegistry()

	withLabel, err := reg.Parse([]byte(`{"type":"click","id":"B3","text_label":"Submit"}`))
	require.NoError(t, err)
	assert.Equal(t, "Clicking on the element with text label: Submit", action.ExecutionMessage(withLabel, false))

	withoutLabel, err := reg.Parse([]byte(`{"type":"click","id":"B3"}`))
	require.NoError(t, err)
	assert.Equal(t, "Clicking on element B3", action.ExecutionMessage(withoutLabel, false))
}

func TestInteractionTargetCarriesSelectors(t *testing.T) {
	reg := action.NewRegistry()

	payload := `{
		"type": "fill",
		"id": "I7",
		"value": "42",
		"selectors": {
			"css_selector": "#amount",
			"xpath_selector": "//*[@id='amount']",
			"in_iframe": true,
			"iframe_parent_css_selectors": ["iframe#form"]
		}
	}`
	a, err := reg.Parse([]byte(payload))
	require.NoError(t, err)

	ia, ok := a.(action.InteractionAction)
	require.True(t, ok)

	id, sel := ia.Target()
	assert.Equal(t, "I7", id)
	require.NotNil(t, sel)
	assert.Equal(t, "#amount", sel.CSSSelector)
	assert.True(t, sel.InIFrame)
	assert.Equal(t, []string{"iframe#form"}, sel.IFrameParentSelectors)
}

func TestSelectorCandidatePriority(t *testing.T) {
	sel := action.Selector{
		CSSSelector:    "#login",
		XPathSelector:  "//*[@id='login']",
		NativeSelector: "internal:login",
	}
	assert.Equal(t, []string{"internal:login", "#login", "//*[@id='login']"}, sel.Candidates())

	sel.NativeSelector = ""
	assert.Equal(t, []string{"#login", "//*[@id='login']"}, sel.Candidates())
}

func TestActionJSONStaysWireCompatible(t *testing.T) {
	// Decoding and re-encoding a payload must preserve its fields so
	// transcripts replay cleanly.
	reg := action.NewRegistry()
	a, err := reg.Parse([]byte(`{"type":"check","id":"C1","value":false}`))
	require.NoError(t, err)

	encoded, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"id":"C1"`)
}
