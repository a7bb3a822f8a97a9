package schemas_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarops/bua/api/schemas"
)

func TestItemTextConcatenatesContentParts(t *testing.T) {
	item := schemas.Item{
		Type: schemas.ItemMessage,
		Role: schemas.RoleAssistant,
		Content: []schemas.ContentPart{
			{Type: "output_text", Text: "hello "},
			{Type: "output_text", Text: "world"},
		},
	}
	assert.Equal(t, "hello world", item.Text())
	assert.Empty(t, schemas.Item{}.Text())
}

func TestMessageConstructors(t *testing.T) {
	user := schemas.UserMessage("open the portal")
	assert.Equal(t, schemas.ItemMessage, user.Type)
	assert.Equal(t, schemas.RoleUser, user.Role)
	assert.Equal(t, "open the portal", user.Text())

	answer := schemas.AssistantMessage("done")
	assert.Equal(t, schemas.RoleAssistant, answer.Role)
	assert.Equal(t, "done", answer.Text())
}

func TestItemMarshalOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(schemas.UserMessage("hi"))
	require.NoError(t, err)

	text := string(data)
	assert.NotContains(t, text, "pending_safety_checks")
	assert.NotContains(t, text, "call_id")
	assert.NotContains(t, text, "output")
}

func TestCallOutputItemRoundTrip(t *testing.T) {
	idx := 3
	original := schemas.Item{
		Type:   schemas.ItemBrowserCallOutput,
		CallID: "call-7",
		AcknowledgedSafetyChecks: []schemas.SafetyCheck{
			{ID: "sc-1", Code: "sensitive_domain", Message: "banking portal"},
		},
		Output: &schemas.CallOutput{
			Type:       "bua_output",
			ImageURL:   "data:image/png;base64,AAAA",
			CurrentURL: "https://portal.test/form",
			Snapshot: &schemas.PageNode{
				Type:    "ELEMENT",
				TagName: "body",
				Children: []*schemas.PageNode{
					{Type: "ELEMENT", TagName: "button", IsVisible: true, IsInteractive: true, HighlightIndex: &idx},
				},
			},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded schemas.Item
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("item changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestPageNodeWalkVisitsDepthFirst(t *testing.T) {
	tree := &schemas.PageNode{
		TagName: "body",
		Children: []*schemas.PageNode{
			{TagName: "div", Children: []*schemas.PageNode{{TagName: "a"}}},
			{TagName: "footer"},
		},
	}

	var tags []string
	tree.Walk(func(n *schemas.PageNode) bool {
		tags = append(tags, n.TagName)
		return true
	})
	if diff := cmp.Diff([]string{"body", "div", "a", "footer"}, tags); diff != "" {
		t.Errorf("unexpected traversal order (-want +got):\n%s", diff)
	}
}

func TestPageNodeWalkStopsWhenAsked(t *testing.T) {
	tree := &schemas.PageNode{
		TagName: "body",
		Children: []*schemas.PageNode{
			{TagName: "div"},
			{TagName: "footer"},
		},
	}

	var visited int
	tree.Walk(func(n *schemas.PageNode) bool {
		visited++
		return n.TagName != "div"
	})
	assert.Equal(t, 2, visited)
}
