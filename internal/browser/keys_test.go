package browser

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/stretchr/testify/assert"
)

func TestMapKeyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"enter", "Enter"},
		{"ENTER", "Enter"},
		{"space", " "},
		{"page_down", "PageDown"},
		{"up", "ArrowUp"},
		{"a", "a"},
		{"A", "A"},
		{"F5", "F5"},
		// Unknown multi-character names pass through unchanged.
		{"MediaPlayPause", "MediaPlayPause"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapKeyName(tt.in), "key %q", tt.in)
	}
}

func TestModifierFor(t *testing.T) {
	m, ok := modifierFor("CTRL")
	assert.True(t, ok)
	assert.Equal(t, input.ModifierCtrl, m)

	m, ok = modifierFor("cmd")
	assert.True(t, ok)
	assert.Equal(t, input.ModifierMeta, m)

	_, ok = modifierFor("enter")
	assert.False(t, ok)
}

func TestIsXPathSelector(t *testing.T) {
	assert.True(t, isXPathSelector("//div[@id='x']"))
	assert.True(t, isXPathSelector("/html/body"))
	assert.True(t, isXPathSelector("(//a)[1]"))
	assert.True(t, isXPathSelector("./span"))
	assert.False(t, isXPathSelector("#main .item"))
	assert.False(t, isXPathSelector("input[name=q]"))
}
