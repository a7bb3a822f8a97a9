package browser

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/solarops/bua/api/schemas"
)

const fixtureHTML = `<html><head><title>t</title><script>var x=1;</script></head>
<body>
  <div id="main">
    <h1>Welcome</h1>
    <form>
      <input type="text" name="q" id="search">
      <input type="hidden" name="token" value="abc">
      <button type="submit">Go</button>
    </form>
    <a href="/about">About</a>
    <span style="display: none">invisible</span>
  </div>
</body></html>`

func parseFixture(t *testing.T) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(fixtureHTML))
	require.NoError(t, err)
	body := htmlquery.FindOne(doc, "//body")
	require.NotNil(t, body)
	return body
}

func TestBuildPageNodeAssignsHighlightIndicesInDocumentOrder(t *testing.T) {
	counter := 0
	root := buildPageNode(parseFixture(t), &counter)
	require.NotNil(t, root)

	var highlighted []string
	root.Walk(func(n *schemas.PageNode) bool {
		if n.HighlightIndex != nil {
			highlighted = append(highlighted, n.TagName)
		}
		return true
	})

	// The hidden input is not interactive; the visible input, the button,
	// and the link are, in document order.
	assert.Equal(t, []string{"input", "button", "a"}, highlighted)

	var indices []int
	root.Walk(func(n *schemas.PageNode) bool {
		if n.HighlightIndex != nil {
			indices = append(indices, *n.HighlightIndex)
		}
		return true
	})
	for i, idx := range indices {
		assert.Equal(t, i, idx)
	}
}

func TestBuildPageNodeSkipsScriptsAndEmptyText(t *testing.T) {
	counter := 0
	root := buildPageNode(parseFixture(t), &counter)
	require.NotNil(t, root)

	ok := root.Walk(func(n *schemas.PageNode) bool {
		assert.NotEqual(t, "script", n.TagName)
		if n.Type == "text" {
			assert.NotEmpty(t, n.Text)
		}
		return true
	})
	assert.True(t, ok)
}

func TestBuildPageNodeVisibilityRules(t *testing.T) {
	counter := 0
	root := buildPageNode(parseFixture(t), &counter)
	require.NotNil(t, root)

	byTag := func(match func(*schemas.PageNode) bool) *schemas.PageNode {
		var found *schemas.PageNode
		root.Walk(func(n *schemas.PageNode) bool {
			if match(n) {
				found = n
				return false
			}
			return true
		})
		return found
	}

	hidden := byTag(func(n *schemas.PageNode) bool {
		return n.TagName == "input" && n.Attributes["type"] == "hidden"
	})
	require.NotNil(t, hidden)
	assert.False(t, hidden.IsVisible)
	assert.False(t, hidden.IsInteractive)

	styled := byTag(func(n *schemas.PageNode) bool { return n.TagName == "span" })
	require.NotNil(t, styled)
	assert.False(t, styled.IsVisible)

	search := byTag(func(n *schemas.PageNode) bool {
		return n.TagName == "input" && n.Attributes["id"] == "search"
	})
	require.NotNil(t, search)
	assert.True(t, search.IsVisible)
	assert.True(t, search.IsEditable)
}

func TestIsEditableTreatsBareAttributesAsSet(t *testing.T) {
	// `<input readonly>` parses to an empty attribute value, so presence of
	// the key decides editability, not the value.
	doc, err := htmlquery.Parse(strings.NewReader(
		`<html><body>
		  <input id="plain" type="text">
		  <input id="locked" type="text" readonly>
		  <input id="off" type="text" disabled>
		  <textarea id="frozen" readonly=""></textarea>
		</body></html>`))
	require.NoError(t, err)

	counter := 0
	root := buildPageNode(htmlquery.FindOne(doc, "//body"), &counter)
	require.NotNil(t, root)

	editable := map[string]bool{}
	root.Walk(func(n *schemas.PageNode) bool {
		if id := n.Attributes["id"]; id != "" {
			editable[id] = n.IsEditable
		}
		return true
	})

	assert.True(t, editable["plain"])
	assert.False(t, editable["locked"])
	assert.False(t, editable["off"])
	assert.False(t, editable["frozen"])
}

func TestUniqueXPathAnchorsOnID(t *testing.T) {
	body := parseFixture(t)

	search := htmlquery.FindOne(body, "//input[@id='search']")
	require.NotNil(t, search)
	assert.Equal(t, "//*[@id='search']", uniqueXPath(search))

	// An element without an id anchors on the nearest ancestor with one.
	h1 := htmlquery.FindOne(body, "//h1")
	require.NotNil(t, h1)
	assert.Equal(t, "//*[@id='main']/h1[1]", uniqueXPath(h1))
}

func TestUniqueXPathIndexesSiblings(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(
		`<html><body><ul><li>a</li><li>b</li><li>c</li></ul></body></html>`))
	require.NoError(t, err)

	items := htmlquery.Find(doc, "//li")
	require.Len(t, items, 3)
	assert.Equal(t, "/html[1]/body[1]/ul[1]/li[2]", uniqueXPath(items[1]))
	assert.Equal(t, "/html[1]/body[1]/ul[1]/li[3]", uniqueXPath(items[2]))
}
