package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"github.com/solarops/bua/api/schemas"
)

// Snapshot serializes the live page and rebuilds it as the structured tree
// the reasoning model consumes. Interactive elements receive highlight
// indices in document order so the model can address them as element ids.
func (d *Driver) Snapshot(ctx context.Context) (*schemas.PageNode, error) {
	var markup string
	err := d.run(ctx, d.cfg.ActionTimeout,
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to read page markup: %w", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}

	root := htmlquery.FindOne(doc, "//body")
	if root == nil {
		root = doc
	}

	counter := 0
	node := buildPageNode(root, &counter)
	if node == nil {
		node = &schemas.PageNode{Type: "element", TagName: "body", IsVisible: true}
	}
	return node, nil
}

// Tags never worth surfacing to the model.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"meta":     true,
	"link":     true,
}

var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"option":   true,
}

var editableTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
}

// buildPageNode converts one parsed node and its subtree. It returns nil for
// nodes that carry nothing the model can use.
func buildPageNode(n *html.Node, counter *int) *schemas.PageNode {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		return &schemas.PageNode{Type: "text", Text: text, IsVisible: true}

	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedTags[tag] {
			return nil
		}

		attrs := make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			attrs[a.Key] = a.Val
		}

		node := &schemas.PageNode{
			Type:       "element",
			TagName:    tag,
			XPath:      uniqueXPath(n),
			Attributes: attrs,
			IsVisible:  isVisible(tag, attrs),
		}
		node.IsInteractive = node.IsVisible && isInteractive(tag, attrs)
		node.IsEditable = node.IsVisible && isEditable(tag, attrs)

		if node.IsInteractive {
			idx := *counter
			*counter++
			node.HighlightIndex = &idx
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := buildPageNode(c, counter); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node

	default:
		return nil
	}
}

func isVisible(tag string, attrs map[string]string) bool {
	if tag == "head" {
		return false
	}
	if _, hidden := attrs["hidden"]; hidden {
		return false
	}
	if attrs["type"] == "hidden" {
		return false
	}
	style := strings.ReplaceAll(strings.ToLower(attrs["style"]), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}
	if attrs["aria-hidden"] == "true" {
		return false
	}
	return true
}

func isInteractive(tag string, attrs map[string]string) bool {
	if interactiveTags[tag] {
		return true
	}
	if _, ok := attrs["onclick"]; ok {
		return true
	}
	switch attrs["role"] {
	case "button", "link", "checkbox", "tab", "menuitem", "combobox":
		return true
	}
	return false
}

func isEditable(tag string, attrs map[string]string) bool {
	if editableTags[tag] {
		// Bare boolean attributes parse to empty values, so presence is the
		// signal, not the value.
		if _, ok := attrs["readonly"]; ok {
			return false
		}
		if _, ok := attrs["disabled"]; ok {
			return false
		}
		return true
	}
	if v, ok := attrs["contenteditable"]; ok && v != "false" {
		return true
	}
	return false
}

// uniqueXPath builds a stable XPath for a parsed node. An ancestor with an id
// anchors the path; otherwise the path runs from the document root with
// 1-based sibling indices.
func uniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}

		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}

		if id := htmlquery.SelectAttr(n, "id"); id != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}
