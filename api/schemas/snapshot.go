package schemas

// -- Page Snapshot Schemas --

// PageNode is one node of the structured page snapshot handed to the
// reasoning model. It mirrors the shape the model reasons about: tag, text,
// attributes, visibility flags, and nested children, without raw markup.
type PageNode struct {
	Type          string            `json:"type"`
	Text          string            `json:"text,omitempty"`
	TagName       string            `json:"tagName,omitempty"`
	XPath         string            `json:"xpath,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	IsVisible     bool              `json:"isVisible"`
	IsInteractive bool              `json:"isInteractive"`
	IsTopElement  bool              `json:"isTopElement"`
	IsEditable    bool              `json:"isEditable"`
	// HighlightIndex is the ordinal assigned to interactive nodes so the
	// model can reference them as element ids. Nil for passive nodes.
	HighlightIndex *int       `json:"highlightIndex,omitempty"`
	ShadowRoot     bool       `json:"shadowRoot,omitempty"`
	Children       []*PageNode `json:"children,omitempty"`
}

// Walk calls fn for the node and every descendant, depth first. Traversal
// stops early if fn returns false.
func (n *PageNode) Walk(fn func(*PageNode) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Point is a single coordinate on the page, used by drag paths.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
