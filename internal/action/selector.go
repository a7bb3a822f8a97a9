package action

// Selector describes where a UI element lives. It carries several redundant
// ways of addressing the same node so resolution can fall back when the page
// has drifted since the snapshot was taken.
type Selector struct {
	CSSSelector   string `json:"css_selector"`
	XPathSelector string `json:"xpath_selector"`
	// NativeSelector is a driver-specific selector string, tried first when
	// present.
	NativeSelector string `json:"native_selector,omitempty"`
	InIFrame       bool   `json:"in_iframe"`
	InShadowRoot   bool   `json:"in_shadow_root"`
	// IFrameParentSelectors is the ordered list of frame-boundary selectors
	// leading to the element, outermost first. Non-empty whenever InIFrame is
	// set.
	IFrameParentSelectors []string `json:"iframe_parent_css_selectors,omitempty"`
}

// Candidates returns the selector strings to try, in priority order: the
// driver-native selector first when present, then CSS, then XPath.
func (s Selector) Candidates() []string {
	candidates := make([]string, 0, 3)
	if s.NativeSelector != "" {
		candidates = append(candidates, s.NativeSelector)
	}
	if s.CSSSelector != "" {
		candidates = append(candidates, s.CSSSelector)
	}
	if s.XPathSelector != "" {
		candidates = append(candidates, s.XPathSelector)
	}
	return candidates
}
