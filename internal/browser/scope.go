package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/solarops/bua/internal/action"
)

// The query layer works entirely through script evaluation so that CSS and
// XPath selectors, iframe descent, and element operations all share one code
// path. Element handles re-resolve their node on every operation; the page
// may have re-rendered between resolution and use.

// jsResult is the envelope every injected script returns.
type jsResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Count int    `json:"count,omitempty"`
	Value string `json:"value,omitempty"`
}

// eval runs a script in the page and decodes its envelope.
func (d *Driver) eval(ctx context.Context, script string) (*jsResult, error) {
	var raw json.RawMessage
	err := d.run(ctx, d.cfg.ActionTimeout,
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}))
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}

	var res jsResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("unexpected script result %s: %w", string(raw), err)
	}
	return &res, nil
}

// jsEncode safely embeds a value into injected script source.
func jsEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// isXPathSelector reports whether the selector string is XPath rather than CSS.
func isXPathSelector(sel string) bool {
	return strings.HasPrefix(sel, "/") || strings.HasPrefix(sel, "(") || strings.HasPrefix(sel, "./")
}

// nodeQueryScript builds a script that descends the frame path, collects the
// nodes matching the selector, and runs body with `nodes` and `doc` in scope.
// The body must return a result envelope.
func nodeQueryScript(framePath []string, selector, body string) string {
	return fmt.Sprintf(`(() => {
	const frames = %s;
	let doc = document;
	for (const fsel of frames) {
		const fr = doc.querySelector(fsel);
		if (!fr || !fr.contentDocument) return {ok: false, error: "frame not found: " + fsel};
		doc = fr.contentDocument;
	}
	const sel = %s;
	let nodes = [];
	try {
		if (%t) {
			const r = doc.evaluate(sel, doc, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			for (let i = 0; i < r.snapshotLength; i++) nodes.push(r.snapshotItem(i));
		} else {
			nodes = Array.from(doc.querySelectorAll(sel));
		}
	} catch (e) {
		return {ok: false, error: "invalid selector: " + String(e)};
	}
	%s
})()`, jsEncode(framePath), jsEncode(selector), isXPathSelector(selector), body)
}

// -- Scope implementation --

// Frame descends into the embedded frame matching the selector.
func (d *Driver) Frame(ctx context.Context, selector string) (action.Scope, error) {
	return (&frameScope{d: d}).Frame(ctx, selector)
}

// Query counts the matches for a selector at the page root.
func (d *Driver) Query(ctx context.Context, selector string) (action.Element, int, error) {
	return (&frameScope{d: d}).Query(ctx, selector)
}

// frameScope is the query surface of one document: the page itself when
// framePath is empty, or the frame reached by descending each selector in
// order.
type frameScope struct {
	d         *Driver
	framePath []string
}

func (s *frameScope) Frame(ctx context.Context, selector string) (action.Scope, error) {
	path := append(append([]string{}, s.framePath...), selector)

	// Verify the descent is possible before handing out the scope.
	script := nodeQueryScript(path, "*", `return {ok: true};`)
	res, err := s.d.eval(ctx, script)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		return nil, fmt.Errorf("%s", res.Error)
	}
	return &frameScope{d: s.d, framePath: path}, nil
}

func (s *frameScope) Query(ctx context.Context, selector string) (action.Element, int, error) {
	script := nodeQueryScript(s.framePath, selector, `return {ok: true, count: nodes.length};`)
	res, err := s.d.eval(ctx, script)
	if err != nil {
		return nil, 0, err
	}
	if !res.OK {
		return nil, 0, fmt.Errorf("%s", res.Error)
	}
	if res.Count != 1 {
		return nil, res.Count, nil
	}
	return &elementHandle{d: s.d, framePath: s.framePath, selector: selector}, 1, nil
}

// -- Element implementation --

// elementHandle addresses the single node its selector matched at resolution
// time. Operations re-resolve by the same selector.
type elementHandle struct {
	d         *Driver
	framePath []string
	selector  string
}

// do runs body against the resolved node. The body sees `node`, `doc`, and
// `nodes`, and must return a result envelope.
func (e *elementHandle) do(ctx context.Context, body string) (*jsResult, error) {
	full := fmt.Sprintf(`
	if (nodes.length === 0) return {ok: false, error: "element no longer present"};
	const node = nodes[0];
	%s`, body)

	res, err := e.d.eval(ctx, nodeQueryScript(e.framePath, e.selector, full))
	if err != nil {
		return nil, err
	}
	if !res.OK {
		return nil, fmt.Errorf("%s", res.Error)
	}
	return res, nil
}

func (e *elementHandle) Click(ctx context.Context) error {
	_, err := e.do(ctx, `
	node.scrollIntoView({block: "center", inline: "center"});
	node.click();
	return {ok: true};`)
	return err
}

func (e *elementHandle) Fill(ctx context.Context, value string, clearFirst bool) error {
	body := fmt.Sprintf(`
	const value = %s;
	const clear = %t;
	node.focus();
	if ("value" in node && !node.isContentEditable) {
		if (clear) node.value = "";
		node.value = node.value + value;
	} else if (node.isContentEditable) {
		if (clear) node.textContent = "";
		node.textContent = node.textContent + value;
	} else {
		return {ok: false, error: "element does not accept text input"};
	}
	node.dispatchEvent(new Event("input", {bubbles: true}));
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return {ok: true};`, jsEncode(value), clearFirst)

	_, err := e.do(ctx, body)
	return err
}

func (e *elementHandle) SetChecked(ctx context.Context, checked bool) error {
	body := fmt.Sprintf(`
	if (node.type !== "checkbox" && node.type !== "radio") {
		return {ok: false, error: "element is not a checkbox or radio input"};
	}
	node.checked = %t;
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return {ok: true};`, checked)

	_, err := e.do(ctx, body)
	return err
}

func (e *elementHandle) SelectOption(ctx context.Context, value, optionID string) error {
	body := fmt.Sprintf(`
	const value = %s;
	const optionId = %s;
	const options = Array.from(node.options || []);
	let idx = -1;
	for (let i = 0; i < options.length; i++) {
		const o = options[i];
		if (optionId !== "" && o.id === optionId) { idx = i; break; }
		if (value !== "" && (o.value === value || o.textContent.trim() === value)) { idx = i; break; }
	}
	if (idx < 0) {
		const available = options.map(o => o.textContent.trim()).join(", ");
		return {ok: false, error: "no matching option, available options: " + available};
	}
	node.selectedIndex = idx;
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return {ok: true};`, jsEncode(value), jsEncode(optionID))

	_, err := e.do(ctx, body)
	return err
}

func (e *elementHandle) TagName(ctx context.Context) (string, error) {
	res, err := e.do(ctx, `return {ok: true, value: node.tagName.toLowerCase()};`)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}
