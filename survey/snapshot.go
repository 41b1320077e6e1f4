package survey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// Node is one candidate DOM node captured from a live page. Strategies
// operate on nodes, never on the page itself, which keeps them
// deterministic and testable without Chrome.
type Node struct {
	Selector   string            `json:"selector"`
	TagName    string            `json:"tag"`
	Attributes map[string]string `json:"attrs"`
	Text       string            `json:"text"`
	Visible    bool              `json:"visible"`
	Box        *Box              `json:"box,omitempty"`
}

// Snapshot is everything a survey needs from one page visit, captured in a
// single injected-script pass.
type Snapshot struct {
	PageURL        string  `json:"page_url"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
	Nodes          []Node  `json:"nodes"`
}

// captureScript collects every interaction candidate (inputs, buttons,
// links, card-shaped containers) with its attributes, text, visibility and
// bounding box, as one JSON payload. Capped at 400 nodes so pathological
// pages cannot blow up the survey.
const captureScript = `() => {
	const cap = 400;
	const sel = 'input, textarea, button, a, [role="button"], [role="searchbox"], article, li, ' +
		'[class*="card"], [class*="product"], [class*="vendor"], [class*="item"], [class*="result"]';
	const cssPath = (el) => {
		if (el.id) return '#' + CSS.escape(el.id);
		const parts = [];
		while (el && el.nodeType === 1 && parts.length < 5) {
			let part = el.tagName.toLowerCase();
			if (el.id) { parts.unshift('#' + CSS.escape(el.id)); break; }
			const cls = (el.className && typeof el.className === 'string')
				? el.className.trim().split(/\s+/).slice(0, 2) : [];
			if (cls.length) part += '.' + cls.map(c => CSS.escape(c)).join('.');
			const parent = el.parentElement;
			if (parent) {
				const siblings = Array.from(parent.children).filter(s => s.tagName === el.tagName);
				if (siblings.length > 1) part += ':nth-of-type(' + (siblings.indexOf(el) + 1) + ')';
			}
			parts.unshift(part);
			el = parent;
		}
		return parts.join(' > ');
	};
	const nodes = [];
	for (const el of document.querySelectorAll(sel)) {
		if (nodes.length >= cap) break;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const visible = rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden' &&
			parseFloat(style.opacity || '1') > 0.05;
		const attrs = {};
		for (const a of el.attributes) attrs[a.name] = a.value;
		nodes.push({
			selector: cssPath(el),
			tag: el.tagName.toLowerCase(),
			attrs: attrs,
			text: (el.innerText || el.value || '').trim().slice(0, 300),
			visible: visible,
			box: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
		});
	}
	const desc = document.querySelector('meta[name="description"]');
	return JSON.stringify({
		page_url: location.href,
		title: document.title,
		description: desc ? desc.content : '',
		viewport_width: window.innerWidth,
		viewport_height: window.innerHeight,
		nodes: nodes,
	});
}`

// Capture runs the collection script on a loaded page and decodes the
// snapshot.
func Capture(ctx context.Context, page *rod.Page) (*Snapshot, error) {
	res, err := page.Context(ctx).Eval(captureScript)
	if err != nil {
		return nil, fmt.Errorf("survey: capture: %w", err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal([]byte(res.Value.Str()), snap); err != nil {
		return nil, fmt.Errorf("survey: decode snapshot: %w", err)
	}
	return snap, nil
}
