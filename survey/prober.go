package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// suggestionScript reports whether a visible autocomplete affordance is
// present anywhere on the page.
const suggestionScript = `() => {
	const sel = '[class*="suggest"], [class*="autocomplete"], [role="listbox"], [class*="dropdown"] li';
	for (const el of document.querySelectorAll(sel)) {
		const rect = el.getBoundingClientRect();
		if (rect.width > 0 && rect.height > 0) return true;
	}
	return false;
}`

// PageProber probes a live page: focus the element, give the frontend a
// beat to react, then look for a suggestion affordance.
type PageProber struct {
	Page *rod.Page

	// SettleDelay is the wait after focusing. Default: 500ms.
	SettleDelay time.Duration
}

// ProbeSuggestions implements Prober against the live page.
func (p *PageProber) ProbeSuggestions(selector string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	page := p.Page.Context(ctx)
	el, err := page.Element(selector)
	if err != nil {
		return false, fmt.Errorf("survey: probe %s: %w", selector, err)
	}
	if err := el.Focus(); err != nil {
		return false, fmt.Errorf("survey: focus %s: %w", selector, err)
	}

	delay := p.SettleDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	time.Sleep(delay)

	res, err := page.Eval(suggestionScript)
	if err != nil {
		return false, fmt.Errorf("survey: suggestion check: %w", err)
	}
	return res.Value.Bool(), nil
}
