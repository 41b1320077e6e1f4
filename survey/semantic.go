package survey

import "strings"

// Keyword sets for the storefront's two languages (the target site is
// Persian with English markup conventions). Exclusion lists keep inputs
// that merely look prominent (phone, email, OTP fields) from ever being
// classified as search boxes.
var (
	searchWords = []string{
		"search", "find", "query", "lookup",
		"جستجو", "سرچ", "پیدا",
	}
	locationWords = []string{
		"address", "location", "city", "area", "region", "neighborhood",
		"آدرس", "محله", "شهر", "منطقه", "موقعیت", "مکان",
	}
	excludeWords = []string{
		"phone", "mobile", "tel", "email", "mail", "password", "otp",
		"code", "verification", "coupon", "voucher",
		"تلفن", "موبایل", "همراه", "ایمیل", "رمز", "کد", "تخفیف",
	}
	searchButtonWords = []string{
		"search", "find", "go", "submit",
		"جستجو", "بزن بریم", "تایید",
	}
)

// Semantic classifies inputs and buttons by their self-describing
// attributes: placeholder, aria-label, name, id, class, type. When keyword
// matching is inconclusive it falls back to a positional heuristic (a wide
// input near the top of the viewport is probably the search box). This is
// the strongest signal and carries the largest weight.
type Semantic struct{}

func (Semantic) Name() string    { return "semantic" }
func (Semantic) Weight() float64 { return 0.4 }

func (s Semantic) Detect(snap *Snapshot) ([]Element, error) {
	var out []Element
	for _, n := range snap.Nodes {
		switch {
		case isInputNode(n):
			if el, ok := s.classifyInput(snap, n); ok {
				out = append(out, el)
			}
		case isButtonNode(n):
			if el, ok := s.classifyButton(n); ok {
				out = append(out, el)
			}
		}
	}
	return out, nil
}

func (s Semantic) classifyInput(snap *Snapshot, n Node) (Element, bool) {
	switch n.Attributes["type"] {
	case "tel", "email", "password", "number", "checkbox", "radio", "hidden", "file":
		return Element{}, false
	}

	hints := inputHints(n)
	if containsAny(hints, excludeWords) {
		return Element{}, false
	}

	if containsAny(hints, searchWords) {
		return element(n, RoleSearchInput, 0.9, s.Weight()), true
	}
	if containsAny(hints, locationWords) {
		return element(n, RoleLocationInput, 0.9, s.Weight()), true
	}

	// Inconclusive keywords: fall back to position and size.
	if n.Visible && n.Box != nil && snap.ViewportWidth > 0 &&
		n.Box.Width >= 0.35*snap.ViewportWidth && n.Box.Y < 250 {
		return element(n, RoleSearchInput, 0.45, s.Weight()), true
	}
	return Element{}, false
}

func (s Semantic) classifyButton(n Node) (Element, bool) {
	hints := inputHints(n) + " " + strings.ToLower(n.Text)
	if containsAny(hints, searchButtonWords) {
		return element(n, RoleSearchButton, 0.8, s.Weight()), true
	}
	if n.Attributes["type"] == "submit" {
		return element(n, RoleSearchButton, 0.5, s.Weight()), true
	}
	return Element{}, false
}

func isInputNode(n Node) bool {
	return n.TagName == "input" || n.TagName == "textarea" ||
		n.Attributes["role"] == "searchbox"
}

func isButtonNode(n Node) bool {
	if n.TagName == "button" || n.Attributes["role"] == "button" {
		return true
	}
	return n.TagName == "input" && n.Attributes["type"] == "submit"
}

// inputHints joins the self-describing attributes of a node into one
// lowercased haystack for keyword matching.
func inputHints(n Node) string {
	parts := []string{
		n.Attributes["placeholder"],
		n.Attributes["aria-label"],
		n.Attributes["name"],
		n.Attributes["id"],
		n.Attributes["class"],
		n.Attributes["title"],
		n.Attributes["type"],
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
