package survey

import "strings"

// attrPattern is one structural convention: a predicate over a node's
// attributes plus the raw confidence earned by matching it. Patterns are
// ordered strongest-first per role; the first pattern with a non-empty
// match set wins for that role.
type attrPattern struct {
	name  string
	raw   float64
	match func(Node) bool
}

func attrContains(attr, sub string) func(Node) bool {
	return func(n Node) bool {
		return strings.Contains(strings.ToLower(n.Attributes[attr]), sub)
	}
}

func attrEquals(attr, val string) func(Node) bool {
	return func(n Node) bool { return n.Attributes[attr] == val }
}

var patternTable = map[Role][]attrPattern{
	RoleSearchInput: {
		{"placeholder-fa", 0.9, attrContains("placeholder", "جستجو")},
		{"placeholder-en", 0.9, attrContains("placeholder", "search")},
		{"type-search", 0.85, attrEquals("type", "search")},
		{"id-search", 0.8, attrContains("id", "search")},
		{"name-q", 0.75, attrEquals("name", "q")},
		{"class-search", 0.65, attrContains("class", "search")},
		{"data-testid", 0.6, attrContains("data-testid", "search")},
	},
	RoleLocationInput: {
		{"placeholder-fa", 0.9, attrContains("placeholder", "آدرس")},
		{"placeholder-en", 0.9, attrContains("placeholder", "address")},
		{"id-location", 0.8, attrContains("id", "location")},
		{"id-address", 0.8, attrContains("id", "address")},
		{"class-location", 0.65, attrContains("class", "location")},
		{"data-testid", 0.6, attrContains("data-testid", "address")},
	},
	RoleSearchButton: {
		{"aria-label", 0.85, attrContains("aria-label", "search")},
		{"id-search-btn", 0.8, attrContains("id", "search")},
		{"class-search-btn", 0.7, attrContains("class", "search")},
		{"type-submit", 0.5, attrEquals("type", "submit")},
	},
	RoleResultCard: {
		{"class-vendor", 0.85, attrContains("class", "vendor")},
		{"class-product", 0.8, attrContains("class", "product")},
		{"class-card", 0.7, attrContains("class", "card")},
		{"class-result", 0.65, attrContains("class", "result")},
		{"tag-article", 0.5, func(n Node) bool { return n.TagName == "article" }},
	},
}

// patternRoles fixes the role detection order. Iterating patternTable
// directly would randomize which role wins a confidence tie on the same
// node, making classification non-deterministic across runs.
var patternRoles = []Role{
	RoleSearchInput, RoleLocationInput, RoleSearchButton, RoleResultCard,
}

// Pattern matches nodes against ordered per-role attribute conventions.
// Second-strongest signal: conventions survive redesigns better than
// layout does, but not as well as self-describing text.
type Pattern struct{}

func (Pattern) Name() string    { return "pattern" }
func (Pattern) Weight() float64 { return 0.3 }

func (p Pattern) Detect(snap *Snapshot) ([]Element, error) {
	var out []Element
	for _, role := range patternRoles {
		for _, pat := range patternTable[role] {
			matched := p.matchPattern(snap, role, pat)
			if len(matched) > 0 {
				out = append(out, matched...)
				break // first non-empty match set wins for this role
			}
		}
	}
	return out, nil
}

func (p Pattern) matchPattern(snap *Snapshot, role Role, pat attrPattern) []Element {
	var out []Element
	for _, n := range snap.Nodes {
		if !roleShapeFits(role, n) {
			continue
		}
		if pat.match(n) {
			out = append(out, element(n, role, pat.raw, p.Weight()))
		}
	}
	return out
}

// roleShapeFits rejects tag/role combinations that can never be right, so
// a class*=search div is not proposed as a search input.
func roleShapeFits(role Role, n Node) bool {
	switch role {
	case RoleSearchInput, RoleLocationInput:
		return isInputNode(n)
	case RoleSearchButton:
		return isButtonNode(n) || n.TagName == "a"
	case RoleResultCard:
		return !isInputNode(n) && !isButtonNode(n)
	default:
		return true
	}
}
