// Package survey discovers scrapeable elements on a storefront page without
// site-specific hardcoding. Independent detection strategies propose
// candidates with weighted confidence; the classifier merges, deduplicates,
// and ranks them into one recommendation set per page visit.
package survey

import "time"

// Role is the functional category assigned to a candidate element.
type Role int

const (
	RoleUnknown Role = iota
	RoleResultCard
	RoleSearchButton
	RoleLocationInput
	RoleSearchInput
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleSearchInput:
		return "search_input"
	case RoleLocationInput:
		return "location_input"
	case RoleSearchButton:
		return "search_button"
	case RoleResultCard:
		return "result_card"
	default:
		return "unknown"
	}
}

// Box is an element bounding box in viewport coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is one classified DOM candidate. Created fresh on every survey,
// never persisted.
type Element struct {
	Selector   string            `json:"selector"`
	TagName    string            `json:"tag_name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Visible    bool              `json:"visible"`
	Box        *Box              `json:"box,omitempty"`
	Confidence float64           `json:"confidence"`
	Role       Role              `json:"role"`
}

// dedupeKey identifies an element across strategies: two candidates with
// the same tag, id, and class are the same DOM node for merging purposes.
func (e *Element) dedupeKey() string {
	return e.TagName + "#" + e.Attributes["id"] + "." + e.Attributes["class"]
}

// Recommendations holds the best candidate per role. A nil field means no
// element of that role was found; that is a valid survey outcome, not an
// error.
type Recommendations struct {
	SearchInput   *Element   `json:"search_input,omitempty"`
	LocationInput *Element   `json:"location_input,omitempty"`
	SearchButton  *Element   `json:"search_button,omitempty"`
	ResultCards   []*Element `json:"result_cards,omitempty"`
}

// Result is the artifact of one survey pass over a loaded page. Immutable
// once built; not cached across navigations.
type Result struct {
	PageURL         string          `json:"page_url"`
	Timestamp       time.Time       `json:"timestamp"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	Elements        []Element       `json:"elements"`
	Recommendations Recommendations `json:"recommendations"`
	Screenshot      []byte          `json:"-"`
}
