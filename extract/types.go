// Package extract turns a loaded storefront page into a normalized menu:
// restaurant name, categories, and priced items. Parsing is pure (goquery
// over captured HTML); the Extractor glues navigation, readiness waiting,
// and the element survey fallback on top.
package extract

import "strings"

// Menu is the normalized output of one storefront extraction.
type Menu struct {
	RestaurantName string     `json:"restaurant_name"`
	Categories     []Category `json:"categories"`
}

// Category groups items under a menu section heading.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item is one priced menu entry. Prices are in the site's smallest
// currency unit; OriginalPrice is zero when the item is not discounted.
type Item struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	FinalPrice    int64   `json:"final_price"`
	OriginalPrice int64   `json:"original_price,omitempty"`
	DiscountPct   float64 `json:"discount_pct,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
}

// ItemCount returns the total number of items across categories.
func (m *Menu) ItemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}

// Markers that flag an item as unavailable in either site language.
var unavailableMarkers = []string{
	"unavailable", "out of stock", "sold out", "not available",
	"ناموجود", "اتمام موجودی", "موجود نیست", "تمام شد",
}

// unavailable reports whether the item should be dropped: no price and an
// unavailability marker in its name or description. Such items are never
// recorded as zero-price rows.
func (it *Item) unavailable() bool {
	if it.FinalPrice > 0 {
		return false
	}
	haystack := strings.ToLower(it.Name + " " + it.Description)
	for _, m := range unavailableMarkers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

// FilterAvailable removes unavailable items in place and prunes emptied
// categories.
func (m *Menu) FilterAvailable() {
	var categories []Category
	for _, c := range m.Categories {
		var items []Item
		for _, it := range c.Items {
			if !it.unavailable() {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			c.Items = items
			categories = append(categories, c)
		}
	}
	m.Categories = categories
}
