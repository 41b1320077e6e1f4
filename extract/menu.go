package extract

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Selectors pins the CSS paths used to pull a menu out of a storefront
// page. Zero fields fall back to defaults tuned for the target site.
type Selectors struct {
	RestaurantName string `yaml:"restaurant_name"`
	Category       string `yaml:"category"`
	CategoryName   string `yaml:"category_name"`
	Item           string `yaml:"item"`
	ItemName       string `yaml:"item_name"`
	ItemDesc       string `yaml:"item_desc"`
	ItemPrice      string `yaml:"item_price"`
	ItemOldPrice   string `yaml:"item_old_price"`
	ItemDiscount   string `yaml:"item_discount"`
	ItemImage      string `yaml:"item_image"`
}

func (s *Selectors) defaults() {
	if s.RestaurantName == "" {
		s.RestaurantName = "h1"
	}
	if s.Category == "" {
		s.Category = "section[class*='category'], div[class*='ProductSection']"
	}
	if s.CategoryName == "" {
		s.CategoryName = "h2, h3"
	}
	if s.Item == "" {
		s.Item = "div[class*='ProductCard'], div[class*='product-card'], [data-product-id]"
	}
	if s.ItemName == "" {
		s.ItemName = "h4, [class*='title'], [class*='Title']"
	}
	if s.ItemDesc == "" {
		s.ItemDesc = "p, [class*='description'], [class*='Description']"
	}
	if s.ItemPrice == "" {
		s.ItemPrice = "[class*='price'], [class*='Price']"
	}
	if s.ItemOldPrice == "" {
		s.ItemOldPrice = "del, s, [class*='old'], [class*='strike']"
	}
	if s.ItemDiscount == "" {
		s.ItemDiscount = "[class*='discount'], [class*='Discount'], [class*='badge']"
	}
	if s.ItemImage == "" {
		s.ItemImage = "img"
	}
}

// textPolicy strips every tag from extracted fragments. Item descriptions
// arrive as arbitrary markup and end up in the database and in MCP
// responses, so they go through the sanitizer rather than raw.
var textPolicy = bluemonday.StrictPolicy()

func cleanText(rawHTML string) string {
	s := textPolicy.Sanitize(rawHTML)
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// nodeText sanitizes the inner HTML of the first match under s.
func nodeText(s *goquery.Selection, selector string) string {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	raw, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return cleanText(raw)
}

// ParseMenu parses storefront page HTML into a menu using the given
// selectors. Pages without recognizable category sections degrade to a
// single unnamed category holding every item card on the page.
func ParseMenu(pageHTML string, sel Selectors) (*Menu, error) {
	sel.defaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	menu := &Menu{
		RestaurantName: nodeText(doc.Selection, sel.RestaurantName),
	}

	doc.Find(sel.Category).Each(func(_ int, cat *goquery.Selection) {
		c := Category{Name: nodeText(cat, sel.CategoryName)}
		cat.Find(sel.Item).Each(func(_ int, card *goquery.Selection) {
			if it, ok := parseItem(card, sel); ok {
				c.Items = append(c.Items, it)
			}
		})
		if len(c.Items) > 0 {
			menu.Categories = append(menu.Categories, c)
		}
	})

	if len(menu.Categories) == 0 {
		var c Category
		doc.Find(sel.Item).Each(func(_ int, card *goquery.Selection) {
			if it, ok := parseItem(card, sel); ok {
				c.Items = append(c.Items, it)
			}
		})
		if len(c.Items) > 0 {
			menu.Categories = append(menu.Categories, c)
		}
	}
	return menu, nil
}

// parseItem reads one product card. Cards without a name are noise
// (spacers, skeleton loaders) and are skipped.
func parseItem(card *goquery.Selection, sel Selectors) (Item, bool) {
	it := Item{
		Name:        nodeText(card, sel.ItemName),
		Description: nodeText(card, sel.ItemDesc),
	}
	if it.Name == "" {
		return Item{}, false
	}

	if old := nodeText(card, sel.ItemOldPrice); old != "" {
		if p, ok := parsePrice(old); ok {
			it.OriginalPrice = p
		}
	}
	// Final price is the first price label that is not the struck-through
	// original.
	card.Find(sel.ItemPrice).EachWithBreak(func(_ int, pn *goquery.Selection) bool {
		if pn.Is(sel.ItemOldPrice) || pn.Closest(sel.ItemOldPrice).Length() > 0 {
			return true
		}
		raw, err := pn.Html()
		if err != nil {
			raw = pn.Text()
		}
		if p, ok := parsePrice(cleanText(raw)); ok && p > 0 {
			it.FinalPrice = p
			return false
		}
		return true
	})

	it.DiscountPct = parseDiscount(nodeText(card, sel.ItemDiscount))
	if it.DiscountPct == 0 && it.OriginalPrice > it.FinalPrice && it.FinalPrice > 0 {
		it.DiscountPct = float64(it.OriginalPrice-it.FinalPrice) / float64(it.OriginalPrice) * 100
	}

	if img := card.Find(sel.ItemImage).First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok {
			it.ImageURL = src
		} else if src, ok := img.Attr("data-src"); ok {
			it.ImageURL = src
		}
	}
	return it, true
}

// ParseCards is the survey fallback: given card selectors recommended by
// the element classifier, treat each match as an item and pull a name and
// price out of its text. Produces one unnamed category.
func ParseCards(pageHTML string, cardSelectors []string, sel Selectors) (*Menu, error) {
	sel.defaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	menu := &Menu{RestaurantName: nodeText(doc.Selection, sel.RestaurantName)}
	seen := map[string]bool{}
	var c Category
	for _, cardSel := range cardSelectors {
		doc.Find(cardSel).Each(func(_ int, card *goquery.Selection) {
			it, ok := parseItem(card, sel)
			if !ok {
				// Selector-driven cards may not match the item name
				// selector; fall back to the first text line.
				it, ok = looseItem(card, sel)
			}
			if !ok || seen[it.Name] {
				return
			}
			seen[it.Name] = true
			c.Items = append(c.Items, it)
		})
	}
	if len(c.Items) > 0 {
		menu.Categories = append(menu.Categories, c)
	}
	return menu, nil
}

func looseItem(card *goquery.Selection, sel Selectors) (Item, bool) {
	lines := strings.FieldsFunc(card.Text(), func(r rune) bool { return r == '\n' })
	var it Item
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if it.Name == "" {
			if _, isPrice := parsePrice(ln); !isPrice {
				it.Name = ln
			}
			continue
		}
		if it.FinalPrice == 0 {
			if p, ok := parsePrice(ln); ok && p > 0 {
				it.FinalPrice = p
			}
		}
	}
	if it.Name == "" {
		return Item{}, false
	}
	it.DiscountPct = parseDiscount(nodeText(card, sel.ItemDiscount))
	return it, true
}
