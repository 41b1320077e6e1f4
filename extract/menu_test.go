package extract

import (
	"math"
	"testing"
)

const storefrontHTML = `
<html><head><title>store</title></head><body>
<h1>پیتزا برتر</h1>
<section class="category-pizza">
  <h2>پیتزا</h2>
  <div class="ProductCard">
    <h4>پیتزا پپرونی</h4>
    <p>پنیر، <b>پپرونی</b>، سس مخصوص</p>
    <span class="discount-badge">۲۰٪</span>
    <del class="old-price">۲۵۰,۰۰۰</del>
    <span class="price">۲۰۰,۰۰۰ تومان</span>
    <img src="https://cdn.example/pep.jpg">
  </div>
  <div class="ProductCard">
    <h4>پیتزا مخصوص</h4>
    <span class="price">180,000 تومان</span>
  </div>
  <div class="ProductCard">
    <h4>پیتزا قارچ</h4>
    <p>ناموجود</p>
  </div>
</section>
<section class="category-drinks">
  <h2>نوشیدنی</h2>
  <div class="ProductCard">
    <h4>نوشابه</h4>
    <span class="price">۱۵,۰۰۰</span>
  </div>
</section>
</body></html>`

func TestParseMenu(t *testing.T) {
	menu, err := ParseMenu(storefrontHTML, Selectors{})
	if err != nil {
		t.Fatal(err)
	}
	if menu.RestaurantName != "پیتزا برتر" {
		t.Errorf("restaurant name = %q", menu.RestaurantName)
	}
	if len(menu.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(menu.Categories))
	}

	pizza := menu.Categories[0]
	if pizza.Name != "پیتزا" {
		t.Errorf("category name = %q", pizza.Name)
	}
	if len(pizza.Items) != 3 {
		t.Fatalf("pizza items = %d, want 3", len(pizza.Items))
	}

	pep := pizza.Items[0]
	if pep.Name != "پیتزا پپرونی" {
		t.Errorf("name = %q", pep.Name)
	}
	if pep.Description != "پنیر، پپرونی، سس مخصوص" {
		t.Errorf("description not sanitized: %q", pep.Description)
	}
	if pep.FinalPrice != 200000 {
		t.Errorf("final price = %d, want 200000", pep.FinalPrice)
	}
	if pep.OriginalPrice != 250000 {
		t.Errorf("original price = %d, want 250000", pep.OriginalPrice)
	}
	if pep.DiscountPct != 20 {
		t.Errorf("discount = %v, want 20", pep.DiscountPct)
	}
	if pep.ImageURL != "https://cdn.example/pep.jpg" {
		t.Errorf("image = %q", pep.ImageURL)
	}

	if p := menu.Categories[1].Items[0].FinalPrice; p != 15000 {
		t.Errorf("drink price = %d, want 15000", p)
	}
}

func TestParseMenuDerivedDiscount(t *testing.T) {
	html := `<div class="ProductCard">
		<h4>برگر</h4>
		<del>100,000</del>
		<span class="price">75,000</span>
	</div>`
	menu, err := ParseMenu(html, Selectors{})
	if err != nil {
		t.Fatal(err)
	}
	it := menu.Categories[0].Items[0]
	if math.Abs(it.DiscountPct-25) > 0.01 {
		t.Errorf("derived discount = %v, want 25", it.DiscountPct)
	}
}

func TestFilterAvailable(t *testing.T) {
	menu, err := ParseMenu(storefrontHTML, Selectors{})
	if err != nil {
		t.Fatal(err)
	}
	if menu.ItemCount() != 4 {
		t.Fatalf("items before filter = %d, want 4", menu.ItemCount())
	}

	menu.FilterAvailable()
	if menu.ItemCount() != 3 {
		t.Fatalf("items after filter = %d, want 3", menu.ItemCount())
	}
	for _, c := range menu.Categories {
		for _, it := range c.Items {
			if it.Name == "پیتزا قارچ" {
				t.Error("unavailable item survived the filter")
			}
		}
	}
}

func TestFilterKeepsUnmarkedZeroPrice(t *testing.T) {
	// No price but also no unavailability marker: kept, not silently dropped.
	menu := &Menu{Categories: []Category{{Items: []Item{{Name: "سالاد"}}}}}
	menu.FilterAvailable()
	if menu.ItemCount() != 1 {
		t.Error("zero-price item without marker was dropped")
	}
}

func TestParseMenuNoCategorySections(t *testing.T) {
	html := `<body>
		<div class="ProductCard"><h4>کباب</h4><span class="price">90,000</span></div>
		<div class="ProductCard"><h4>جوجه</h4><span class="price">85,000</span></div>
	</body>`
	menu, err := ParseMenu(html, Selectors{})
	if err != nil {
		t.Fatal(err)
	}
	if len(menu.Categories) != 1 || menu.Categories[0].Name != "" {
		t.Fatalf("want one unnamed category, got %+v", menu.Categories)
	}
	if menu.ItemCount() != 2 {
		t.Errorf("items = %d, want 2", menu.ItemCount())
	}
}

func TestParseCardsFallback(t *testing.T) {
	html := `<body>
		<div class="weird-card">کوبیده
190,000 تومان</div>
		<div class="weird-card">برگ
230,000 تومان</div>
		<div class="weird-card">کوبیده
190,000 تومان</div>
	</body>`
	menu, err := ParseCards(html, []string{"div.weird-card"}, Selectors{})
	if err != nil {
		t.Fatal(err)
	}
	if menu.ItemCount() != 2 {
		t.Fatalf("items = %d, want 2 (duplicates collapsed)", menu.ItemCount())
	}
	it := menu.Categories[0].Items[0]
	if it.Name != "کوبیده" || it.FinalPrice != 190000 {
		t.Errorf("item = %+v", it)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"200,000 تومان", 200000, true},
		{"۲۵۰,۰۰۰", 250000, true},
		{"۱۵٬۰۰۰ تومان", 15000, true},
		{"قیمت: 85.000", 85000, true},
		{"رایگان", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePrice(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parsePrice(%q) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseDiscount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"۲۰٪ تخفیف", 20},
		{"15% off", 15},
		{"تخفیف", 0},
		{"500%", 0},
	}
	for _, tc := range cases {
		if got := parseDiscount(tc.in); got != tc.want {
			t.Errorf("parseDiscount(%q) = %v want %v", tc.in, got, tc.want)
		}
	}
}
