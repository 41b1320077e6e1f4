package survey

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/go-rod/rod"
)

// fixedStrategy emits a canned element list.
type fixedStrategy struct {
	name     string
	weight   float64
	elements []Element
	err      error
	panics   bool
}

func (f fixedStrategy) Name() string    { return f.name }
func (f fixedStrategy) Weight() float64 { return f.weight }
func (f fixedStrategy) Detect(*Snapshot) ([]Element, error) {
	if f.panics {
		panic("selector API exploded")
	}
	return f.elements, f.err
}

func el(tag, id, class string, role Role, conf float64, visible bool) Element {
	return Element{
		Selector:   "#" + id,
		TagName:    tag,
		Attributes: map[string]string{"id": id, "class": class},
		Visible:    visible,
		Confidence: conf,
		Role:       role,
	}
}

func classifierWith(t *testing.T, strategies ...Strategy) *Classifier {
	t.Helper()
	return NewClassifier(slog.Default(), WithStrategies(strategies...))
}

func TestCombine(t *testing.T) {
	if got := combine(0.9, 0.4); math.Abs(got-0.36) > 1e-9 {
		t.Errorf("combine(0.9, 0.4) = %v, want 0.36", got)
	}
	if got := combine(1.5, 0.4); got != 0.4 {
		t.Errorf("combine clamps raw above 1: got %v, want 0.4", got)
	}
	if got := combine(-1, 0.4); got != 0 {
		t.Errorf("combine clamps raw below 0: got %v, want 0", got)
	}
}

func TestClassify_DedupeKeepsMaxConfidence(t *testing.T) {
	a := el("input", "q", "search", RoleSearchInput, 0.3, true)
	b := el("input", "q", "search", RoleSearchInput, 0.7, true)

	c := classifierWith(t,
		fixedStrategy{name: "low", elements: []Element{a}},
		fixedStrategy{name: "high", elements: []Element{b}},
	)
	res := c.Classify(&Snapshot{})

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1 after dedupe", len(res.Elements))
	}
	if res.Elements[0].Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7 (max wins, not sum)", res.Elements[0].Confidence)
	}
}

func TestClassify_TieBreakRolePriority(t *testing.T) {
	card := el("div", "card1", "card", RoleResultCard, 0.5, true)
	search := el("input", "q", "search", RoleSearchInput, 0.5, true)

	c := classifierWith(t, fixedStrategy{name: "s", elements: []Element{card, search}})
	res := c.Classify(&Snapshot{})

	if res.Elements[0].Role != RoleSearchInput {
		t.Errorf("top element role = %v, want search_input (role priority tie-break)",
			res.Elements[0].Role)
	}
}

func TestClassify_VisibilityBeforeRole(t *testing.T) {
	hidden := el("input", "q", "search", RoleSearchInput, 0.5, false)
	visibleCard := el("div", "card1", "card", RoleResultCard, 0.5, true)

	c := classifierWith(t, fixedStrategy{name: "s", elements: []Element{hidden, visibleCard}})
	res := c.Classify(&Snapshot{})

	if !res.Elements[0].Visible {
		t.Error("visible element should rank above hidden at equal confidence")
	}
}

func TestClassify_FaultyStrategyDropped(t *testing.T) {
	good := el("input", "q", "search", RoleSearchInput, 0.6, true)

	c := classifierWith(t,
		fixedStrategy{name: "broken", err: errors.New("selector failed")},
		fixedStrategy{name: "panicky", panics: true},
		fixedStrategy{name: "good", elements: []Element{good}},
	)
	res := c.Classify(&Snapshot{})

	if len(res.Elements) != 1 {
		t.Fatalf("elements = %d, want 1 (faulty strategies dropped, survey continues)", len(res.Elements))
	}
	if res.Recommendations.SearchInput == nil {
		t.Error("expected search input recommendation from the surviving strategy")
	}
}

func TestClassify_AbsentRoleIsNil(t *testing.T) {
	c := classifierWith(t, fixedStrategy{name: "empty"})
	res := c.Classify(&Snapshot{})

	rec := res.Recommendations
	if rec.SearchInput != nil || rec.LocationInput != nil || rec.SearchButton != nil {
		t.Error("expected nil recommendations for absent roles")
	}
	if len(rec.ResultCards) != 0 {
		t.Errorf("result cards = %d, want 0", len(rec.ResultCards))
	}
}

func TestClassify_ResultCardsCapped(t *testing.T) {
	var cards []Element
	for i := range 15 {
		cards = append(cards, el("div", fmt.Sprintf("card%d", i), "card",
			RoleResultCard, 0.5+float64(i)/100, true))
	}

	c := classifierWith(t, fixedStrategy{name: "cards", elements: cards})
	res := c.Classify(&Snapshot{})

	if len(res.Recommendations.ResultCards) != maxResultCards {
		t.Errorf("cards = %d, want %d", len(res.Recommendations.ResultCards), maxResultCards)
	}
	// Highest confidence card first.
	if res.Recommendations.ResultCards[0].Attributes["id"] != "card14" {
		t.Errorf("top card = %q, want card14",
			res.Recommendations.ResultCards[0].Attributes["id"])
	}
}

func TestClassify_Deterministic(t *testing.T) {
	elements := []Element{
		el("input", "q", "search", RoleSearchInput, 0.36, true),
		el("button", "go", "btn", RoleSearchButton, 0.24, true),
		el("div", "card1", "card", RoleResultCard, 0.14, true),
	}
	c := classifierWith(t, fixedStrategy{name: "s", elements: elements})
	snap := &Snapshot{PageURL: "https://example.com/vendor"}

	first := c.Classify(snap)
	second := c.Classify(snap)

	if !reflect.DeepEqual(first.Elements, second.Elements) {
		t.Error("ranked element list differs between identical surveys")
	}
	if !reflect.DeepEqual(first.Recommendations, second.Recommendations) {
		t.Error("recommendations differ between identical surveys")
	}
}

// Semantic strategy against realistic nodes.

func semanticSnapshot() *Snapshot {
	return &Snapshot{
		ViewportWidth:  1280,
		ViewportHeight: 800,
		Nodes: []Node{
			{
				Selector: "#search", TagName: "input", Visible: true,
				Attributes: map[string]string{"id": "search", "placeholder": "جستجو در رستوران‌ها", "type": "text"},
				Box:        &Box{X: 100, Y: 60, Width: 600, Height: 40},
			},
			{
				// Visually dominant phone input: must never become the search box.
				Selector: "#phone", TagName: "input", Visible: true,
				Attributes: map[string]string{"id": "phone", "placeholder": "شماره تلفن همراه", "type": "text"},
				Box:        &Box{X: 100, Y: 120, Width: 900, Height: 60},
			},
			{
				Selector: "#addr", TagName: "input", Visible: true,
				Attributes: map[string]string{"id": "addr", "placeholder": "آدرس خود را وارد کنید", "type": "text"},
				Box:        &Box{X: 100, Y: 180, Width: 600, Height: 40},
			},
			{
				Selector: "#go", TagName: "button", Visible: true,
				Attributes: map[string]string{"id": "go", "class": "search-btn"},
				Text:       "جستجو",
				Box:        &Box{X: 710, Y: 60, Width: 80, Height: 40},
			},
		},
	}
}

func TestSemantic_ExclusionBeatsProminence(t *testing.T) {
	c := NewClassifier(slog.Default())
	res := c.Classify(semanticSnapshot())

	rec := res.Recommendations
	if rec.SearchInput == nil {
		t.Fatal("expected a search input recommendation")
	}
	if got := rec.SearchInput.Attributes["id"]; got != "search" {
		t.Errorf("search input = %q, want %q (phone input excluded regardless of size)", got, "search")
	}
	if rec.LocationInput != nil && rec.LocationInput.Attributes["id"] == "phone" {
		t.Error("phone input recommended as location input")
	}
}

func TestSemantic_LocationAndButton(t *testing.T) {
	c := NewClassifier(slog.Default())
	rec := c.Classify(semanticSnapshot()).Recommendations

	if rec.LocationInput == nil || rec.LocationInput.Attributes["id"] != "addr" {
		t.Errorf("location input = %+v, want #addr", rec.LocationInput)
	}
	if rec.SearchButton == nil || rec.SearchButton.Attributes["id"] != "go" {
		t.Errorf("search button = %+v, want #go", rec.SearchButton)
	}
}

func TestSemantic_PositionalFallback(t *testing.T) {
	snap := &Snapshot{
		ViewportWidth: 1280,
		Nodes: []Node{{
			Selector: "#mystery", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "mystery", "type": "text"},
			Box:        &Box{X: 100, Y: 80, Width: 700, Height: 44},
		}},
	}
	found, err := Semantic{}.Detect(snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Role != RoleSearchInput {
		t.Fatalf("positional fallback: got %+v, want one search input", found)
	}
	if found[0].Confidence >= combine(0.9, 0.4) {
		t.Error("fallback confidence should be below a keyword match")
	}
}

// Pattern strategy: first non-empty pattern wins per role.

func TestPattern_FirstMatchSetWins(t *testing.T) {
	snap := &Snapshot{Nodes: []Node{
		{
			Selector: "#a", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "a", "type": "search"},
		},
		{
			Selector: "#b", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "b", "class": "search-field"},
		},
	}}
	found, err := Pattern{}.Detect(snap)
	if err != nil {
		t.Fatal(err)
	}

	var inputs []Element
	for _, e := range found {
		if e.Role == RoleSearchInput {
			inputs = append(inputs, e)
		}
	}
	if len(inputs) != 1 {
		t.Fatalf("search inputs = %d, want 1 (type=search pattern wins, class pattern never consulted)", len(inputs))
	}
	if inputs[0].Attributes["id"] != "a" {
		t.Errorf("matched %q, want #a", inputs[0].Attributes["id"])
	}
}

func TestPattern_RoleOrderStable(t *testing.T) {
	// One input whose placeholder matches the strongest pattern of two
	// roles with equal confidence. Dedupe keeps the first candidate on a
	// tie, so the retained role must not depend on iteration order.
	snap := &Snapshot{Nodes: []Node{
		{
			Selector: "#q", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "q", "placeholder": "جستجو آدرس"},
		},
	}}

	c := classifierWith(t, Pattern{})
	for i := 0; i < 100; i++ {
		res := c.Classify(snap)
		if len(res.Elements) != 1 {
			t.Fatalf("elements = %d, want 1 after dedupe", len(res.Elements))
		}
		if got := res.Elements[0].Role; got != RoleSearchInput {
			t.Fatalf("iteration %d: retained role = %s, want search_input every run", i, got)
		}
		if res.Recommendations.SearchInput == nil {
			t.Fatalf("iteration %d: no search input recommendation", i)
		}
	}
}

// Visual strategy.

func TestVisual_BoundingBoxClassification(t *testing.T) {
	snap := &Snapshot{
		ViewportWidth: 1280,
		Nodes: []Node{
			{
				Selector: "#wide", TagName: "input", Visible: true,
				Attributes: map[string]string{"id": "wide"},
				Box:        &Box{X: 100, Y: 50, Width: 700, Height: 44},
			},
			{
				Selector: "#btn", TagName: "button", Visible: true,
				Attributes: map[string]string{"id": "btn"},
				Box:        &Box{X: 810, Y: 52, Width: 90, Height: 40},
			},
			{
				Selector: "#card", TagName: "div", Visible: true,
				Attributes: map[string]string{"id": "card", "class": "listing"},
				Box:        &Box{X: 100, Y: 500, Width: 350, Height: 220},
			},
		},
	}
	found, err := Visual{}.Detect(snap)
	if err != nil {
		t.Fatal(err)
	}

	roles := map[string]Role{}
	for _, e := range found {
		roles[e.Attributes["id"]] = e.Role
	}
	if roles["wide"] != RoleSearchInput {
		t.Errorf("#wide = %v, want search_input", roles["wide"])
	}
	if roles["btn"] != RoleSearchButton {
		t.Errorf("#btn = %v, want search_button", roles["btn"])
	}
	if roles["card"] != RoleResultCard {
		t.Errorf("#card = %v, want result_card", roles["card"])
	}
}

// Behavioral strategy with a fake prober.

type fakeProber struct {
	suggests map[string]bool
	calls    int
}

func (f *fakeProber) ProbeSuggestions(selector string) (bool, error) {
	f.calls++
	return f.suggests[selector], nil
}

func TestBehavioral_SuggestionEvidence(t *testing.T) {
	snap := &Snapshot{Nodes: []Node{
		{Selector: "#q", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "q"}},
		{Selector: "#other", TagName: "input", Visible: true,
			Attributes: map[string]string{"id": "other"}},
	}}
	p := &fakeProber{suggests: map[string]bool{"#q": true}}

	found, err := Behavioral{Prober: p}.Detect(snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Selector != "#q" {
		t.Fatalf("found = %+v, want only #q", found)
	}
	if found[0].Role != RoleSearchInput {
		t.Errorf("role = %v, want search_input", found[0].Role)
	}
	if p.calls != 2 {
		t.Errorf("probe calls = %d, want 2", p.calls)
	}
}

func TestBehavioral_NilProberDisabled(t *testing.T) {
	found, err := Behavioral{}.Detect(&Snapshot{Nodes: []Node{
		{Selector: "#q", TagName: "input", Visible: true, Attributes: map[string]string{}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil with no prober", found)
	}
}

func TestLiveProbingBindsBehavioralToPage(t *testing.T) {
	c := NewClassifier(slog.Default(), WithLiveProbing())
	static := len(c.strategies)

	page := &rod.Page{}
	strategies := c.surveyStrategies(page)
	if len(strategies) != static+1 {
		t.Fatalf("survey strategies = %d, want the static set plus behavioral", len(strategies))
	}
	b, ok := strategies[len(strategies)-1].(Behavioral)
	if !ok {
		t.Fatalf("appended strategy = %T, want Behavioral", strategies[len(strategies)-1])
	}
	p, ok := b.Prober.(*PageProber)
	if !ok || p.Page != page {
		t.Errorf("prober = %+v, want a PageProber bound to the surveyed page", b.Prober)
	}

	// The static strategy set is untouched, so offline Classify stays
	// interaction-free.
	if len(c.strategies) != static {
		t.Errorf("static strategies = %d after survey, want %d", len(c.strategies), static)
	}
}

func TestBehavioral_ProbeBudget(t *testing.T) {
	var nodes []Node
	for i := range 10 {
		nodes = append(nodes, Node{
			Selector: fmt.Sprintf("#in%d", i), TagName: "input", Visible: true,
			Attributes: map[string]string{},
		})
	}
	p := &fakeProber{suggests: map[string]bool{}}

	if _, err := (Behavioral{Prober: p, MaxProbes: 3}).Detect(&Snapshot{Nodes: nodes}); err != nil {
		t.Fatal(err)
	}
	if p.calls != 3 {
		t.Errorf("probe calls = %d, want 3 (budget enforced)", p.calls)
	}
}
