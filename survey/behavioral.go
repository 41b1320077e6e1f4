package survey

// Prober performs the one real interaction the survey is allowed: focus an
// input and report whether a suggestion affordance (autocomplete dropdown,
// listbox) appeared. Implemented over the live page by PageProber; tests
// supply fakes.
type Prober interface {
	ProbeSuggestions(selector string) (bool, error)
}

// Behavioral focuses candidate inputs and watches for suggestion dropdowns.
// The most expensive and most fragile signal (it mutates page state), so
// it carries the smallest weight, runs last, and probes only a handful of
// inputs.
type Behavioral struct {
	Prober Prober

	// MaxProbes bounds interaction cost per survey. Zero means 5.
	MaxProbes int
}

func (Behavioral) Name() string    { return "behavioral" }
func (Behavioral) Weight() float64 { return 0.1 }

func (b Behavioral) Detect(snap *Snapshot) ([]Element, error) {
	if b.Prober == nil {
		return nil, nil
	}
	maxProbes := b.MaxProbes
	if maxProbes <= 0 {
		maxProbes = 5
	}

	var out []Element
	probed := 0
	for _, n := range snap.Nodes {
		if probed >= maxProbes {
			break
		}
		if !n.Visible || !isInputNode(n) {
			continue
		}
		probed++

		suggests, err := b.Prober.ProbeSuggestions(n.Selector)
		if err != nil || !suggests {
			continue
		}

		// A suggestion dropdown marks a live search-ish input. Attribute
		// hints decide between plain search and location.
		role := RoleSearchInput
		if containsAny(inputHints(n), locationWords) {
			role = RoleLocationInput
		}
		out = append(out, element(n, role, 0.8, b.Weight()))
	}
	return out, nil
}
