package survey

// Strategy is one independent detection heuristic. Detect proposes
// candidates with a raw confidence in [0,1]; the classifier derives the
// final confidence via combine. Strategies must not mutate the snapshot.
type Strategy interface {
	Name() string
	Weight() float64
	Detect(snap *Snapshot) ([]Element, error)
}

// combine is the single place a candidate's confidence is derived:
// raw strategy confidence times strategy weight, with raw clamped to
// [0,1]. Confidence is never assigned anywhere else, so a score can
// never be weighted twice.
func combine(raw, weight float64) float64 {
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return raw * weight
}

// element builds a candidate from a snapshot node with the final combined
// confidence.
func element(n Node, role Role, raw, weight float64) Element {
	return Element{
		Selector:   n.Selector,
		TagName:    n.TagName,
		Attributes: n.Attributes,
		Text:       n.Text,
		Visible:    n.Visible,
		Box:        n.Box,
		Confidence: combine(raw, weight),
		Role:       role,
	}
}
