package survey

// Visual classifies purely by bounding box: a wide short element near the
// top of the viewport looks like a search input, a small element beside it
// looks like its button, a large block below the fold looks like a result
// card. Weakest static signal, since it knows nothing about the element's
// meaning, but it is immune to attribute churn.
type Visual struct{}

func (Visual) Name() string    { return "visual" }
func (Visual) Weight() float64 { return 0.2 }

func (v Visual) Detect(snap *Snapshot) ([]Element, error) {
	var out []Element

	searchBoxes := v.detectSearchShaped(snap, &out)
	v.detectButtons(snap, searchBoxes, &out)
	v.detectCards(snap, &out)

	return out, nil
}

// detectSearchShaped finds wide, short, near-top boxes. The widest one is
// proposed as the search input; a second one is proposed as the location
// input (delivery storefronts stack the two).
func (v Visual) detectSearchShaped(snap *Snapshot, out *[]Element) []Node {
	if snap.ViewportWidth <= 0 {
		return nil
	}

	var shaped []Node
	for _, n := range snap.Nodes {
		if !n.Visible || n.Box == nil || !isInputNode(n) {
			continue
		}
		b := n.Box
		if b.Width >= 0.3*snap.ViewportWidth && b.Height <= 80 && b.Y < 300 {
			shaped = append(shaped, n)
		}
	}

	for i, n := range shaped {
		switch i {
		case 0:
			*out = append(*out, element(n, RoleSearchInput, 0.6, v.Weight()))
		case 1:
			*out = append(*out, element(n, RoleLocationInput, 0.4, v.Weight()))
		}
	}
	return shaped
}

// detectButtons proposes small clickables horizontally adjacent to a
// search-shaped box.
func (v Visual) detectButtons(snap *Snapshot, searchBoxes []Node, out *[]Element) {
	for _, n := range snap.Nodes {
		if !n.Visible || n.Box == nil || !isButtonNode(n) {
			continue
		}
		b := n.Box
		if b.Width > 180 || b.Height > 80 {
			continue
		}
		for _, sb := range searchBoxes {
			if verticalOverlap(b, sb.Box) && horizontalGap(b, sb.Box) < 60 {
				*out = append(*out, element(n, RoleSearchButton, 0.5, v.Weight()))
				break
			}
		}
	}
}

// detectCards proposes large blocks below the fold line.
func (v Visual) detectCards(snap *Snapshot, out *[]Element) {
	for _, n := range snap.Nodes {
		if !n.Visible || n.Box == nil || isInputNode(n) || isButtonNode(n) {
			continue
		}
		b := n.Box
		if b.Width >= 200 && b.Height >= 120 && b.Y > 300 {
			*out = append(*out, element(n, RoleResultCard, 0.55, v.Weight()))
		}
	}
}

func verticalOverlap(a, b *Box) bool {
	return a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

func horizontalGap(a, b *Box) float64 {
	if a.X > b.X+b.Width {
		return a.X - (b.X + b.Width)
	}
	if b.X > a.X+a.Width {
		return b.X - (a.X + a.Width)
	}
	return 0
}
