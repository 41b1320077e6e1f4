package survey

import "sort"

const maxResultCards = 10

// dedupe merges candidates proposed by multiple strategies. Key is
// (tag, id, class); on collision the higher confidence wins outright.
// Confidences are never summed or averaged across strategies.
func dedupe(elements []Element) []Element {
	best := make(map[string]int, len(elements))
	var out []Element
	for _, el := range elements {
		key := el.dedupeKey()
		if i, seen := best[key]; seen {
			if el.Confidence > out[i].Confidence {
				out[i] = el
			}
			continue
		}
		best[key] = len(out)
		out = append(out, el)
	}
	return out
}

// rank orders candidates: confidence descending, then visible before
// hidden, then role priority as the final tie-break.
func rank(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Visible != b.Visible {
			return a.Visible
		}
		return a.Role > b.Role
	})
}

// recommend extracts the top-ranked element per role and the top result
// cards from an already-ranked list.
func recommend(ranked []Element) Recommendations {
	var rec Recommendations
	for i := range ranked {
		el := &ranked[i]
		switch el.Role {
		case RoleSearchInput:
			if rec.SearchInput == nil {
				rec.SearchInput = el
			}
		case RoleLocationInput:
			if rec.LocationInput == nil {
				rec.LocationInput = el
			}
		case RoleSearchButton:
			if rec.SearchButton == nil {
				rec.SearchButton = el
			}
		case RoleResultCard:
			if len(rec.ResultCards) < maxResultCards {
				rec.ResultCards = append(rec.ResultCards, el)
			}
		}
	}
	return rec
}
