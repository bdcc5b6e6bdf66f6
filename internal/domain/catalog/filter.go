package catalog

import "strings"

// Match identifies which tier of the category filter produced the candidate set.
type Match string

const (
	// MatchUnfiltered means no category hint was given.
	MatchUnfiltered Match = "unfiltered"
	// MatchExact means the hint matched category labels verbatim.
	MatchExact Match = "exact"
	// MatchPartial means the normalized hint matched as a substring.
	MatchPartial Match = "partial"
	// MatchFallback means no tier matched and the full catalog is used.
	// Not an error: a filter miss degrades to "search everything", but it
	// signals vocabulary drift between the caller and the catalog.
	MatchFallback Match = "fallback"
)

// noHint is the sentinel some callers send instead of an empty hint.
const noHint = "None"

// FilterCategory narrows the candidate set by a requested category label,
// tolerating vocabulary drift between catalog versions. Ordered fallback,
// first non-empty tier wins; a total miss returns the full catalog.
// stripWords are generic qualifiers removed from the hint before the
// substring tier ("frame", "dining" by default).
func (c *Catalog) FilterCategory(hint string, stripWords []string) ([]Item, Match) {
	if hint == "" || hint == noHint {
		return c.items, MatchUnfiltered
	}

	var exact []Item
	for idx := range c.items {
		if c.items[idx].Category() == hint {
			exact = append(exact, c.items[idx])
		}
	}
	if len(exact) > 0 {
		return exact, MatchExact
	}

	if term := normalizeHint(hint, stripWords); term != "" {
		var partial []Item
		for idx := range c.items {
			if strings.Contains(strings.ToLower(c.items[idx].Category()), term) {
				partial = append(partial, c.items[idx])
			}
		}
		if len(partial) > 0 {
			return partial, MatchPartial
		}
	}

	return c.items, MatchFallback
}

// normalizeHint lower-cases the hint and removes generic qualifier words.
func normalizeHint(hint string, stripWords []string) string {
	fields := strings.Fields(strings.ToLower(hint))
	kept := fields[:0]

	for _, f := range fields {
		stripped := false
		for _, w := range stripWords {
			if f == strings.ToLower(w) {
				stripped = true
				break
			}
		}
		if !stripped {
			kept = append(kept, f)
		}
	}

	return strings.Join(kept, " ")
}
