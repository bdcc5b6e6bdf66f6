package catalog

import "fmt"

// Catalog is the ordered, read-only collection of items. Insertion order is
// significant: it is the tie-break order for equal final scores.
type Catalog struct {
	items []Item
	dim   int
}

// New creates a catalog. All item embeddings must share one dimensionality;
// the first item fixes it. An empty catalog is a valid degenerate state.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{items: items}
	if len(items) == 0 {
		return c, nil
	}

	c.dim = len(items[0].Embedding())
	for idx := range items {
		if d := len(items[idx].Embedding()); d != c.dim {
			return nil, fmt.Errorf("item %s: embedding dimension %d, catalog dimension %d",
				items[idx].ID(), d, c.dim)
		}
	}
	return c, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Dim returns the embedding dimensionality, 0 for an empty catalog.
func (c *Catalog) Dim() int { return c.dim }

// Items returns the items in insertion order. Callers must not mutate the slice.
func (c *Catalog) Items() []Item { return c.items }
