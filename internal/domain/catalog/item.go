// Package catalog holds the immutable product catalog: items with
// precomputed embeddings, loaded once at startup and read-only afterwards.
package catalog

import (
	"errors"
	"regexp"
	"strconv"
)

// dimPattern matches dimension tokens embedded in product names, e.g.
// "MALM Bed frame 160x200". First number is width, second is length.
var dimPattern = regexp.MustCompile(`(\d+)\s*[xXхХ]\s*(\d+)`)

// Item is one product in the furniture catalog.
type Item struct {
	id          string
	name        string
	price       string
	category    string
	imageRef    string
	productLink string
	embedding   []float32
	width       float64
	length      float64
	hasDims     bool
}

// NewItem creates a catalog item. The embedding must be non-empty: rows that
// failed to embed at catalog build time never enter a Catalog.
// Width and length are parsed from the name when a dimension token is present.
func NewItem(id, name, price, category, imageRef, productLink string, embedding []float32) (Item, error) {
	if id == "" {
		return Item{}, errors.New("catalog item id is required")
	}
	if len(embedding) == 0 {
		return Item{}, errors.New("catalog item embedding is required")
	}

	it := Item{
		id:          id,
		name:        name,
		price:       price,
		category:    category,
		imageRef:    imageRef,
		productLink: productLink,
		embedding:   embedding,
	}
	it.width, it.length, it.hasDims = parseDimensions(name)
	return it, nil
}

// ID returns the opaque item identifier.
func (i *Item) ID() string { return i.id }

// Name returns the free-text product name.
func (i *Item) Name() string { return i.name }

// Price returns the display price string.
func (i *Item) Price() string { return i.price }

// Category returns the free-text category label.
func (i *Item) Category() string { return i.category }

// ImageRef returns the local file handle or remote URL of the product image.
func (i *Item) ImageRef() string { return i.imageRef }

// ProductLink returns the outbound product URL.
func (i *Item) ProductLink() string { return i.productLink }

// Embedding returns the precomputed embedding vector.
func (i *Item) Embedding() []float32 { return i.embedding }

// Dimensions returns the (width, length) parsed from the name.
// ok is false when the name carries no dimension token.
func (i *Item) Dimensions() (width, length float64, ok bool) {
	return i.width, i.length, i.hasDims
}

func parseDimensions(name string) (width, length float64, ok bool) {
	m := dimPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	l, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return w, l, true
}
