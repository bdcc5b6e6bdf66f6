// Package style maps interior-design style names to descriptive phrases.
// A bare style word ("scandinavian") embeds poorly; the expanded multi-
// attribute description pulls the query vector toward the materials and
// colors the style actually implies.
package style

import (
	"sort"
	"strings"
)

var descriptions = map[string]string{
	"asian":         "black wood structure, bamboo texture, red accents, paper texture, dark brown timber, minimalist square shapes",
	"beach":         "light birch wood, rattan and wicker material, white painted wood, beige linen fabric, sand colors, light oak",
	"contemporary":  "curved furniture lines, smooth grey fabric, white and beige, round shapes, matte finish, soft texture",
	"craftsman":     "solid oak wood, thick vertical slats, dark brown timber, sturdy rectangular structure, natural wood grain",
	"eclectic":      "colorful fabric, velvet texture, mixed patterns, bright yellow or red or blue, unique asymmetric shape",
	"farmhouse":     "white painted wood, solid pine top, black metal cup handles, beige fabric, shaker style doors, rustic white",
	"industrial":    "black metal frame, dark rustic wood, vintage leather, concrete texture, wire mesh, rivets, dark grey",
	"mediterranean": "warm terracotta and orange colors, black wrought iron, dark rustic wood, heavy solid structure",
	"midcentury":    "walnut wood texture, tapered wooden legs, mustard yellow or olive green fabric, curved plywood, teak veneer",
	"modern":        "high gloss white finish, clear glass, chrome metal, sharp geometric lines, black and white monochrome, plastic",
	"rustic":        "solid pine wood, natural wood grain with knots, brown wood stain, rough timber surface, heavy wood construction",
	"scandinavian":  "light blonde wood, birch or pine, white color, light grey fabric, simple clean lines, plywood texture",
	"classic":       "dark brown wood veneer, panel doors with glass, classic metal handles, beige upholstery, formal shape",
	"transitional":  "grey fabric, dark wood legs, simple classic shape, neutral beige tones, clean finish",
	"tropical":      "natural rattan structure, cane webbing, green leaf patterns, bamboo, dark exotic wood",
	"boho":          "rattan, colorful textiles, plants, eclectic patterns",
}

// Describe resolves a known style name (case-insensitive) to its expanded
// description. Unknown text passes through unchanged.
func Describe(text string) string {
	if desc, ok := descriptions[strings.ToLower(text)]; ok {
		return desc
	}
	return text
}

// Names returns the known style names, sorted.
func Names() []string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptions returns a copy of the full style map.
func Descriptions() map[string]string {
	out := make(map[string]string, len(descriptions))
	for k, v := range descriptions {
		out[k] = v
	}
	return out
}
