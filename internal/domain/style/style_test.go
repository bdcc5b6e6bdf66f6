package style

import (
	"strings"
	"testing"
)

func TestDescribe_KnownStyle(t *testing.T) {
	desc := Describe("scandinavian")
	if !strings.Contains(desc, "light blonde wood") {
		t.Errorf("unexpected description: %q", desc)
	}
}

func TestDescribe_CaseInsensitive(t *testing.T) {
	if Describe("Scandinavian") != Describe("scandinavian") {
		t.Error("style lookup must be case-insensitive")
	}
}

func TestDescribe_UnknownPassesThrough(t *testing.T) {
	in := "green velvet sofa with wooden legs"
	if got := Describe(in); got != in {
		t.Errorf("unknown text must pass through unchanged, got %q", got)
	}
}

func TestNames_SortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 16 {
		t.Fatalf("expected 16 styles, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestDescriptions_ReturnsCopy(t *testing.T) {
	m := Descriptions()
	m["boho"] = "mutated"
	if Describe("boho") == "mutated" {
		t.Error("Descriptions must return a copy")
	}
}
