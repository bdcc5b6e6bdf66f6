package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/casai-labs/furnish/internal/domain/catalog"
	"github.com/casai-labs/furnish/internal/domain/query"
	"github.com/casai-labs/furnish/internal/domain/rank"
	"github.com/casai-labs/furnish/internal/domain/style"
)

func mustQuery(t *testing.T, text string, image []byte, opts ...query.Option) query.Query {
	t.Helper()
	q, err := query.New(text, image, opts...)
	if err != nil {
		t.Fatalf("new query: %v", err)
	}
	return q
}

func resultIDs(t *testing.T, svc *Service, q query.Query) []string {
	t.Helper()
	results, _, err := svc.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	return resultIDsOf(results)
}

func resultIDsOf(results []rank.Result) []string {
	ids := make([]string, len(results))
	for i := range results {
		item := results[i].Item()
		ids[i] = item.ID()
	}
	return ids
}

func TestRecommend_TextRanking(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "sofa", name: "Blue Sofa", category: "Sofas", embedding: []float32{1, 0}},
		itemSpec{id: "chair", name: "Red Chair", category: "Chairs", embedding: []float32{0, 1}},
	)
	embed := &mockEmbedder{vecs: map[string][]float32{"blue couch": {1, 0}}}
	svc := newTestService(t, cat, embed, nil)

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, "blue couch", nil))
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	ids := resultIDsOf(results)
	if len(ids) != 2 || ids[0] != "sofa" || ids[1] != "chair" {
		t.Fatalf("unexpected ranking: %v", ids)
	}
	if sim := results[0].Similarity(); math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("expected sofa similarity 1.0, got %f", sim)
	}
	if sim := results[1].Similarity(); math.Abs(sim) > 1e-6 {
		t.Errorf("expected chair similarity 0.0, got %f", sim)
	}
}

func TestRecommend_ImageRanking(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "sofa", name: "Blue Sofa", category: "Sofas", embedding: []float32{1, 0}},
		itemSpec{id: "chair", name: "Red Chair", category: "Chairs", embedding: []float32{0, 1}},
	)
	imgEmbed := &mockImageEmbedder{vec: []float32{0, 1}}
	svc := newTestService(t, cat, nil, imgEmbed)

	ids := resultIDs(t, svc, mustQuery(t, "", []byte{0x01}))
	if len(ids) != 2 || ids[0] != "chair" {
		t.Fatalf("expected chair first for image query, got %v", ids)
	}
	if imgEmbed.calls != 1 {
		t.Errorf("expected 1 image embed call, got %d", imgEmbed.calls)
	}
}

func TestRecommend_AlphaBlend(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "sofa", name: "Blue Sofa", category: "Sofas", embedding: []float32{1, 0}},
		itemSpec{id: "chair", name: "Red Chair", category: "Chairs", embedding: []float32{0, 1}},
	)
	embed := &mockEmbedder{def: []float32{1, 0}}
	imgEmbed := &mockImageEmbedder{vec: []float32{0, 1}}
	svc := newTestService(t, cat, embed, imgEmbed)

	// alpha=1: image contributes nothing, ranking follows the text vector
	ids := resultIDs(t, svc, mustQuery(t, "blue couch", []byte{0x01}, query.WithAlpha(1)))
	if ids[0] != "sofa" {
		t.Errorf("alpha=1: expected sofa first, got %v", ids)
	}

	// alpha=0: text contributes nothing, ranking follows the image vector
	ids = resultIDs(t, svc, mustQuery(t, "blue couch", []byte{0x01}, query.WithAlpha(0)))
	if ids[0] != "chair" {
		t.Errorf("alpha=0: expected chair first, got %v", ids)
	}

	// alpha=0.5: equidistant from both items, stable sort keeps catalog order
	ids = resultIDs(t, svc, mustQuery(t, "blue couch", []byte{0x01}, query.WithAlpha(0.5)))
	if ids[0] != "sofa" || ids[1] != "chair" {
		t.Errorf("alpha=0.5: expected catalog order on tie, got %v", ids)
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{0.3, 0.7}},
		itemSpec{id: "b", name: "B", category: "Sofas", embedding: []float32{0.7, 0.3}},
		itemSpec{id: "c", name: "C", category: "Sofas", embedding: []float32{0.5, 0.5}},
	)
	svc := newTestService(t, cat, &mockEmbedder{def: []float32{0.6, 0.4}}, nil)
	q := mustQuery(t, "blue couch", nil)

	first := resultIDs(t, svc, q)
	for i := 0; i < 5; i++ {
		again := resultIDs(t, svc, q)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: ranking changed from %v to %v", i, first, again)
			}
		}
	}
}

func TestRecommend_StyleExpansion(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{1, 0}},
	)
	embed := &mockEmbedder{def: []float32{1, 0}}
	svc := newTestService(t, cat, embed, nil)

	if _, _, err := svc.Recommend(context.Background(), mustQuery(t, "Scandinavian", nil)); err != nil {
		t.Fatalf("recommend: %v", err)
	}

	want := style.Describe("Scandinavian")
	if want == "Scandinavian" {
		t.Fatal("expected Scandinavian to have a style description")
	}
	if embed.lastText != want {
		t.Errorf("expected embedder to receive the style description, got %q", embed.lastText)
	}
}

func TestRecommend_CategoryTiers(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "bed1", name: "Bed 160x200", category: "Beds", embedding: []float32{1, 0}},
		itemSpec{id: "chair1", name: "Chair", category: "Chairs", embedding: []float32{0, 1}},
	)
	svc := newTestService(t, cat, &mockEmbedder{def: []float32{1, 1}}, nil)

	tests := []struct {
		name      string
		hint      string
		wantMatch catalog.Match
		wantIDs   int
	}{
		{"no hint", "", catalog.MatchUnfiltered, 2},
		{"exact", "Beds", catalog.MatchExact, 1},
		{"partial after strip", "Chair frame", catalog.MatchPartial, 1},
		{"fallback", "Wardrobes", catalog.MatchFallback, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []query.Option{}
			if tt.hint != "" {
				opts = append(opts, query.WithCategoryHint(tt.hint))
			}
			results, match, err := svc.Recommend(context.Background(), mustQuery(t, "bench", nil, opts...))
			if err != nil {
				t.Fatalf("recommend: %v", err)
			}
			if match != tt.wantMatch {
				t.Errorf("expected match %s, got %s", tt.wantMatch, match)
			}
			if len(results) != tt.wantIDs {
				t.Errorf("expected %d results, got %d", tt.wantIDs, len(results))
			}
		})
	}
}

func TestRecommend_DimensionPenalty(t *testing.T) {
	// Same embeddings: similarity ties, the penalty decides the order.
	cat := newTestCatalog(t,
		itemSpec{id: "small", name: "Bed 100x200", category: "Beds", embedding: []float32{1, 0}},
		itemSpec{id: "exact", name: "Bed 160x200", category: "Beds", embedding: []float32{1, 0}},
	)
	svc := newTestService(t, cat, &mockEmbedder{def: []float32{1, 0}}, nil)

	// Without a target the tie holds and catalog order wins.
	ids := resultIDs(t, svc, mustQuery(t, "bed", nil))
	if ids[0] != "small" {
		t.Fatalf("expected catalog order without target, got %v", ids)
	}

	// With a target the exact-size item outranks insertion order.
	q := mustQuery(t, "bed", nil, query.WithTargetDimensions(160, 200))
	results, _, err := svc.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	first := results[0].Item()
	if first.ID() != "exact" {
		t.Fatalf("expected exact-size item first, got %s", first.ID())
	}

	// exact: penalty 0, final == similarity
	if math.Abs(results[0].FinalScore()-results[0].Similarity()) > 1e-12 {
		t.Errorf("expected zero penalty for exact size, got final=%g sim=%g",
			results[0].FinalScore(), results[0].Similarity())
	}
	// small: penalty = 0.4 * ((60/160 + 0) / 2) = 0.075
	wantFinal := results[1].Similarity() - 0.075
	if math.Abs(results[1].FinalScore()-wantFinal) > 1e-9 {
		t.Errorf("expected final %g, got %g", wantFinal, results[1].FinalScore())
	}
}

func TestRecommend_NoPenaltyWithoutParsedDimensions(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "nodims", name: "Bed", category: "Beds", embedding: []float32{1, 0}},
	)
	svc := newTestService(t, cat, &mockEmbedder{def: []float32{1, 0}}, nil)

	q := mustQuery(t, "bed", nil, query.WithTargetDimensions(160, 200))
	results, _, err := svc.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if results[0].FinalScore() != results[0].Similarity() {
		t.Errorf("dimensionless item must not be penalized: final=%g sim=%g",
			results[0].FinalScore(), results[0].Similarity())
	}
}

func TestRecommend_TopK(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{1, 0}},
		itemSpec{id: "b", name: "B", category: "Sofas", embedding: []float32{0.9, 0.1}},
		itemSpec{id: "c", name: "C", category: "Sofas", embedding: []float32{0, 1}},
	)
	svc := newTestService(t, cat, &mockEmbedder{def: []float32{1, 0}}, nil)

	ids := resultIDs(t, svc, mustQuery(t, "sofa", nil, query.WithTopK(2)))
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected top 2 [a b], got %v", ids)
	}

	// default topK exceeds catalog size: everything comes back
	ids = resultIDs(t, svc, mustQuery(t, "sofa", nil))
	if len(ids) != 3 {
		t.Fatalf("expected all 3 results, got %d", len(ids))
	}
}

func TestRecommend_MaxTopKCap(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{1, 0}},
		itemSpec{id: "b", name: "B", category: "Sofas", embedding: []float32{0, 1}},
	)
	opts := defaultOptions()
	opts.MaxTopK = 1
	svc := New(cat, &mockEmbedder{def: []float32{1, 0}}, nil, opts)

	ids := resultIDs(t, svc, mustQuery(t, "sofa", nil, query.WithTopK(50)))
	if len(ids) != 1 {
		t.Fatalf("expected cap at 1 result, got %d", len(ids))
	}
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	cat, err := catalog.New(nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	embed := &mockEmbedder{def: []float32{1, 0}}
	svc := newTestService(t, cat, embed, nil)

	results, match, err := svc.Recommend(context.Background(), mustQuery(t, "sofa", nil))
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
	if match != catalog.MatchUnfiltered {
		t.Errorf("expected unfiltered match, got %s", match)
	}
	if embed.calls != 0 {
		t.Errorf("expected no embed calls for empty catalog, got %d", embed.calls)
	}
}

func TestRecommend_EmbedErrorPropagates(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{1, 0}},
	)
	wantErr := errors.New("provider down")
	svc := newTestService(t, cat, &mockEmbedder{err: wantErr}, nil)

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, "sofa", nil))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestRecommend_ImageEmbedErrorPropagates(t *testing.T) {
	cat := newTestCatalog(t,
		itemSpec{id: "a", name: "A", category: "Sofas", embedding: []float32{1, 0}},
	)
	wantErr := errors.New("bad image")
	imgEmbed := &mockImageEmbedder{err: wantErr}
	svc := newTestService(t, cat, nil, imgEmbed)

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, "", []byte{0x01}))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected image error, got %v", err)
	}
}
