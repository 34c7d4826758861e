package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/enrich"
	"github.com/cinerec/cinerec/model"
)

const engineTestCatalog = `id,title,genres
27205,Inception,Action|Sci-Fi|Thriller
157336,Interstellar,Adventure|Drama|Sci-Fi
155,The Dark Knight,Action|Crime|Drama
19404,Dilwale Dulhania Le Jayenge,Comedy|Drama|Romance
105,Back to the Future,Adventure|Comedy|Sci-Fi
620,Ghostbusters,Comedy|Fantasy
`

func newTestModels(t *testing.T) *model.Store {
	t.Helper()
	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "catalog.csv")
	if err := os.WriteFile(catalogPath, []byte(engineTestCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	const dim = 6
	rows := make([][]float32, dim)
	for i := range rows {
		rows[i] = make([]float32, dim)
		for j := range rows[i] {
			rows[i][j] = float32(1.0 / (1.0 + math.Abs(float64(i-j))))
		}
	}
	simPath := filepath.Join(dir, "similarity.bin")
	if err := model.WriteSimilarityMatrix(simPath, rows); err != nil {
		t.Fatal(err)
	}

	svdPath := filepath.Join(dir, "svd.json")
	svd := `{"global_mean": 3.5, "user_bias": {}, "item_bias": {}, "user_factors": {}, "item_factors": {}}`
	if err := os.WriteFile(svdPath, []byte(svd), 0o644); err != nil {
		t.Fatal(err)
	}

	nbPath := filepath.Join(dir, "classifier.json")
	nb := &model.NBClassifier{
		Classes:       []string{"joy", "sadness"},
		ClassLogPrior: []float64{math.Log(0.5), math.Log(0.5)},
		TokenLogProb: map[string][]float64{
			"happy": {math.Log(0.9), math.Log(0.1)},
			"sad":   {math.Log(0.1), math.Log(0.9)},
		},
		UnknownLogProb: []float64{math.Log(0.01), math.Log(0.01)},
	}
	if err := model.SaveNBClassifier(nbPath, nb); err != nil {
		t.Fatal(err)
	}

	s := model.NewStore(model.Options{
		CatalogPath:    catalogPath,
		SimilarityPath: simPath,
		SVDPath:        svdPath,
		ClassifierPath: nbPath,
	})
	t.Cleanup(func() { s.Close() })
	return s
}

// posterProvider 给每个 id 返回带海报的记录，可按 id 定向失败。
type posterProvider struct {
	mu    sync.Mutex
	calls int
	fail  map[int64]bool
}

func (p *posterProvider) Details(_ context.Context, id int64) (*core.EnrichedMovie, error) {
	p.mu.Lock()
	p.calls++
	failed := p.fail[id]
	p.mu.Unlock()
	if failed {
		return nil, fmt.Errorf("tmdb: movie %d: status 500", id)
	}
	return &core.EnrichedMovie{
		ID:        id,
		Title:     fmt.Sprintf("Movie %d", id),
		PosterURL: fmt.Sprintf("https://image.tmdb.org/t/p/w500/%d.jpg", id),
	}, nil
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithEnricher(&enrich.Node{Provider: &posterProvider{}, Cache: enrich.NewCache(64)}),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return New(newTestModels(t), append(base, opts...)...)
}

func TestRecommendMoodBranch(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{
		UserID:   "guest-new",
		MoodText: "I am so happy today!!! 2024",
		N:        2,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if result.Emotion != "joy" {
		t.Errorf("detected emotion = %q, want joy", result.Emotion)
	}
	if result.Label != "Joy Recommendations" {
		t.Errorf("label = %q, want \"Joy Recommendations\"", result.Label)
	}
	if len(result.Main) == 0 || len(result.Main) > 2 {
		t.Errorf("main list length = %d, want 1..2", len(result.Main))
	}
	for _, m := range result.Main {
		if m.PosterURL == "" {
			t.Errorf("main entry %d kept with empty poster", m.ID)
		}
	}
	// personalized shelf is always present, capped at the catalog size here
	if len(result.Personalized) != 6 {
		t.Errorf("personalized length = %d, want 6", len(result.Personalized))
	}
}

func TestRecommendQueryBranch(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{
		UserID: "42",
		Query:  "Inception",
		N:      3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Label != "Similar to 'Inception'" {
		t.Errorf("label = %q", result.Label)
	}
	if result.Emotion != "" {
		t.Errorf("query branch set emotion %q", result.Emotion)
	}
	if len(result.Main) != 3 {
		t.Errorf("main length = %d, want 3", len(result.Main))
	}
	for _, m := range result.Main {
		if m.ID == 27205 {
			t.Error("query title leaked into its own similar list")
		}
	}
}

func TestRecommendUnknownQueryFallback(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{
		UserID: "42",
		Query:  "Unknown Movie Title",
		N:      4,
	})
	if err != nil {
		t.Fatalf("unknown title must not error: %v", err)
	}
	if len(result.Main) != 4 {
		t.Errorf("fallback main length = %d, want 4", len(result.Main))
	}
}

func TestRecommendNoBranch(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{UserID: "42"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Label != "Only For You" {
		t.Errorf("label = %q, want \"Only For You\"", result.Label)
	}
	if len(result.Main) != 0 {
		t.Errorf("main should be empty without mood or query, got %d", len(result.Main))
	}
	if len(result.Personalized) == 0 {
		t.Error("personalized shelf missing")
	}
}

func TestRecommendMoodBeatsQuery(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{
		UserID:   "42",
		MoodText: "so happy",
		Query:    "Inception",
		N:        2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Label != "Joy Recommendations" {
		t.Errorf("mood input must win over query, label = %q", result.Label)
	}
}

func TestRecommendNegativeN(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Recommend(context.Background(), &Request{
		UserID: "42",
		Query:  "Inception",
		N:      -5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Main) != 0 {
		t.Errorf("negative n clamps to 0, got %d main entries", len(result.Main))
	}
}

func TestRecommendDegradedEnrichmentFiltered(t *testing.T) {
	provider := &posterProvider{fail: map[int64]bool{27205: true, 157336: true, 155: true, 19404: true, 105: true, 620: true}}
	eng := New(newTestModels(t),
		WithEnricher(&enrich.Node{Provider: provider, Cache: enrich.NewCache(64)}),
		WithRand(rand.New(rand.NewSource(1))),
	)

	result, err := eng.Recommend(context.Background(), &Request{UserID: "42", Query: "Inception", N: 3})
	if err != nil {
		t.Fatalf("total enrichment failure must not error: %v", err)
	}
	// degraded records have no poster and are excluded by the display filter
	if len(result.Main) != 0 || len(result.Personalized) != 0 {
		t.Errorf("degraded records kept: main=%d personalized=%d", len(result.Main), len(result.Personalized))
	}
}

func TestSuggest(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	suggestions, err := eng.Suggest(ctx, "the", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}
	if suggestions[0].Title != "The Dark Knight" || suggestions[1].Title != "Back to the Future" {
		t.Errorf("suggestion order = %q, %q (catalog order expected)", suggestions[0].Title, suggestions[1].Title)
	}

	if s, err := eng.Suggest(ctx, "zzz", 10); err != nil || len(s) != 0 {
		t.Errorf("no-match suggest = %v, %v", s, err)
	}
}

func TestRecommendBadArtifacts(t *testing.T) {
	s := model.NewStore(model.Options{
		CatalogPath:    filepath.Join(t.TempDir(), "missing.csv"),
		SimilarityPath: "nope",
		SVDPath:        "nope",
		ClassifierPath: "nope",
	})
	eng := New(s)
	_, err := eng.Recommend(context.Background(), &Request{UserID: "42"})
	if err == nil {
		t.Fatal("expected startup error for missing artifacts")
	}
	if !core.IsBadArtifact(err) {
		t.Errorf("error not classified as bad artifact: %v", err)
	}
}

func TestRecommendConcurrentSharedRand(t *testing.T) {
	// one engine, one injected random source, many in-flight requests:
	// the unknown-title and short-pool fallbacks both draw from it
	eng := newTestEngine(t, WithRand(rand.New(rand.NewSource(3))))

	requests := []*Request{
		{UserID: "guest-a", Query: "Unknown Movie Title", N: 4},
		{UserID: "guest-b", MoodText: "so happy today", N: 4},
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		req := requests[i%len(requests)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := eng.Recommend(context.Background(), req)
			if err != nil {
				t.Errorf("Recommend: %v", err)
				return
			}
			if len(result.Personalized) == 0 {
				t.Error("empty personalized shelf")
			}
		}()
	}
	wg.Wait()
}
