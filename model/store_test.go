package model

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cinerec/cinerec/core"
)

// writeTestArtifacts 在 dir 下生成一套对齐的工件，返回加载选项。
func writeTestArtifacts(t *testing.T, dir string) Options {
	t.Helper()

	catalogPath := filepath.Join(dir, "catalog.csv")
	if err := os.WriteFile(catalogPath, []byte(testCatalogCSV), 0o644); err != nil {
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
	if err := WriteSimilarityMatrix(simPath, rows); err != nil {
		t.Fatal(err)
	}

	svdPath := filepath.Join(dir, "svd.json")
	svd := `{
		"global_mean": 3.5,
		"user_bias": {"42": 0.2},
		"item_bias": {"155": 0.8, "27205": 0.5},
		"user_factors": {"42": [0.1, 0.2]},
		"item_factors": {"155": [0.3, 0.4]}
	}`
	if err := os.WriteFile(svdPath, []byte(svd), 0o644); err != nil {
		t.Fatal(err)
	}

	nbPath := filepath.Join(dir, "classifier.json")
	nb := &NBClassifier{
		Classes:       []string{"joy", "sadness"},
		ClassLogPrior: []float64{math.Log(0.5), math.Log(0.5)},
		TokenLogProb: map[string][]float64{
			"happy": {math.Log(0.9), math.Log(0.1)},
			"sad":   {math.Log(0.1), math.Log(0.9)},
		},
		UnknownLogProb: []float64{math.Log(0.01), math.Log(0.01)},
	}
	if err := SaveNBClassifier(nbPath, nb); err != nil {
		t.Fatal(err)
	}

	return Options{
		CatalogPath:    catalogPath,
		SimilarityPath: simPath,
		SVDPath:        svdPath,
		ClassifierPath: nbPath,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(writeTestArtifacts(t, t.TempDir()))
	if err := s.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreEnsureLoaded(t *testing.T) {
	s := newTestStore(t)

	if s.Len() != 6 {
		t.Errorf("Len = %d, want 6", s.Len())
	}
	if row, ok := s.RowIndexForTitle("inception"); !ok || row != 0 {
		t.Errorf("RowIndexForTitle = (%d, %v)", row, ok)
	}
	if m := s.ByID(620); m == nil || m.Title != "Ghostbusters" {
		t.Errorf("ByID(620) = %v", m)
	}

	vec, err := s.SimilarityRow(0)
	if err != nil {
		t.Fatalf("SimilarityRow: %v", err)
	}
	if len(vec) != 6 {
		t.Fatalf("similarity row length = %d, want 6", len(vec))
	}
	if vec[0] != 1.0 {
		t.Errorf("self similarity = %v, want 1.0", vec[0])
	}
	if vec[1] <= vec[2] {
		t.Errorf("similarity should decay with row distance: %v <= %v", vec[1], vec[2])
	}

	ctx := context.Background()
	// global_mean + user_bias(42) + item_bias(155) + dot([0.1 0.2],[0.3 0.4])
	rating, err := s.PredictRating(ctx, 42, 155)
	if err != nil {
		t.Fatalf("PredictRating: %v", err)
	}
	want := 3.5 + 0.2 + 0.8 + (0.1*0.3 + 0.2*0.4)
	if math.Abs(rating-want) > 1e-9 {
		t.Errorf("PredictRating = %v, want %v", rating, want)
	}

	label, err := s.PredictEmotion(ctx, "so happy today")
	if err != nil {
		t.Fatalf("PredictEmotion: %v", err)
	}
	if label != "joy" {
		t.Errorf("PredictEmotion = %q, want joy", label)
	}
}

func TestStoreEnsureLoadedConcurrent(t *testing.T) {
	s := NewStore(writeTestArtifacts(t, t.TempDir()))
	defer s.Close()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.EnsureLoaded(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if s.Len() != 6 {
		t.Errorf("Len after concurrent load = %d", s.Len())
	}
}

func TestStoreBadArtifacts(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		opts := writeTestArtifacts(t, t.TempDir())
		opts.SVDPath = filepath.Join(t.TempDir(), "missing.json")
		s := NewStore(opts)
		err := s.EnsureLoaded(context.Background())
		if err == nil {
			t.Fatal("expected error for missing artifact")
		}
		if !core.IsBadArtifact(err) {
			t.Errorf("error not classified as bad artifact: %v", err)
		}
		// the failure is sticky: retries return the same result
		if retry := s.EnsureLoaded(context.Background()); retry == nil {
			t.Error("retry after failed load succeeded unexpectedly")
		}
	})

	t.Run("dim mismatch", func(t *testing.T) {
		dir := t.TempDir()
		opts := writeTestArtifacts(t, dir)
		small := [][]float32{{1, 0}, {0, 1}}
		if err := WriteSimilarityMatrix(opts.SimilarityPath, small); err != nil {
			t.Fatal(err)
		}
		s := NewStore(opts)
		if err := s.EnsureLoaded(context.Background()); err == nil {
			t.Fatal("expected error for similarity dim mismatch")
		}
	})

	t.Run("corrupt similarity header", func(t *testing.T) {
		opts := writeTestArtifacts(t, t.TempDir())
		if err := os.WriteFile(opts.SimilarityPath, []byte("not a matrix"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := NewStore(opts)
		if err := s.EnsureLoaded(context.Background()); err == nil {
			t.Fatal("expected error for corrupt matrix")
		}
	})
}

func TestStoreInjectedPredictor(t *testing.T) {
	opts := writeTestArtifacts(t, t.TempDir())
	opts.Predictor = constantPredictor{rating: 4.2}
	opts.SVDPath = "" // unused when a predictor is injected

	s := NewStore(opts)
	if err := s.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	defer s.Close()

	rating, err := s.PredictRating(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rating != 4.2 {
		t.Errorf("PredictRating = %v, want 4.2", rating)
	}
}

type constantPredictor struct{ rating float64 }

func (p constantPredictor) Name() string { return "constant" }

func (p constantPredictor) PredictRating(_ context.Context, _, _ int64) (float64, error) {
	return p.rating, nil
}
