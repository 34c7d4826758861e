package recall

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/cinerec/cinerec/core"
)

func TestEmotionGenresClosedSet(t *testing.T) {
	wantEmotions := []string{"joy", "sadness", "anger", "anticipation", "surprise", "disgust", "fear", "trust"}
	if len(EmotionGenres) != len(wantEmotions) {
		t.Fatalf("emotion map has %d entries, want %d", len(EmotionGenres), len(wantEmotions))
	}
	for _, e := range wantEmotions {
		if len(EmotionGenres[e]) == 0 {
			t.Errorf("emotion %q has no genres", e)
		}
	}

	if got := GenresForEmotion("joy"); got[0] != "Comedy" {
		t.Errorf("joy genres = %v", got)
	}
	if got := GenresForEmotion("confused"); len(got) != 1 || got[0] != PopularGenre {
		t.Errorf("unrecognized label genres = %v, want [Popular]", got)
	}
}

func TestDetectAndRecommendGenreFilter(t *testing.T) {
	f := newFakeModels()
	f.predictEmotion = func(cleaned string) (string, error) {
		if cleaned != "i am so happy today" {
			t.Errorf("classifier received %q, want cleaned text", cleaned)
		}
		return "joy", nil
	}
	r := &EmotionRecall{Models: f, Rand: rand.New(rand.NewSource(1))}

	label, items, err := r.DetectAndRecommend(context.Background(), nil, "I am so happy today!!! 2024", 2)
	if err != nil {
		t.Fatal(err)
	}
	if label != "joy" {
		t.Errorf("label = %q, want joy", label)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// joy maps to Comedy/Musical/Family/Animation; the fake catalog has three Comedy titles
	for _, it := range items {
		if it.Movie == nil || !hasAnyGenre(it.Movie, "Comedy", "Musical", "Family", "Animation") {
			t.Errorf("item %q lacks a joy genre: %v", it.Title(), it.Movie.Genres)
		}
	}
}

func TestDetectAndRecommendSampleFallback(t *testing.T) {
	f := newFakeModels()
	f.predictEmotion = func(string) (string, error) { return "disgust", nil }
	// disgust maps to Horror/Thriller/Crime: only two catalog matches, fewer than n
	r := &EmotionRecall{Models: f, Rand: rand.New(rand.NewSource(1))}

	_, items, err := r.DetectAndRecommend(context.Background(), nil, "ugh", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Fatalf("fallback returned %d items, want 4", len(items))
	}
}

func TestDetectAndRecommendClassifierError(t *testing.T) {
	f := newFakeModels()
	f.predictEmotion = func(string) (string, error) { return "", fmt.Errorf("model unavailable") }
	r := &EmotionRecall{Models: f, Rand: rand.New(rand.NewSource(1))}

	label, items, err := r.DetectAndRecommend(context.Background(), nil, "anything", 3)
	if err != nil {
		t.Fatalf("classifier error must be absorbed: %v", err)
	}
	if label != "" {
		t.Errorf("label = %q, want empty on classifier failure", label)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}

func TestDetectAndRecommendProfileWeighting(t *testing.T) {
	f := newFakeModels()
	f.predictEmotion = func(string) (string, error) { return "joy", nil }
	r := &EmotionRecall{Models: f}

	rctx := &core.RecommendContext{
		UserID:  "42",
		Profile: map[string]float64{"genre:Romance": 0.9, "genre:Comedy": 0.2},
	}
	_, items, err := r.DetectAndRecommend(context.Background(), rctx, "happy", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	// the Romance title outweighs plain Comedy titles
	if items[0].Title() != "Dilwale Dulhania Le Jayenge" {
		t.Errorf("top item = %q, want the Romance title first", items[0].Title())
	}
}

func TestDetectAndRecommendZeroN(t *testing.T) {
	r := &EmotionRecall{Models: newFakeModels()}
	label, items, err := r.DetectAndRecommend(context.Background(), nil, "happy", 0)
	if err != nil {
		t.Fatal(err)
	}
	if label == "" {
		t.Error("label should still be detected for n=0")
	}
	if len(items) != 0 {
		t.Errorf("n=0 returned %d items", len(items))
	}
}

func hasAnyGenre(m *core.Movie, genres ...string) bool {
	for _, g := range genres {
		if m.HasGenre(g) {
			return true
		}
	}
	return false
}
