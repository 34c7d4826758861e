package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinerec/cinerec/core"
)

// fakeModels 是测试用的内存模型源，同时满足
// SimilaritySource / RatingSource / EmotionSource。
type fakeModels struct {
	movies []*core.Movie
	sim    [][]float32

	predictRating  func(userID, itemID int64) (float64, error)
	predictEmotion func(cleaned string) (string, error)
	ratingCalls    int
}

func newFakeModels() *fakeModels {
	return &fakeModels{
		movies: []*core.Movie{
			{ID: 27205, Row: 0, Title: "Inception", Genres: []string{"Action", "Sci-Fi", "Thriller"}},
			{ID: 157336, Row: 1, Title: "Interstellar", Genres: []string{"Adventure", "Drama", "Sci-Fi"}},
			{ID: 155, Row: 2, Title: "The Dark Knight", Genres: []string{"Action", "Crime", "Drama"}},
			{ID: 19404, Row: 3, Title: "Dilwale Dulhania Le Jayenge", Genres: []string{"Comedy", "Drama", "Romance"}},
			{ID: 105, Row: 4, Title: "Back to the Future", Genres: []string{"Adventure", "Comedy", "Sci-Fi"}},
			{ID: 620, Row: 5, Title: "Ghostbusters", Genres: []string{"Comedy", "Fantasy"}},
		},
		sim: [][]float32{
			{1.0, 0.9, 0.8, 0.1, 0.5, 0.2},
			{0.9, 1.0, 0.7, 0.2, 0.6, 0.1},
			{0.8, 0.7, 1.0, 0.1, 0.4, 0.2},
			{0.1, 0.2, 0.1, 1.0, 0.3, 0.2},
			{0.5, 0.6, 0.4, 0.3, 1.0, 0.7},
			{0.2, 0.1, 0.2, 0.2, 0.7, 1.0},
		},
	}
}

func (f *fakeModels) Len() int { return len(f.movies) }

func (f *fakeModels) Movie(row int) *core.Movie {
	if row < 0 || row >= len(f.movies) {
		return nil
	}
	return f.movies[row]
}

func (f *fakeModels) ByID(id int64) *core.Movie {
	for _, m := range f.movies {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (f *fakeModels) RowIndexForTitle(title string) (int, bool) {
	title = strings.ToLower(strings.TrimSpace(title))
	for i, m := range f.movies {
		if strings.ToLower(m.Title) == title {
			return i, true
		}
	}
	return 0, false
}

func (f *fakeModels) SimilarityRow(i int) ([]float32, error) {
	if i < 0 || i >= len(f.sim) {
		return nil, fmt.Errorf("row %d out of range", i)
	}
	return f.sim[i], nil
}

func (f *fakeModels) PredictRating(_ context.Context, userID, itemID int64) (float64, error) {
	f.ratingCalls++
	if f.predictRating != nil {
		return f.predictRating(userID, itemID)
	}
	return 3.0, nil
}

func (f *fakeModels) PredictEmotion(_ context.Context, cleaned string) (string, error) {
	if f.predictEmotion != nil {
		return f.predictEmotion(cleaned)
	}
	return "joy", nil
}
