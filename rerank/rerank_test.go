package rerank

import (
	"context"
	"testing"

	"github.com/cinerec/cinerec/core"
)

func itemWithGenre(id int64, genres ...string) *core.Item {
	it := core.NewItem(id)
	it.Movie = &core.Movie{ID: id, Genres: genres}
	return it
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestTopN(t *testing.T) {
	items := []*core.Item{
		core.NewItem(1), core.NewItem(2), core.NewItem(3), core.NewItem(4),
	}

	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		want int
	}{
		{name: "truncates", n: 2, want: 2},
		{name: "shorter than limit", n: 10, want: 4},
		{name: "zero keeps all", n: 0, want: 4},
		{name: "request overrides node", n: 2, rctx: &core.RecommendContext{N: 3}, want: 3},
		{name: "request zero falls back to node", n: 1, rctx: &core.RecommendContext{}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopN{N: tt.n}
			got, err := node.Process(context.Background(), tt.rctx, items)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d items, want %d", len(got), tt.want)
			}
			// a pure truncation keeps the prefix intact
			for i := range got {
				if got[i].ID != items[i].ID {
					t.Errorf("position %d = %d, want %d", i, got[i].ID, items[i].ID)
				}
			}
		})
	}
}

func TestDiversityDefersOverQuota(t *testing.T) {
	items := []*core.Item{
		itemWithGenre(1, "Horror"),
		itemWithGenre(2, "Horror"),
		itemWithGenre(3, "Horror"),
		itemWithGenre(4, "Comedy"),
		itemWithGenre(5, "Horror"),
	}
	node := &Diversity{MaxPerGenre: 2}

	got, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	// over-quota entries move to the tail, nothing is dropped
	want := []int64{1, 2, 4, 3, 5}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestDiversityGenrelessUnlimited(t *testing.T) {
	items := []*core.Item{
		itemWithGenre(1, "Drama"),
		core.NewItem(2),
		itemWithGenre(3, "Drama"),
		core.NewItem(4),
	}
	node := &Diversity{MaxPerGenre: 1}

	got, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 4, 3}
	gotIDs := ids(got)
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestDiversityDisabled(t *testing.T) {
	items := []*core.Item{itemWithGenre(1, "Drama"), itemWithGenre(2, "Drama")}
	node := &Diversity{}

	got, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
}

func TestDiversityUsesEnrichedGenres(t *testing.T) {
	enriched := core.NewItem(7)
	enriched.Enriched = &core.EnrichedMovie{ID: 7, Genres: []string{"Action"}}
	items := []*core.Item{
		itemWithGenre(1, "Action"),
		enriched,
		itemWithGenre(4, "Comedy"),
	}
	node := &Diversity{MaxPerGenre: 1}

	got, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	// the enriched-only item counts against the Action quota
	want := []int64{1, 4, 7}
	gotIDs := ids(got)
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}
