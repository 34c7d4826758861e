package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/27205" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 27205,
			"title": "Inception",
			"poster_path": "/poster.jpg",
			"vote_average": 8.4,
			"release_date": "2010-07-16",
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
			"overview": "A thief who steals corporate secrets."
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	movie, err := c.Details(context.Background(), 27205)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}

	if movie.ID != 27205 || movie.Title != "Inception" {
		t.Errorf("identity = %d %q", movie.ID, movie.Title)
	}
	if movie.PosterURL != DefaultPosterBaseURL+"/poster.jpg" {
		t.Errorf("poster url = %q", movie.PosterURL)
	}
	if movie.VoteAverage != 8.4 || movie.ReleaseDate != "2010-07-16" {
		t.Errorf("display fields = %v %q", movie.VoteAverage, movie.ReleaseDate)
	}
	if len(movie.Genres) != 2 || movie.Genres[1] != "Science Fiction" {
		t.Errorf("genres = %v", movie.Genres)
	}
	if movie.Degraded {
		t.Error("successful lookup marked degraded")
	}
}

func TestClientDetailsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
	}{
		{"not found", http.StatusNotFound, `{"status_message": "not found"}`},
		{"server error", http.StatusInternalServerError, ""},
		{"malformed body", http.StatusOK, `{"id": "not a number"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "test-key")
			if _, err := c.Details(context.Background(), 1); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPosterURL(t *testing.T) {
	c := NewClient("", "k")
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/a.jpg", DefaultPosterBaseURL + "/a.jpg"},
		{"a.jpg", DefaultPosterBaseURL + "/a.jpg"},
	}
	for _, tt := range tests {
		if got := c.posterURL(tt.path); got != tt.want {
			t.Errorf("posterURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
