package media

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

type radarrMovie struct {
	ID      *int    `json:"id"`
	Title   *string `json:"title"`
	Year    *int    `json:"year"`
	HasFile bool    `json:"hasFile"`
	Status  string  `json:"status"`
	Added   string  `json:"added"`
	Images  []image `json:"images"`
}

func fetchRadarr(ctx context.Context, sc *store.ServiceConfig, f fetcher) ([]Movie, error) {
	endpoint, err := source.Endpoint(sc.URL, "api/v3/movie", nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Radarr URL is invalid", "")
	}

	var items []json.RawMessage
	if err := f.get(ctx, source.Request{
		Service: string(store.Radarr),
		URL:     endpoint,
		Auth: auth.Chain{
			auth.APIKey("X-Api-Key", sc.APIKey),
			auth.Query{Param: "apikey", Value: sc.APIKey},
		},
	}, "Radarr movies", &items); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(items))
	for _, raw := range items {
		var m radarrMovie
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if movie, ok := m.movie(); ok {
			movies = append(movies, movie)
		}
	}
	return RecentLibrary(movies), nil
}

func (m radarrMovie) movie() (Movie, bool) {
	if !m.HasFile || m.ID == nil || m.Title == nil || m.Year == nil {
		return Movie{}, false
	}
	out := Movie{
		ID:        *m.ID,
		Title:     *m.Title,
		Year:      *m.Year,
		PosterURL: posterOf(m.Images),
		Status:    m.Status,
		HasFile:   true,
	}
	if t, err := time.Parse(time.RFC3339, m.Added); err == nil {
		out.Added = &t
	}
	return out, true
}

// RecentLibrary keeps movies with a file, newest addition first, capped
// at LibraryLimit. Movies without an added date sort last.
func RecentLibrary(movies []Movie) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if m.HasFile {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Added, out[j].Added
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if len(out) > LibraryLimit {
		out = out[:LibraryLimit]
	}
	return out
}
