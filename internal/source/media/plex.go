package media

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

type plexResponse struct {
	MediaContainer struct {
		Metadata []json.RawMessage `json:"Metadata"`
	} `json:"MediaContainer"`
}

type plexMetadata struct {
	RatingKey        *string `json:"ratingKey"`
	Title            *string `json:"title"`
	Type             *string `json:"type"`
	AddedAt          *int64  `json:"addedAt"`
	ParentTitle      string  `json:"parentTitle"`
	GrandparentTitle string  `json:"grandparentTitle"`
	Year             int     `json:"year"`
	Thumb            string  `json:"thumb"`
	ParentThumb      string  `json:"parentThumb"`
	Summary          string  `json:"summary"`
}

func fetchPlex(ctx context.Context, pc *store.PlexConfig, f fetcher) ([]PlexItem, error) {
	endpoint, err := source.Endpoint(pc.URL, "library/recentlyAdded", nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Plex URL is invalid", "")
	}
	var resp plexResponse
	if err := f.get(ctx, source.Request{
		Service: string(store.Plex),
		URL:     endpoint,
		Auth:    auth.APIKey("X-Plex-Token", pc.Token),
	}, "Plex recently added", &resp); err != nil {
		return nil, err
	}

	items := resp.MediaContainer.Metadata
	if len(items) > plexScanLimit {
		items = items[:plexScanLimit]
	}
	out := make([]PlexItem, 0, len(items))
	for _, raw := range items {
		var m plexMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if item, ok := m.item(pc); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m plexMetadata) item(pc *store.PlexConfig) (PlexItem, bool) {
	if m.RatingKey == nil || m.Title == nil || m.Type == nil || m.AddedAt == nil {
		return PlexItem{}, false
	}

	title := *m.Title
	if *m.Type == "season" || *m.Type == "episode" {
		switch {
		case m.ParentTitle != "":
			title = m.ParentTitle
		case m.GrandparentTitle != "":
			title = m.GrandparentTitle
		}
	}

	kind := KindShow
	if *m.Type == "movie" {
		kind = KindMovie
	}

	thumb := m.Thumb
	if thumb == "" {
		thumb = m.ParentThumb
	}

	return PlexItem{
		ID:       *m.RatingKey,
		Title:    title,
		Year:     m.Year,
		Kind:     kind,
		ThumbURL: plexImageURL(pc, thumb),
		AddedAt:  time.Unix(*m.AddedAt, 0),
		Summary:  m.Summary,
	}, true
}

// plexImageURL joins a library image path onto the server URL with the
// token as a query parameter, since image requests cannot carry headers.
func plexImageURL(pc *store.PlexConfig, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(pc.URL, "/") + path + "?X-Plex-Token=" + url.QueryEscape(pc.Token)
}

// PartitionRecent splits items by kind, keeping order and at most
// RecentPerKind of each.
func PartitionRecent(items []PlexItem) (shows, movies []PlexItem) {
	shows = []PlexItem{}
	movies = []PlexItem{}
	for _, it := range items {
		if it.Kind == KindMovie {
			if len(movies) < RecentPerKind {
				movies = append(movies, it)
			}
			continue
		}
		if len(shows) < RecentPerKind {
			shows = append(shows, it)
		}
	}
	return shows, movies
}
