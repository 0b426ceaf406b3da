package media

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

type sonarrEpisode struct {
	ID            *int    `json:"id"`
	Title         *string `json:"title"`
	SeasonNumber  *int    `json:"seasonNumber"`
	EpisodeNumber *int    `json:"episodeNumber"`
	AirDateUTC    string  `json:"airDateUtc"`
	Overview      string  `json:"overview"`
	HasFile       bool    `json:"hasFile"`
	Series        *struct {
		Title  string  `json:"title"`
		Images []image `json:"images"`
	} `json:"series"`
}

// CalendarWindow returns the [start, end] dates queried for upcoming
// episodes, formatted as YYYY-MM-DD.
func CalendarWindow(now time.Time) (string, string) {
	const layout = "2006-01-02"
	return now.Format(layout), now.AddDate(0, 0, CalendarDays).Format(layout)
}

func fetchSonarr(ctx context.Context, sc *store.ServiceConfig, f fetcher) ([]Episode, error) {
	start, end := CalendarWindow(f.now())
	endpoint, err := source.Endpoint(sc.URL, "api/v3/calendar", url.Values{
		"start":              {start},
		"end":                {end},
		"includeSeries":      {"true"},
		"includeEpisodeFile": {"true"},
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Sonarr URL is invalid", "")
	}

	var items []json.RawMessage
	if err := f.get(ctx, source.Request{
		Service: string(store.Sonarr),
		URL:     endpoint,
		Auth:    auth.APIKey("X-Api-Key", sc.APIKey),
	}, "Sonarr calendar", &items); err != nil {
		return nil, err
	}

	out := make([]Episode, 0, len(items))
	for _, raw := range items {
		var e sonarrEpisode
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if ep, ok := e.episode(f.now); ok {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (e sonarrEpisode) episode(now func() time.Time) (Episode, bool) {
	if e.ID == nil || e.Title == nil || e.SeasonNumber == nil || e.EpisodeNumber == nil {
		return Episode{}, false
	}
	ep := Episode{
		ID:            *e.ID,
		SeriesTitle:   "Unknown",
		EpisodeTitle:  *e.Title,
		SeasonNumber:  *e.SeasonNumber,
		EpisodeNumber: *e.EpisodeNumber,
		AirDate:       now(),
		Overview:      e.Overview,
		HasFile:       e.HasFile,
	}
	if e.Series != nil {
		if e.Series.Title != "" {
			ep.SeriesTitle = e.Series.Title
		}
		ep.PosterURL = posterOf(e.Series.Images)
	}
	if t, err := time.Parse(time.RFC3339Nano, e.AirDateUTC); err == nil {
		ep.AirDate = t
	}
	return ep, true
}
