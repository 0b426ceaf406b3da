package media

import "time"

// Display caps.
const (
	RecentPerKind  = 5
	plexScanLimit  = 20
	LibraryLimit   = 10
	QueueSlotLimit = 5
	CalendarDays   = 2
)

// Kind partitions Plex items.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// PlexItem is one recently added library item.
type PlexItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Year     int       `json:"year,omitempty"`
	Kind     Kind      `json:"kind"`
	ThumbURL string    `json:"thumb_url,omitempty"`
	AddedAt  time.Time `json:"added_at"`
	Summary  string    `json:"summary,omitempty"`
}

// Episode is one upcoming Sonarr calendar entry.
type Episode struct {
	ID            int       `json:"id"`
	SeriesTitle   string    `json:"series_title"`
	EpisodeTitle  string    `json:"episode_title"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	AirDate       time.Time `json:"air_date"`
	Overview      string    `json:"overview,omitempty"`
	PosterURL     string    `json:"poster_url,omitempty"`
	HasFile       bool      `json:"has_file"`
}

// Movie is one downloaded Radarr movie.
type Movie struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Year      int        `json:"year"`
	PosterURL string     `json:"poster_url,omitempty"`
	Status    string     `json:"status"`
	HasFile   bool       `json:"has_file"`
	Added     *time.Time `json:"added,omitempty"`
}

// Download is one SABnzbd queue slot.
type Download struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	SizeLeft string  `json:"size_left"`
	ETA      string  `json:"eta"`
}

// Queue is the SABnzbd queue summary.
type Queue struct {
	Speed      string     `json:"speed"`
	SizeLeft   string     `json:"size_left"`
	ETA        string     `json:"eta"`
	Paused     bool       `json:"paused"`
	QueueCount int        `json:"queue_count"`
	Slots      []Download `json:"slots"`
}

// Snapshot is what one media cycle publishes. Errors holds the last
// failure per slice; a failed slice keeps its previous value.
type Snapshot struct {
	RecentShows  []PlexItem        `json:"recent_shows"`
	RecentMovies []PlexItem        `json:"recent_movies"`
	Upcoming     []Episode         `json:"upcoming"`
	Movies       []Movie           `json:"movies"`
	Downloads    *Queue            `json:"downloads,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

type image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
}

func posterOf(images []image) string {
	for _, img := range images {
		if img.CoverType == "poster" {
			return img.RemoteURL
		}
	}
	return ""
}
