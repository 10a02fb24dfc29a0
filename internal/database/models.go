package database

import "time"

// Source values for Movie.Source.
const (
	SourceScan   = "scan"
	SourceManual = "manual"
)

// Image kinds.
const (
	ImageKindPoster = "poster"
)

// Movie is a catalog title. Zero Year and RuntimeSec mean unknown.
type Movie struct {
	ID             int64     `json:"id"`
	CanonicalTitle string    `json:"title"`
	Year           int       `json:"year,omitempty"`
	SortTitle      string    `json:"sortTitle"`
	Edition        string    `json:"edition,omitempty"`
	RuntimeSec     int       `json:"runtimeSec,omitempty"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MediaFile is a physical file backing a Movie. Zero Inode, Device and the
// probe fields mean unknown; an empty Fingerprint means none was computed.
type MediaFile struct {
	ID            int64  `json:"id"`
	MovieID       int64  `json:"movieId"`
	Path          string `json:"path"`
	SizeBytes     int64  `json:"sizeBytes"`
	MtimeNS       int64  `json:"mtimeNs"`
	Inode         uint64 `json:"-"`
	Device        uint64 `json:"-"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	VideoCodec    string `json:"videoCodec,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	AudioChannels int    `json:"audioChannels,omitempty"`
}

// Image is a derived artifact attached to a Movie, at most one per kind.
type Image struct {
	ID      int64  `json:"id"`
	MovieID int64  `json:"movieId"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Src     string `json:"src,omitempty"`
}

// PlayState is the resume position for a Movie.
type PlayState struct {
	MovieID     int64 `json:"movieId"`
	PositionSec int   `json:"positionSec"`
	Watched     bool  `json:"watched"`
}

// PosterRecord joins a poster image with what is needed to rebuild it.
type PosterRecord struct {
	Image       Image
	RuntimeSec  int
	MediaPath   string
	Fingerprint string
}

// Stats summarizes the catalog.
type Stats struct {
	Movies            int `json:"movies"`
	MediaFiles        int `json:"mediaFiles"`
	PosterImages      int `json:"posterImages"`
	PlaceholderImages int `json:"placeholderImages"`
}

// ListOrder selects the ordering for ListMovies.
type ListOrder string

const (
	// OrderTitle sorts by sort title, then year.
	OrderTitle ListOrder = "title"
	// OrderRecent sorts newest additions first.
	OrderRecent ListOrder = "recent"
	// OrderYear sorts by year, unknown years last.
	OrderYear ListOrder = "year"
)

// ParseListOrder maps a user-supplied order name to a ListOrder, defaulting
// to OrderTitle.
func ParseListOrder(s string) ListOrder {
	switch ListOrder(s) {
	case OrderRecent, OrderYear:
		return ListOrder(s)
	default:
		return OrderTitle
	}
}
