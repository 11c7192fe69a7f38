package models

// TrailerSource identifies which provider category produced a trailer URL.
type TrailerSource string

const (
	// TrailerSourceCatalog means the URL came from the content's native
	// catalog (RAWG clip data or a TMDB-listed video).
	TrailerSourceCatalog TrailerSource = "CATALOG"
	// TrailerSourceVideoPlatform means the URL came from the general
	// video-search fallback.
	TrailerSourceVideoPlatform TrailerSource = "VIDEO_PLATFORM"
)

// TrailerKind distinguishes directly playable files from embeddable players.
type TrailerKind string

const (
	TrailerKindDirectFile TrailerKind = "DIRECT_FILE"
	TrailerKindEmbed      TrailerKind = "EMBED"
)

// TrailerResult is the outcome of a trailer resolution. Exactly one shape is
// meaningful per Kind: DIRECT_FILE carries an mp4 URL, EMBED an iframe URL.
// A miss is the zero-URL sentinel, never an error.
type TrailerResult struct {
	Source TrailerSource `json:"source"`
	Kind   TrailerKind   `json:"kind"`
	URL    string        `json:"url"`
}

// NoTrailer is the "not available" sentinel returned when every alternative
// in the fallback chain has been exhausted.
func NoTrailer() TrailerResult {
	return TrailerResult{Source: TrailerSourceCatalog, Kind: TrailerKindDirectFile, URL: ""}
}

// WatchProviderEntry is one place a movie or series can be watched,
// deduplicated by case-insensitive label within a single response.
type WatchProviderEntry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SeriesStats carries season/episode counts for a series. The zero value is
// the "unknown" sentinel; resolution never returns nil or an error.
type SeriesStats struct {
	Seasons  int `json:"seasons"`
	Episodes int `json:"episodes"`
}
