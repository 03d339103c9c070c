package feed

// Source identifies the site a feed item came from
type Source string

// supported sources
const (
	SourceBandcamp   Source = "bandcamp"
	SourceYouTube    Source = "youtube"
	SourceSoundCloud Source = "soundcloud"
)

// ContentType describes the granularity of a feed item
type ContentType string

// content types
const (
	TypeTrack ContentType = "track"
	TypeAlbum ContentType = "album"
	TypeMix   ContentType = "mix"
)

// defaults applied when an extractor can't resolve metadata
const (
	UnknownArtist = "Unknown Artist"
	UnknownTitle  = "Unknown Title"
)

// Draft is extractor output before persistence, no id or timestamp assigned yet.
// URL is the canonical page for the content and serves as the dedup key.
type Draft struct {
	Source    Source      `json:"source"`
	URL       string      `json:"url"`
	EmbedURL  string      `json:"embedUrl"`
	EmbedHTML string      `json:"embedHtml"`
	Artist    string      `json:"artist"`
	Title     string      `json:"title"`
	Type      ContentType `json:"type"`
}

// Item is a persisted feed entry. AddedAt and RatedAt are unix milliseconds.
// Rating is 1..5, zero means unrated and is omitted from JSON.
type Item struct {
	ID        string      `json:"id"`
	Source    Source      `json:"source"`
	URL       string      `json:"url"`
	EmbedURL  string      `json:"embedUrl"`
	EmbedHTML string      `json:"embedHtml"`
	Artist    string      `json:"artist"`
	Title     string      `json:"title"`
	Type      ContentType `json:"type"`
	AddedAt   int64       `json:"addedAt"`
	Rating    int         `json:"rating,omitempty"`
	RatedAt   int64       `json:"ratedAt,omitempty"`
}
