// Package extractor resolves Bandcamp, YouTube and SoundCloud links or
// search queries into normalized feed drafts with embeddable players.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"musicfeed/pkg/feed"
)

// Extractor resolves a direct content URL into a feed draft.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (feed.Draft, error)
}

// Searcher resolves a free-text query into a feed draft by taking the
// first search result. Only Bandcamp and YouTube support search.
type Searcher interface {
	Search(ctx context.Context, query string) (feed.Draft, error)
}

// DetectSource classifies a URL by substring match against known domains.
// Anything else is a terminal unsupported-source error.
func DetectSource(rawURL string) (feed.Source, error) {
	switch {
	case strings.Contains(rawURL, "bandcamp.com"):
		return feed.SourceBandcamp, nil
	case strings.Contains(rawURL, "youtube.com"), strings.Contains(rawURL, "youtu.be"):
		return feed.SourceYouTube, nil
	case strings.Contains(rawURL, "soundcloud.com"):
		return feed.SourceSoundCloud, nil
	}
	return "", fmt.Errorf("%w: must be Bandcamp, YouTube, or SoundCloud: %s", feed.ErrUnsupportedSource, rawURL)
}

// ForURL returns the extractor matching the URL's source.
func ForURL(rawURL string, fetcher *PageFetcher) (Extractor, error) {
	source, err := DetectSource(rawURL)
	if err != nil {
		return nil, err
	}

	switch source {
	case feed.SourceBandcamp:
		return NewBandcamp(fetcher), nil
	case feed.SourceYouTube:
		return NewYouTube(fetcher), nil
	case feed.SourceSoundCloud:
		return NewSoundCloud(fetcher), nil
	}
	return nil, fmt.Errorf("%w: %s", feed.ErrUnsupportedSource, rawURL) // unreachable, DetectSource covers all
}
