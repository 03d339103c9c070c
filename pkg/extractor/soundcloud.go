package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"musicfeed/pkg/feed"
)

// SoundCloud resolves metadata through the public oEmbed lookup, no page
// rendering involved. Direct URLs only, there is no search for this
// source. Everything lands as a mix, SoundCloud is used for long-form
// sets in this feed.
type SoundCloud struct {
	fetcher *PageFetcher
	oembed  string
}

// NewSoundCloud creates a SoundCloud extractor
func NewSoundCloud(fetcher *PageFetcher) *SoundCloud {
	return &SoundCloud{fetcher: fetcher, oembed: "https://soundcloud.com/oembed"}
}

// oembedResponse is the subset of the lookup we use
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	HTML       string `json:"html"`
}

var (
	scIframeSrcRe = regexp.MustCompile(`src="([^"]+)"`)
	// mix-style uploads title themselves "Track X by DJ Y"
	scByTitleRe = regexp.MustCompile(`(?i)^(.+?)\s+by\s+(.+)$`)
)

// Extract looks the URL up via oEmbed and builds a draft from the returned
// player markup and author/title fields.
func (s *SoundCloud) Extract(ctx context.Context, pageURL string) (feed.Draft, error) {
	lookupURL := fmt.Sprintf("%s?format=json&url=%s", s.oembed, url.QueryEscape(pageURL))
	log.Printf("[INFO] fetching soundcloud oembed for: %s", pageURL)

	body, _, err := s.fetcher.Get(ctx, lookupURL)
	if err != nil {
		return feed.Draft{}, err
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return feed.Draft{}, fmt.Errorf("%w: parse soundcloud oembed response: %v", feed.ErrUpstream, err)
	}

	embedURL := ""
	if m := scIframeSrcRe.FindStringSubmatch(resp.HTML); len(m) > 1 {
		embedURL = m[1]
	}

	artist := resp.AuthorName
	title := resp.Title
	if m := scByTitleRe.FindStringSubmatch(title); len(m) > 2 {
		title = strings.TrimSpace(m[1])
		artist = strings.TrimSpace(m[2])
	}
	if artist == "" {
		artist = feed.UnknownArtist
	}
	if title == "" {
		title = feed.UnknownTitle
	}

	return feed.Draft{
		Source:    feed.SourceSoundCloud,
		URL:       pageURL,
		EmbedURL:  embedURL,
		EmbedHTML: resp.HTML,
		Artist:    artist,
		Title:     title,
		Type:      feed.TypeMix,
	}, nil
}
