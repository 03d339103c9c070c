package extractor

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/url"
	"regexp"
	"strings"

	"musicfeed/pkg/feed"
)

// YouTube extracts videos and playlists. Direct URLs need only id
// extraction, search scans the results page for playlist links first since
// those usually carry full albums, then falls back to single videos.
type YouTube struct {
	fetcher *PageFetcher
	base    string
}

// NewYouTube creates a YouTube extractor
func NewYouTube(fetcher *PageFetcher) *YouTube {
	return &YouTube{fetcher: fetcher, base: "https://www.youtube.com"}
}

// id extraction from a URL, tried in order: short link, v= param, list= param
var (
	ytShortRe = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`)
	ytVideoRe = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]+)`)
	ytListRe  = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]+)`)
)

// result-link patterns over the results page markup. Playlist links appear
// both as plain hrefs and inside script-embedded JSON where & is &.
var (
	ytResultPlaylistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/watch\?v=[A-Za-z0-9_-]+(?:&amp;|\\u0026|&)list=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/playlist\?list=([A-Za-z0-9_-]+)`),
	}
	ytResultVideoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/watch\?v=([A-Za-z0-9_-]+)`),
	}
)

// page title parsing
var (
	ytTitleTagRe  = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	ytDashSplitRe = regexp.MustCompile(`^(.+?)\s[-–]\s(.+)$`)
)

// Extract pulls video/playlist ids out of a direct URL and resolves the
// canonical page for metadata. A list id forces the album type.
func (y *YouTube) Extract(ctx context.Context, pageURL string) (feed.Draft, error) {
	var videoID, listID string
	if m := ytShortRe.FindStringSubmatch(pageURL); len(m) > 1 {
		videoID = m[1]
	}
	if m := ytVideoRe.FindStringSubmatch(pageURL); len(m) > 1 {
		videoID = m[1]
	}
	if m := ytListRe.FindStringSubmatch(pageURL); len(m) > 1 {
		listID = m[1]
	}

	if videoID == "" && listID == "" {
		return feed.Draft{}, fmt.Errorf("%w: could not extract youtube video/playlist id from url: %s", feed.ErrExtraction, pageURL)
	}

	return y.resolve(ctx, videoID, listID, feed.UnknownArtist)
}

// Search queries the results page with " full album" appended to bias
// toward full-album content, scans result links in document order and
// resolves the first playlist or video hit.
//
// The artist fallback when the result title has no dash separator is the
// first two words of the query. Best effort only, there is no guarantee
// the query even starts with an artist name.
func (y *YouTube) Search(ctx context.Context, query string) (feed.Draft, error) {
	searchQuery := query + " full album"
	searchURL := fmt.Sprintf("%s/results?search_query=%s", y.base, url.QueryEscape(searchQuery))
	log.Printf("[INFO] searching youtube for %q", searchQuery)

	body, _, err := y.fetcher.Get(ctx, searchURL)
	if err != nil {
		return feed.Draft{}, err
	}
	markup := string(body)

	// playlists first, a playlist hit beats any video hit
	if listID, ok := firstPatternMatch(markup, ytResultPlaylistPatterns); ok {
		log.Printf("[INFO] found youtube playlist: %s", listID)
		return y.resolve(ctx, "", listID, firstTwoWords(query))
	}
	if videoID, ok := firstPatternMatch(markup, ytResultVideoPatterns); ok {
		log.Printf("[INFO] found youtube video: %s", videoID)
		return y.resolve(ctx, videoID, "", firstTwoWords(query))
	}

	return feed.Draft{}, fmt.Errorf("%w: no youtube results found for query: %s", feed.ErrExtraction, query)
}

// resolve fetches the canonical watch/playlist page and builds the draft
// from its title. fallbackArtist is used when the title has no dash split.
// In search mode this means a second fetch, and the stored title comes
// from the page itself, not from the result link's text.
func (y *YouTube) resolve(ctx context.Context, videoID, listID, fallbackArtist string) (feed.Draft, error) {
	contentType := feed.TypeTrack
	var embedURL, canonicalURL string
	if listID != "" {
		contentType = feed.TypeAlbum
		embedURL = fmt.Sprintf("%s/embed/videoseries?list=%s", y.base, listID)
		canonicalURL = fmt.Sprintf("%s/playlist?list=%s", y.base, listID)
	} else {
		embedURL = fmt.Sprintf("%s/embed/%s", y.base, videoID)
		canonicalURL = fmt.Sprintf("%s/watch?v=%s", y.base, videoID)
	}

	log.Printf("[INFO] fetching youtube page: %s", canonicalURL)
	body, _, err := y.fetcher.Get(ctx, canonicalURL)
	if err != nil {
		return feed.Draft{}, err
	}

	artist, title := parseYouTubeTitle(string(body), fallbackArtist)

	return feed.Draft{
		Source:    feed.SourceYouTube,
		URL:       canonicalURL,
		EmbedURL:  embedURL,
		EmbedHTML: youtubeEmbedHTML(embedURL),
		Artist:    artist,
		Title:     title,
		Type:      contentType,
	}, nil
}

// parseYouTubeTitle strips the " - YouTube" suffix from the page title and
// splits "Artist - Title" on the dash/en-dash separator when present,
// otherwise the whole cleaned title is the title and the artist falls back
func parseYouTubeTitle(markup, fallbackArtist string) (artist, title string) {
	var pageTitle string
	if m := ytTitleTagRe.FindStringSubmatch(markup); len(m) > 1 {
		pageTitle = html.UnescapeString(strings.TrimSpace(m[1]))
	}
	cleaned := strings.TrimSpace(strings.TrimSuffix(pageTitle, " - YouTube"))

	artist, title = fallbackArtist, cleaned
	if m := ytDashSplitRe.FindStringSubmatch(cleaned); len(m) > 2 {
		artist, title = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if title == "" {
		title = feed.UnknownTitle
	}
	if artist == "" {
		artist = feed.UnknownArtist
	}
	return artist, title
}

// youtubeEmbedHTML renders the standard fixed-size player iframe
func youtubeEmbedHTML(embedURL string) string {
	return fmt.Sprintf(`<iframe width="100%%" height="315" src="%s" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`, embedURL)
}

// firstTwoWords is the search-mode artist guess, documented best effort
func firstTwoWords(query string) string {
	words := strings.Fields(query)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}
