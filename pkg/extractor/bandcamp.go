package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"musicfeed/pkg/feed"
)

// Bandcamp extracts album and track pages. Direct URLs are fetched as-is,
// search goes through bandcamp.com/search restricted to albums and takes
// the first result.
type Bandcamp struct {
	fetcher *PageFetcher
	base    string
}

// NewBandcamp creates a Bandcamp extractor
func NewBandcamp(fetcher *PageFetcher) *Bandcamp {
	return &Bandcamp{fetcher: fetcher, base: "https://bandcamp.com"}
}

// known locations of the artist name, most specific first
var bandcampArtistRules = []selectorRule{
	{selector: "#band-name-location .title"},
	{selector: ".albumartist a"},
	{selector: "a.band-name"},
	{selector: `span[itemprop="byArtist"] a`},
}

// known locations of the album or track heading
var bandcampTitleRules = []selectorRule{
	{selector: "h2.trackTitle"},
	{selector: "#name-section h2"},
	{selector: `h2[itemprop="name"]`},
}

// numeric id patterns over raw markup, in priority order: explicit
// album_id/track_id from TralbumData first, embed-style album=NNN next,
// generic "id":NNN last
var (
	bandcampAlbumIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\balbum[_\s]?id\s*[:=]\s*(\d+)`),
		regexp.MustCompile(`\balbum\s*=\s*(\d+)`),
		regexp.MustCompile(`"id"\s*:\s*(\d+)`),
	}
	bandcampTrackIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\btrack_id\s*:\s*(\d+)`),
		regexp.MustCompile(`\btrack\s*=\s*(\d+)`),
	}
)

// Extract fetches a Bandcamp album or track page and builds a draft with
// an embedded-player URL. Fails if no album or track id is on the page.
func (b *Bandcamp) Extract(ctx context.Context, pageURL string) (feed.Draft, error) {
	log.Printf("[INFO] fetching bandcamp page: %s", pageURL)

	body, finalURL, err := b.fetcher.Get(ctx, pageURL)
	if err != nil {
		return feed.Draft{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return feed.Draft{}, fmt.Errorf("parse bandcamp page: %w", err)
	}
	markup := string(body)

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())

	artist, ok := firstSelectorMatch(doc, bandcampArtistRules)
	if !ok {
		artist = bandcampArtistFromTitle(pageTitle)
	}

	title, ok := firstSelectorMatch(doc, bandcampTitleRules)
	if !ok {
		title = bandcampTitleFromTitle(pageTitle)
	}

	contentType := feed.TypeTrack
	if bandcampIsAlbum(finalURL, doc) {
		contentType = feed.TypeAlbum
	}

	albumID, _ := firstPatternMatch(markup, bandcampAlbumIDPatterns)
	trackID, _ := firstPatternMatch(markup, bandcampTrackIDPatterns)
	if albumID == "" && trackID == "" {
		return feed.Draft{}, fmt.Errorf("%w: could not find bandcamp album/track id on %s", feed.ErrExtraction, finalURL)
	}

	embedURL := bandcampEmbedURL(contentType, albumID, trackID)

	return feed.Draft{
		Source:    feed.SourceBandcamp,
		URL:       finalURL,
		EmbedURL:  embedURL,
		EmbedHTML: bandcampEmbedHTML(embedURL, finalURL, title, artist),
		Artist:    artist,
		Title:     title,
		Type:      contentType,
	}, nil
}

// Search queries bandcamp.com/search restricted to albums and extracts the
// first result's page. Fails if the search returns nothing.
func (b *Bandcamp) Search(ctx context.Context, query string) (feed.Draft, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&item_type=a", b.base, url.QueryEscape(query))
	log.Printf("[INFO] searching bandcamp for %q", query)

	body, finalURL, err := b.fetcher.Get(ctx, searchURL)
	if err != nil {
		return feed.Draft{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return feed.Draft{}, fmt.Errorf("parse bandcamp search page: %w", err)
	}

	href, ok := doc.Find(".result-items .searchresult .heading a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return feed.Draft{}, fmt.Errorf("%w: no bandcamp results found for query: %s", feed.ErrExtraction, query)
	}

	resultURL, err := resolveHref(finalURL, strings.TrimSpace(href))
	if err != nil {
		return feed.Draft{}, fmt.Errorf("resolve result link: %w", err)
	}

	log.Printf("[INFO] found bandcamp result: %s", resultURL)
	return b.Extract(ctx, resultURL)
}

// bandcampIsAlbum reports whether the page holds an album rather than a
// single track, by URL path or by the album-info marker in the DOM
func bandcampIsAlbum(pageURL string, doc *goquery.Document) bool {
	if parsed, err := url.Parse(pageURL); err == nil && strings.Contains(parsed.Path, "/album/") {
		return true
	}
	return doc.Find("#trackInfoInner").Length() > 0
}

// bandcampArtistFromTitle parses "Title | Artist" page titles, artist last
func bandcampArtistFromTitle(pageTitle string) string {
	parts := strings.Split(pageTitle, " | ")
	if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
		return last
	}
	return feed.UnknownArtist
}

// bandcampTitleFromTitle takes the part before the first "|" separator
func bandcampTitleFromTitle(pageTitle string) string {
	if first := strings.TrimSpace(strings.Split(pageTitle, " | ")[0]); first != "" {
		return first
	}
	return feed.UnknownTitle
}

// bandcampEmbedURL builds the embedded-player URL. Albums get a tracklist
// player, single tracks a compact one with the album as context when known.
// Player size and colors are fixed.
func bandcampEmbedURL(contentType feed.ContentType, albumID, trackID string) string {
	const playerBase = "https://bandcamp.com/EmbeddedPlayer/"

	switch {
	case contentType == feed.TypeAlbum && albumID != "":
		return fmt.Sprintf("%salbum=%s/size=large/bgcol=333333/linkcol=0f91ff/tracklist=true/transparent=true/", playerBase, albumID)
	case trackID != "":
		albumPart := ""
		if albumID != "" {
			albumPart = fmt.Sprintf("album=%s/", albumID)
		}
		return fmt.Sprintf("%s%strack=%s/size=large/bgcol=333333/linkcol=0f91ff/tracklist=false/transparent=true/", playerBase, albumPart, trackID)
	default:
		return fmt.Sprintf("%salbum=%s/size=large/bgcol=333333/linkcol=0f91ff/tracklist=true/transparent=true/", playerBase, albumID)
	}
}

// bandcampEmbedHTML wraps the player in a fixed-size iframe with a text
// fallback link naming title and artist
func bandcampEmbedHTML(embedURL, pageURL, title, artist string) string {
	return fmt.Sprintf(`<iframe style="border: 0; width: 100%%; height: 470px;" src="%s" seamless><a href="%s">%s by %s</a></iframe>`,
		embedURL, pageURL, title, artist)
}

// resolveHref makes a possibly relative link absolute against the page URL
func resolveHref(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
