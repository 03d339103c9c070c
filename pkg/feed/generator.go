package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Generator renders the music feed as RSS 2.0 so it can be followed
// from a regular feed reader.
type Generator struct {
	baseURL string
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateRSS creates an RSS 2.0 feed from feed items, expected in the
// order List returns them (most recent first).
func (g *Generator) GenerateRSS(items []Item) (string, error) {
	rssItems := make([]*RSSItem, 0, len(items))
	for _, item := range items {
		rssItems = append(rssItems, g.convertToRSSItem(item))
	}

	rss := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         "Music Feed",
			Link:          g.baseURL + "/",
			Description:   "Albums, tracks and mixes captured from Bandcamp, YouTube and SoundCloud",
			AtomLink:      &AtomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) convertToRSSItem(item Item) *RSSItem {
	desc := fmt.Sprintf("%s %q by %s on %s", item.Type, item.Title, item.Artist, item.Source)
	if item.Rating > 0 {
		desc += fmt.Sprintf(" - rated %d/5", item.Rating)
	}

	return &RSSItem{
		Title:       fmt.Sprintf("%s - %s", item.Artist, item.Title),
		Link:        item.URL,
		GUID:        item.ID,
		Description: desc,
		PubDate:     time.UnixMilli(item.AddedAt).UTC().Format(time.RFC1123Z),
		Categories:  []string{string(item.Source), string(item.Type)},
	}
}
