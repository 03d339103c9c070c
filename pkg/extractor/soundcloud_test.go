package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicfeed/pkg/feed"
)

func TestSoundCloud_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "https://soundcloud.com/dj-y/track-x", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Track X by DJ Y","author_name":"DJ Y","html":"<iframe width=\"100%\" height=\"400\" src=\"https://w.soundcloud.com/player/?visual=true&url=xyz\"></iframe>"}`)
	}))
	defer srv.Close()

	sc := NewSoundCloud(NewPageFetcher(5*time.Second, ""))
	sc.oembed = srv.URL + "/oembed"

	draft, err := sc.Extract(context.Background(), "https://soundcloud.com/dj-y/track-x")
	require.NoError(t, err)

	assert.Equal(t, feed.SourceSoundCloud, draft.Source)
	assert.Equal(t, "https://soundcloud.com/dj-y/track-x", draft.URL)
	// "X by Y" title overrides the author-provided artist
	assert.Equal(t, "Track X", draft.Title)
	assert.Equal(t, "DJ Y", draft.Artist)
	assert.Equal(t, feed.TypeMix, draft.Type)
	assert.Equal(t, "https://w.soundcloud.com/player/?visual=true&url=xyz", draft.EmbedURL)
	assert.Contains(t, draft.EmbedHTML, "w.soundcloud.com/player")
}

func TestSoundCloud_ExtractPlainTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Late Night Mix","author_name":"Some DJ","html":"<iframe src=\"https://w.soundcloud.com/player/?url=abc\"></iframe>"}`)
	}))
	defer srv.Close()

	sc := NewSoundCloud(NewPageFetcher(5*time.Second, ""))
	sc.oembed = srv.URL + "/oembed"

	draft, err := sc.Extract(context.Background(), "https://soundcloud.com/some-dj/late-night-mix")
	require.NoError(t, err)
	assert.Equal(t, "Late Night Mix", draft.Title)
	assert.Equal(t, "Some DJ", draft.Artist)
}

func TestSoundCloud_ExtractMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	sc := NewSoundCloud(NewPageFetcher(5*time.Second, ""))
	sc.oembed = srv.URL + "/oembed"

	draft, err := sc.Extract(context.Background(), "https://soundcloud.com/foo/bar")
	require.NoError(t, err)
	assert.Equal(t, feed.UnknownArtist, draft.Artist)
	assert.Equal(t, feed.UnknownTitle, draft.Title)
	assert.Empty(t, draft.EmbedURL)
}

func TestSoundCloud_ExtractLookupFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sc := NewSoundCloud(NewPageFetcher(5*time.Second, ""))
	sc.oembed = srv.URL + "/oembed"

	_, err := sc.Extract(context.Background(), "https://soundcloud.com/foo/bar")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrUpstream)
	assert.Contains(t, err.Error(), "403")
}

func TestSoundCloud_ExtractBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	sc := NewSoundCloud(NewPageFetcher(5*time.Second, ""))
	sc.oembed = srv.URL + "/oembed"

	_, err := sc.Extract(context.Background(), "https://soundcloud.com/foo/bar")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrUpstream)
}
