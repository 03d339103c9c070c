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

func TestPageFetcher_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		fmt.Fprint(w, "<html><body>page</body></html>")
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, "")
	body, finalURL, err := f.Get(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, string(body), "page")
	assert.Equal(t, srv.URL+"/page", finalURL)
}

func TestPageFetcher_GetFollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/canonical", http.StatusFound)
			return
		}
		fmt.Fprint(w, "<html><body>moved here</body></html>")
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, "")
	_, finalURL, err := f.Get(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	// canonical URL after redirects, what the feed stores as dedup key
	assert.Equal(t, srv.URL+"/canonical", finalURL)
}

func TestPageFetcher_GetErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, "")

	_, _, err := f.Get(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrUpstream)

	_, _, err = f.Get(context.Background(), "not-a-url")
	require.Error(t, err)

	// closed server is a terminal upstream error, never retried
	srv.Close()
	_, _, err = f.Get(context.Background(), srv.URL+"/page")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrUpstream)
}

func TestPageFetcher_GetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewPageFetcher(20*time.Millisecond, "")
	_, _, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrUpstream)
}
