package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicfeed/pkg/feed"
	"musicfeed/server/mocks"
)

func testConfig() *mocks.ConfigProviderMock {
	return &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) {
			return ":3456", 30 * time.Second
		},
		GetBaseURLFunc: func() string {
			return "http://localhost:3456"
		},
	}
}

func testItem(id string, addedAt int64) feed.Item {
	return feed.Item{
		ID:      id,
		Source:  feed.SourceBandcamp,
		URL:     "https://x.bandcamp.com/album/" + id,
		Artist:  "X",
		Title:   "Y",
		Type:    feed.TypeAlbum,
		AddedAt: addedAt,
	}
}

func TestServer_listItemsHandler(t *testing.T) {
	store := &mocks.StoreMock{
		ListFunc: func(ctx context.Context) ([]feed.Item, error) {
			return []feed.Item{testItem("music-2", 2000), testItem("music-1", 1000)}, nil
		},
	}
	srv := New(testConfig(), store, "test", false)

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/music-feed")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var items []feed.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "music-2", items[0].ID)
	assert.Len(t, store.ListCalls(), 1)
}

func TestServer_listItemsHandler_Error(t *testing.T) {
	store := &mocks.StoreMock{
		ListFunc: func(ctx context.Context) ([]feed.Item, error) {
			return nil, fmt.Errorf("disk failure")
		},
	}
	srv := New(testConfig(), store, "test", false)

	w := httptest.NewRecorder()
	srv.listItemsHandler(w, httptest.NewRequest("GET", "/api/music-feed", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk failure")
}

func TestServer_addItemHandler(t *testing.T) {
	store := &mocks.StoreMock{
		AddFunc: func(ctx context.Context, draft feed.Draft) (feed.Item, error) {
			item := testItem("music-1700000000000", 1700000000000)
			item.URL = draft.URL
			item.EmbedHTML = draft.EmbedHTML
			return item, nil
		},
	}
	srv := New(testConfig(), store, "test", false)

	body := `{"source":"bandcamp","url":"https://x.bandcamp.com/album/y","embedUrl":"https://bandcamp.com/EmbeddedPlayer/album=1/","embedHtml":"<iframe src=\"https://bandcamp.com/EmbeddedPlayer/album=1/\"></iframe>","artist":"X","title":"Y","type":"album"}`
	w := httptest.NewRecorder()
	srv.addItemHandler(w, httptest.NewRequest("POST", "/api/music-feed", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)

	var item feed.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "music-1700000000000", item.ID)

	require.Len(t, store.AddCalls(), 1)
	assert.Equal(t, feed.SourceBandcamp, store.AddCalls()[0].Draft.Source)
}

func TestServer_addItemHandler_KeepsPlayerMarkup(t *testing.T) {
	tests := []struct {
		name  string
		embed string
	}{
		{
			name:  "bandcamp iframe with fallback link",
			embed: `<iframe style="border: 0; width: 100%; height: 470px;" src="https://bandcamp.com/EmbeddedPlayer/album=12345/size=large/bgcol=333333/linkcol=0f91ff/tracklist=false/transparent=true/" seamless><a href="https://x.bandcamp.com/album/y">Y by X</a></iframe>`,
		},
		{
			name:  "youtube iframe",
			embed: `<iframe width="100%" height="315" src="https://www.youtube.com/embed/dQw4w9WgXcQ" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`,
		},
		{
			name:  "soundcloud player iframe",
			embed: `<iframe width="100%" height="400" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/?visual=true&url=https%3A%2F%2Fapi.soundcloud.com%2Ftracks%2F1&show_artwork=true"></iframe>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.StoreMock{
				AddFunc: func(ctx context.Context, draft feed.Draft) (feed.Item, error) {
					return testItem("music-1", 1000), nil
				},
			}
			srv := New(testConfig(), store, "test", false)

			draft := feed.Draft{Source: feed.SourceBandcamp, URL: "https://x.bandcamp.com/album/y", EmbedHTML: tt.embed}
			body, err := json.Marshal(draft)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			srv.addItemHandler(w, httptest.NewRequest("POST", "/api/music-feed", strings.NewReader(string(body))))

			require.Equal(t, http.StatusOK, w.Code)
			require.Len(t, store.AddCalls(), 1)
			assert.Equal(t, tt.embed, store.AddCalls()[0].Draft.EmbedHTML, "player markup must be stored byte for byte")
		})
	}
}

func TestServer_addItemHandler_SanitizesEmbedHTML(t *testing.T) {
	store := &mocks.StoreMock{
		AddFunc: func(ctx context.Context, draft feed.Draft) (feed.Item, error) {
			return testItem("music-1", 1000), nil
		},
	}
	srv := New(testConfig(), store, "test", false)

	body := `{"source":"bandcamp","url":"https://x.bandcamp.com/album/y","embedHtml":"<iframe src=\"https://bandcamp.com/EmbeddedPlayer/album=1/\"></iframe><script>alert(1)</script>"}`
	w := httptest.NewRecorder()
	srv.addItemHandler(w, httptest.NewRequest("POST", "/api/music-feed", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.AddCalls(), 1)
	stored := store.AddCalls()[0].Draft.EmbedHTML
	assert.Contains(t, stored, "<iframe")
	assert.NotContains(t, stored, "<script>")
	assert.NotContains(t, stored, "alert")
}

func TestServer_addItemHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		storeErr error
		wantCode int
	}{
		{
			name:     "duplicate url",
			body:     `{"source":"bandcamp","url":"https://x.bandcamp.com/album/y"}`,
			storeErr: fmt.Errorf("%w: https://x.bandcamp.com/album/y", feed.ErrConflict),
			wantCode: http.StatusConflict,
		},
		{
			name:     "missing fields",
			body:     `{"artist":"X"}`,
			storeErr: fmt.Errorf("%w: source and url are required", feed.ErrValidation),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "store failure",
			body:     `{"source":"bandcamp","url":"https://x.bandcamp.com/album/y"}`,
			storeErr: fmt.Errorf("disk failure"),
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "malformed body",
			body:     `{not json`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.StoreMock{
				AddFunc: func(ctx context.Context, draft feed.Draft) (feed.Item, error) {
					return feed.Item{}, tt.storeErr
				},
			}
			srv := New(testConfig(), store, "test", false)

			w := httptest.NewRecorder()
			srv.addItemHandler(w, httptest.NewRequest("POST", "/api/music-feed", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantCode, w.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestServer_rateItemHandler(t *testing.T) {
	store := &mocks.StoreMock{
		RateFunc: func(ctx context.Context, id string, rating int) (feed.Item, error) {
			item := testItem(id, 1000)
			item.Rating = rating
			item.RatedAt = 2000
			return item, nil
		},
	}
	srv := New(testConfig(), store, "test", false)

	req := httptest.NewRequest("PUT", "/api/music-feed/music-1/rating", strings.NewReader(`{"rating":5}`))
	req.SetPathValue("id", "music-1")
	w := httptest.NewRecorder()
	srv.rateItemHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var item feed.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, 5, item.Rating)
	assert.NotZero(t, item.RatedAt)

	require.Len(t, store.RateCalls(), 1)
	assert.Equal(t, "music-1", store.RateCalls()[0].ID)
	assert.Equal(t, 5, store.RateCalls()[0].Rating)
}

func TestServer_rateItemHandler_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		storeErr  error
		wantCode  int
		storeHits int
	}{
		{name: "rating zero", body: `{"rating":0}`, storeErr: fmt.Errorf("%w: rating must be between 1 and 5", feed.ErrValidation), wantCode: http.StatusBadRequest, storeHits: 1},
		{name: "rating six", body: `{"rating":6}`, storeErr: fmt.Errorf("%w: rating must be between 1 and 5", feed.ErrValidation), wantCode: http.StatusBadRequest, storeHits: 1},
		{name: "fractional rating", body: `{"rating":2.5}`, wantCode: http.StatusBadRequest},
		{name: "string rating", body: `{"rating":"3"}`, wantCode: http.StatusBadRequest},
		{name: "missing rating", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "unknown id", body: `{"rating":5}`, storeErr: fmt.Errorf("%w: music-1", feed.ErrNotFound), wantCode: http.StatusNotFound, storeHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.StoreMock{
				RateFunc: func(ctx context.Context, id string, rating int) (feed.Item, error) {
					return feed.Item{}, tt.storeErr
				},
			}
			srv := New(testConfig(), store, "test", false)

			req := httptest.NewRequest("PUT", "/api/music-feed/music-1/rating", strings.NewReader(tt.body))
			req.SetPathValue("id", "music-1")
			w := httptest.NewRecorder()
			srv.rateItemHandler(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Len(t, store.RateCalls(), tt.storeHits, "non-integer ratings must not reach the store")
		})
	}
}

func TestServer_deleteItemHandler(t *testing.T) {
	store := &mocks.StoreMock{
		DeleteFunc: func(ctx context.Context, id string) error { return nil },
	}
	srv := New(testConfig(), store, "test", false)

	req := httptest.NewRequest("DELETE", "/api/music-feed/music-1", http.NoBody)
	req.SetPathValue("id", "music-1")
	w := httptest.NewRecorder()
	srv.deleteItemHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, store.DeleteCalls(), 1)
	assert.Equal(t, "music-1", store.DeleteCalls()[0].ID)
}

func TestServer_deleteItemHandler_StoreError(t *testing.T) {
	store := &mocks.StoreMock{
		DeleteFunc: func(ctx context.Context, id string) error { return fmt.Errorf("disk failure") },
	}
	srv := New(testConfig(), store, "test", false)

	req := httptest.NewRequest("DELETE", "/api/music-feed/music-1", http.NoBody)
	req.SetPathValue("id", "music-1")
	w := httptest.NewRecorder()
	srv.deleteItemHandler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_statusHandler(t *testing.T) {
	srv := New(testConfig(), &mocks.StoreMock{}, "1.2.3", false)

	w := httptest.NewRecorder()
	srv.statusHandler(w, httptest.NewRequest("GET", "/api/status", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "1.2.3", status["version"])
	assert.NotEmpty(t, status["time"])
}

func TestServer_rssHandler(t *testing.T) {
	store := &mocks.StoreMock{
		ListFunc: func(ctx context.Context) ([]feed.Item, error) {
			return []feed.Item{testItem("music-1", 1700000000000)}, nil
		},
	}
	srv := New(testConfig(), store, "test", false)

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rss")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml; charset=utf-8", resp.Header.Get("Content-Type"))

	body := readBody(t, resp)
	assert.Contains(t, body, `<rss version="2.0"`)
	assert.Contains(t, body, "X - Y")
}

func TestServer_indexHandler(t *testing.T) {
	srv := New(testConfig(), &mocks.StoreMock{}, "test", false)

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	for _, path := range []string{"/", "/new-music"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body := readBody(t, resp)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, body, "Music Feed", path)
		assert.Contains(t, body, "/api/music-feed", path)
	}
}
