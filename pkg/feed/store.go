package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Store owns the feed document. All four operations run under an internal
// lock and persist with a temp-file rename, so concurrent callers within the
// process can't interleave read-modify-write cycles.
type Store struct {
	path string
	lock sync.Mutex
	now  func() time.Time
}

// NewStore creates a store persisting to the given JSON file.
// The file doesn't have to exist yet, a missing file is an empty feed.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// List returns all items sorted by addedAt descending, most recent first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt > items[j].AddedAt })
	return items, nil
}

// Add validates a draft, rejects duplicate URLs, assigns id and timestamp,
// fills defaults and persists. Returns the stored item.
func (s *Store) Add(ctx context.Context, draft Draft) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if draft.Source == "" || draft.URL == "" {
		return Item{}, fmt.Errorf("%w: source and url are required", ErrValidation)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}

	if lo.ContainsBy(items, func(i Item) bool { return i.URL == draft.URL }) {
		return Item{}, fmt.Errorf("%w: %s", ErrConflict, draft.URL)
	}

	// ids are music-<unix-millis>, same shape the feed has always used.
	// bump the millis on collision so the id stays unique under fast appends.
	ms := s.now().UnixMilli()
	for lo.ContainsBy(items, func(i Item) bool { return i.ID == fmt.Sprintf("music-%d", ms) }) {
		ms++
	}

	item := Item{
		ID:        fmt.Sprintf("music-%d", ms),
		Source:    draft.Source,
		URL:       draft.URL,
		EmbedURL:  draft.EmbedURL,
		EmbedHTML: draft.EmbedHTML,
		Artist:    draft.Artist,
		Title:     draft.Title,
		Type:      draft.Type,
		AddedAt:   ms,
	}
	if item.Artist == "" {
		item.Artist = UnknownArtist
	}
	if item.Title == "" {
		item.Title = UnknownTitle
	}
	if item.Type == "" {
		item.Type = TypeAlbum
	}

	items = append(items, item)
	if err := s.save(items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Rate sets the rating and ratedAt of the item with the given id.
// Each call overwrites any previous rating.
func (s *Store) Rate(ctx context.Context, id string, rating int) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if rating < 1 || rating > 5 {
		return Item{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}

	_, idx, found := lo.FindIndexOf(items, func(i Item) bool { return i.ID == id })
	if !found {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	items[idx].Rating = rating
	items[idx].RatedAt = s.now().UnixMilli()

	if err := s.save(items); err != nil {
		return Item{}, err
	}
	return items[idx], nil
}

// Delete removes the item with the given id. Deleting an absent id is not
// an error, the operation is idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	items = lo.Filter(items, func(i Item, _ int) bool { return i.ID != id })
	return s.save(items)
}

// load reads the document, a missing file means an empty feed
func (s *Store) load() ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("read feed file: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse feed file %s: %w", s.path, err)
	}
	return items, nil
}

// save writes the whole document atomically via a temp file in the same dir
func (s *Store) save(items []Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.json")
	if err != nil {
		return fmt.Errorf("create temp feed file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feed file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace feed file: %w", err)
	}
	return nil
}
