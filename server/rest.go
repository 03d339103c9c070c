package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"musicfeed/pkg/feed"
)

// listItemsHandler returns all feed items, most recent first
func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to list feed items: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, items)
}

// addItemHandler stores a new draft, rejecting duplicates and incomplete
// submissions. Embed markup that is not recognized player markup is
// sanitized before it reaches the store.
func (s *Server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	var draft feed.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	// recognized player markup is stored verbatim, anything else is
	// stripped down to what the policy allows
	if draft.EmbedHTML != "" && !allowedEmbed(draft.EmbedHTML) {
		draft.EmbedHTML = s.sanitizer.Sanitize(draft.EmbedHTML)
	}

	item, err := s.store.Add(r.Context(), draft)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Printf("[ERROR] failed to add feed item: %v", err)
		}
		renderError(w, r, err, code)
		return
	}

	log.Printf("[INFO] added feed item %s: %s - %s", item.ID, item.Artist, item.Title)
	renderJSON(w, r, http.StatusOK, item)
}

// rateItemHandler sets a 1-5 star rating on an item
func (s *Server) rateItemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Rating json.Number `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderError(w, r, fmt.Errorf("rating must be an integer between 1 and 5"), http.StatusBadRequest)
		return
	}

	// reject 2.5 and friends, only whole numbers are representable ratings
	rating, err := body.Rating.Int64()
	if err != nil {
		renderError(w, r, fmt.Errorf("rating must be an integer between 1 and 5"), http.StatusBadRequest)
		return
	}

	item, err := s.store.Rate(r.Context(), id, int(rating))
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Printf("[ERROR] failed to rate feed item %s: %v", id, err)
		}
		renderError(w, r, err, code)
		return
	}

	renderJSON(w, r, http.StatusOK, item)
}

// deleteItemHandler removes an item, deleting an absent id still succeeds
func (s *Server) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		log.Printf("[ERROR] failed to delete feed item %s: %v", id, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// rssHandler serves the feed as RSS 2.0
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to get items for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	rss, err := s.generator.GenerateRSS(items)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// statusFor maps a failure to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, feed.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, feed.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
