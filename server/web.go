package server

import (
	_ "embed"
	"log"
	"net/http"
)

//go:embed web/index.html
var indexHTML []byte

// indexHandler serves the feed page
func (s *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(indexHTML); err != nil {
		log.Printf("[ERROR] failed to write index page: %v", err)
	}
}
