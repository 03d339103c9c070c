// Package server exposes the music feed over HTTP: the JSON API the CLI
// and the web page talk to, an RSS rendition, and the static front page.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/microcosm-cc/bluemonday"

	"musicfeed/pkg/feed"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider

// Server represents HTTP server instance
type Server struct {
	config  ConfigProvider
	store   Store
	version string
	debug   bool

	sanitizer *bluemonday.Policy
	generator *feed.Generator

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store is the feed storage the handlers run against
type Store interface {
	List(ctx context.Context) ([]feed.Item, error)
	Add(ctx context.Context, draft feed.Draft) (feed.Item, error)
	Rate(ctx context.Context, id string, rating int) (feed.Item, error)
	Delete(ctx context.Context, id string) error
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	GetBaseURL() string
}

// New initializes a new server instance
func New(cfg ConfigProvider, store Store, version string, debug bool) *Server {
	s := &Server{
		config:    cfg,
		store:     store,
		version:   version,
		debug:     debug,
		sanitizer: embedPolicy(),
		generator: feed.NewGenerator(cfg.GetBaseURL()),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("musicfeed", "musicfeed", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	// feed API used by the CLI and the web page
	s.router.Mount("/api").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /music-feed", s.listItemsHandler)
		r.HandleFunc("POST /music-feed", s.addItemHandler)
		r.HandleFunc("PUT /music-feed/{id}/rating", s.rateItemHandler)
		r.HandleFunc("DELETE /music-feed/{id}", s.deleteItemHandler)
		r.HandleFunc("GET /status", s.statusHandler)
	})

	s.router.HandleFunc("GET /rss", s.rssHandler)

	// feed page at root and /new-music
	s.router.HandleFunc("GET /{$}", s.indexHandler)
	s.router.HandleFunc("GET /new-music", s.indexHandler)
}

var (
	// player markup shape: one iframe, optionally wrapping a fallback link
	embedShapeRe    = regexp.MustCompile(`(?s)^\s*<iframe\b[^>]*\bsrc="([^"]+)"[^>]*>(.*?)</iframe>\s*$`)
	embedFallbackRe = regexp.MustCompile(`(?s)^\s*(?:<a href="[^"]*">[^<]*</a>)?\s*$`)
)

// embedHosts lists the player endpoints the extractors emit
var embedHosts = []struct{ host, pathPrefix string }{
	{"bandcamp.com", "/EmbeddedPlayer/"},
	{"www.youtube.com", "/embed/"},
	{"w.soundcloud.com", "/player"},
}

// allowedEmbed reports whether markup is a single player iframe pointing
// at a known embed host, with nothing inside but the fallback link. Such
// markup is stored as-is; sanitizing it would escape the fallback link
// into text.
func allowedEmbed(markup string) bool {
	m := embedShapeRe.FindStringSubmatch(markup)
	if m == nil {
		return false
	}
	u, err := url.Parse(m[1])
	if err != nil || u.Scheme != "https" {
		return false
	}
	for _, e := range embedHosts {
		if u.Host == e.host && strings.HasPrefix(u.Path, e.pathPrefix) {
			return embedFallbackRe.MatchString(m[2])
		}
	}
	return false
}

// embedPolicy is the fallback for markup that is not recognized player
// markup, it keeps an iframe with a text link and strips everything else
func embedPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "frameborder", "allow", "allowfullscreen", "seamless", "scrolling", "loading", "style").OnElements("iframe")
	p.AllowStyles("border", "width", "height").OnElements("iframe")
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("a")
	return p
}
