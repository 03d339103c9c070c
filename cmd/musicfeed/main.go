package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"musicfeed/pkg/api"
	"musicfeed/pkg/config"
	"musicfeed/pkg/extractor"
	"musicfeed/pkg/feed"
	"musicfeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"MUSICFEED_CONFIG" description:"config file path"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool   `short:"V" long:"version" description:"show version info"`
	NoColor bool   `long:"no-color" env:"NO_COLOR" description:"disable color output"`

	ServerCmd ServerCommand `command:"server" description:"run the feed server"`
	AddCmd    AddCommand    `command:"add" description:"capture a music link into the feed"`
	SearchCmd SearchCommand `command:"search" description:"search a source and capture the first result"`
}

// ServerCommand runs the HTTP server
type ServerCommand struct{}

// AddCommand captures a single music page link
type AddCommand struct {
	Args struct {
		URL string `positional-arg-name:"url" required:"yes" description:"bandcamp, youtube or soundcloud link"`
	} `positional-args:"yes"`
}

// SearchCommand searches a source by free-text query
type SearchCommand struct {
	Source string `short:"s" long:"source" choice:"bandcamp" choice:"youtube" default:"bandcamp" description:"search source"`
	Args   struct {
		Query []string `positional-arg-name:"query" required:"yes" description:"artist or release to look up"`
	} `positional-args:"yes"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	setupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts, parser.Active.Name); err != nil {
		fail(err)
	}
}

// run loads the config and dispatches the selected command
func run(ctx context.Context, opts Opts, command string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err = config.VerifyAgainstEmbeddedSchema(cfg); err != nil {
		return fmt.Errorf("failed to verify config: %w", err)
	}

	switch command {
	case "server":
		return runServer(ctx, cfg, opts.Debug)
	case "add":
		return runAdd(ctx, cfg, opts.AddCmd.Args.URL)
	case "search":
		return runSearch(ctx, cfg, opts.SearchCmd.Source, strings.Join(opts.SearchCmd.Args.Query, " "))
	}
	return fmt.Errorf("unknown command %q", command)
}

func runServer(ctx context.Context, cfg *config.Config, dbg bool) error {
	log.Printf("[INFO] starting musicfeed server version %s", revision)
	store := feed.NewStore(cfg.Feed.File)
	srv := server.New(cfg, store, revision, dbg)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Print("[INFO] shutdown complete")
	return nil
}

func runAdd(ctx context.Context, cfg *config.Config, pageURL string) error {
	fetcher := extractor.NewPageFetcher(cfg.Extractor.Timeout, cfg.Extractor.UserAgent)
	ext, err := extractor.ForURL(pageURL, fetcher)
	if err != nil {
		return err
	}
	draft, err := ext.Extract(ctx, pageURL)
	if err != nil {
		return err
	}
	return submit(ctx, cfg, draft)
}

func runSearch(ctx context.Context, cfg *config.Config, source, query string) error {
	fetcher := extractor.NewPageFetcher(cfg.Extractor.Timeout, cfg.Extractor.UserAgent)

	var searcher extractor.Searcher
	switch source {
	case "bandcamp":
		searcher = extractor.NewBandcamp(fetcher)
	case "youtube":
		searcher = extractor.NewYouTube(fetcher)
	default:
		return fmt.Errorf("%w: search source %q", feed.ErrUnsupportedSource, source)
	}

	draft, err := searcher.Search(ctx, query)
	if err != nil {
		return err
	}
	return submit(ctx, cfg, draft)
}

// submit sends the draft to the feed API and prints the stored item
func submit(ctx context.Context, cfg *config.Config, draft feed.Draft) error {
	client := api.NewClient(cfg.Feed.API, cfg.Extractor.Timeout)
	item, err := client.Add(ctx, draft)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// fail prints the error as a JSON object to stderr and exits
func fail(err error) {
	msg, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Fprintln(os.Stderr, string(msg))
	os.Exit(1)
}

// setupLog routes all progress to stderr, stdout carries only command
// results
func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
