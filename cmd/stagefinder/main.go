// Package main is the stagefinder CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/stagefinder/internal/cli"
	"github.com/hyperjump/stagefinder/internal/codes"
	"github.com/hyperjump/stagefinder/internal/config"
	"github.com/hyperjump/stagefinder/internal/metrics"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/relax"
	"github.com/hyperjump/stagefinder/internal/server"
	"github.com/hyperjump/stagefinder/internal/storage"
	"github.com/hyperjump/stagefinder/internal/upstream"
	"github.com/hyperjump/stagefinder/internal/watcher"
	"github.com/hyperjump/stagefinder/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/stagefinder/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present; if neither exists, defaults plus environment
// overrides are used so a service key in the environment is enough to run.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			config.ApplyEnv(cfg)
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "event":
		runEvent()
	case "genres":
		runGenres()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("stagefinder version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (relaxation levels, upstream calls)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("provider", cfg.Upstream.Provider),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	opts := []server.Option{server.WithMetrics(components.Metrics)}
	history, err := openHistory(ctx, &cfg.History, logger)
	if err != nil {
		logger.Fatal("Failed to open search history", zap.Error(err))
	}
	if history != nil {
		defer history.Close()
		opts = append(opts, server.WithHistory(history))
	}

	srv := server.NewServer(components.Engine, components.Registry, &cfg.Server, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// searchOptions are the parsed flags of the search subcommand.
type searchOptions struct {
	configPath string
	serverURL  string
	format     cli.OutputFormat
	mode       models.SearchMode
	params     models.SearchParams
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: stagefinder search [flags] [by-location|free-events|trending]\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The mode defaults to by-location. Genre is required except for trending.
When fewer than --limit events match, the search widens region, genre and
dates in up to four levels and reports what it relaxed.

Examples:
  stagefinder search --genre AAAA --sido 11
  stagefinder search free-events --genre GGGA --gugun 1168 --limit 5
  stagefinder search trending --output json
`)
}

// searchArgsReorder moves any flags (and their values) that appear after the mode
// to the front so that flag.Parse() sees them. Go's flag package stops at the
// first non-flag argument, so "stagefinder search trending --limit 5" would
// otherwise leave --limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseSearchArgs parses search flags and the optional positional mode.
func parseSearchArgs(args []string, output io.Writer) (*searchOptions, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(output)
	opts := &searchOptions{}
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "config file path (direct mode)")
	fs.StringVar(&opts.serverURL, "server", defaultServerURL, `server URL (empty = query the upstream directly)`)
	mode := fs.String("mode", "", "search mode: by-location, free-events or trending")
	fs.StringVar(&opts.params.GenreCode, "genre", "", "genre code, e.g. AAAA (theater), GGGA (musical)")
	fs.StringVar(&opts.params.StartDate, "start", "", "start date YYYYMMDD")
	fs.StringVar(&opts.params.EndDate, "end", "", "end date YYYYMMDD")
	fs.StringVar(&opts.params.SidoCode, "sido", "", "2-digit province code")
	fs.StringVar(&opts.params.GugunCode, "gugun", "", "4-digit district code")
	fs.IntVar(&opts.params.Limit, "limit", 0, "minimum number of results (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text, compact (one event per line) or json")
	fs.Usage = func() { printSearchUsage(fs) }
	if err := fs.Parse(searchArgsReorder(args)); err != nil {
		return nil, err
	}

	switch {
	case fs.NArg() > 1:
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	case fs.NArg() == 1 && *mode != "" && *mode != fs.Arg(0):
		return nil, fmt.Errorf("mode given twice: %q and %q", *mode, fs.Arg(0))
	case fs.NArg() == 1:
		*mode = fs.Arg(0)
	}
	if *mode == "" {
		*mode = string(models.ModeByLocation)
	}
	m, err := models.ParseSearchMode(*mode)
	if err != nil {
		return nil, err
	}
	opts.mode = m

	if opts.format, err = cli.ParseOutputFormat(*outputFormat); err != nil {
		return nil, err
	}
	return opts, nil
}

func runSearch() {
	opts, err := parseSearchArgs(os.Args[2:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(2)
	}

	var result *models.SmartSearchResult
	if opts.serverURL != "" {
		result, err = searchViaHTTP(opts.serverURL, &server.SearchRequest{Mode: opts.mode, Params: &opts.params})
	} else {
		err = withDirectEngine(opts.configPath, func(ctx context.Context, engine *relax.Engine) error {
			var searchErr error
			result, searchErr = engine.Search(ctx, opts.mode, &opts.params)
			return searchErr
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResult(os.Stdout, result, opts.format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runEvent() {
	fs := flag.NewFlagSet("event", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = query the upstream directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: stagefinder event [flags] <event-id>")
		os.Exit(2)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	id := fs.Arg(0)

	var detail *models.EventDetail
	if *serverURL != "" {
		detail, err = eventViaHTTP(*serverURL, id)
	} else {
		err = withDirectEngine(*configPath, func(ctx context.Context, engine *relax.Engine) error {
			var lookupErr error
			detail, lookupErr = engine.EventDetail(ctx, id)
			return lookupErr
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Event lookup failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEventDetail(os.Stdout, detail, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runGenres() {
	for _, code := range codes.AllGenres {
		related := codes.RelatedGenres(code)
		fmt.Printf("%s  %-20s related: %s\n", code, codes.GenreLabel(code), strings.Join(related, ", "))
	}
}

// openHistory opens the search history log and prunes records past retention.
// It returns nil when no history path is configured.
func openHistory(ctx context.Context, cfg *config.HistoryConfig, logger *zap.Logger) (*storage.SQLiteHistory, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	history, err := storage.NewSQLiteHistory(cfg.Path)
	if err != nil {
		return nil, err
	}
	if n, err := history.Prune(ctx, time.Now().Add(-cfg.Retention)); err != nil {
		logger.Warn("history prune failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("pruned search history", zap.Int64("records", n))
	}
	logger.Info("search history enabled", zap.String("path", cfg.Path))
	return history, nil
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of searches to list")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	action := "list"
	if fs.NArg() == 1 {
		action = fs.Arg(0)
	}
	if fs.NArg() > 1 || (action != "list" && action != "stats" && action != "prune") {
		fmt.Fprintln(os.Stderr, "Usage: stagefinder history [flags] [list|stats|prune]")
		os.Exit(2)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.History.Path == "" {
		fmt.Fprintln(os.Stderr, "Search history is disabled (history.path is not set)")
		os.Exit(1)
	}
	cutoff := time.Now().Add(-cfg.History.Retention)
	if err := historyCommand(context.Background(), os.Stdout, cfg.History.Path, action, *limit, cutoff); err != nil {
		fmt.Fprintf(os.Stderr, "History %s failed: %v\n", action, err)
		os.Exit(1)
	}
}

// historyCommand runs a history action against the log at path. prune removes
// records created before cutoff.
func historyCommand(ctx context.Context, w io.Writer, path, action string, limit int, cutoff time.Time) error {
	history, err := storage.NewSQLiteHistory(path)
	if err != nil {
		return err
	}
	defer history.Close()

	switch action {
	case "prune":
		n, err := history.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pruned %d searches\n", n)
	case "stats":
		stats, err := history.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "path:        %s\n", path)
		fmt.Fprintf(w, "searches:    %d\n", stats.Searches)
		fmt.Fprintf(w, "exhausted:   %d\n", stats.Exhausted)
		fmt.Fprintf(w, "failed:      %d\n", stats.Failed)
		fmt.Fprintf(w, "disk_bytes:  %d\n", stats.DiskBytes)
	default:
		records, err := history.Recent(ctx, limit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			outcome := fmt.Sprintf("level %d, %d found", rec.Level, rec.Found)
			if rec.Error != "" {
				outcome = "error: " + utils.Truncate(rec.Error, 60)
			}
			fmt.Fprintf(w, "%s  %-12s %6dms  %s  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Mode, rec.DurationMs, outcome, rec.Params)
		}
	}
	return nil
}

// withDirectEngine builds the components from config for one command and runs fn.
func withDirectEngine(configPath string, fn func(ctx context.Context, engine *relax.Engine) error) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// a one-shot command never needs catalog reloads
	cfg.Upstream.WatchCatalog = false
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(ctx, components.Engine)
}

func searchViaHTTP(serverURL string, req *server.SearchRequest) (*models.SmartSearchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var result models.SmartSearchResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func eventViaHTTP(serverURL, id string) (*models.EventDetail, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/events/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var detail models.EventDetail
	if err := decodeResponse(resp, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds the wired dependencies of the search engine.
type Components struct {
	Client   upstream.Client
	Catalog  *upstream.Catalog
	Watcher  *watcher.Watcher
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Engine   *relax.Engine
}

// Close stops the catalog watcher and releases the catalog index.
func (c *Components) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{
		Metrics:  metrics.NewMetrics(),
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := c.Metrics.Register(c.Registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var base upstream.Client
	switch cfg.Upstream.Provider {
	case config.ProviderCatalog:
		catalog, err := upstream.NewCatalog(cfg.Upstream.CatalogPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		c.Catalog = catalog
		base = catalog

		if cfg.Upstream.WatchCatalog {
			w, err := watcher.NewWatcher([]string{catalog.Path()}, func(path string) {
				if err := catalog.Reload(); err != nil {
					logger.Warn("catalog reload failed, keeping previous data", zap.String("path", path), zap.Error(err))
				}
			}, watcher.WithLogger(logger))
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
			}
			if err := w.Start(ctx); err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to start catalog watcher: %w", err)
			}
			c.Watcher = w
		}
	default:
		client, err := upstream.NewKOPISClient(upstream.KOPISOptions{
			BaseURL:           cfg.Upstream.BaseURL,
			ServiceKey:        cfg.Upstream.ServiceKey,
			Timeout:           cfg.Upstream.Timeout,
			RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream client: %w", err)
		}
		base = client
	}

	c.Client = upstream.NewInstrumented(base, c.Metrics)
	c.Engine = relax.NewEngine(c.Client, &cfg.Search, logger, relax.WithMetrics(c.Metrics))
	return c, nil
}

func printUsage() {
	fmt.Println(`stagefinder - Relaxed search and ranking over performance listings

Usage:
  stagefinder server [flags]                 Start the HTTP server
  stagefinder search [flags] [mode]          Search events (by-location, free-events, trending)
  stagefinder event [flags] <event-id>       Show one event's details
  stagefinder genres                         List genre codes and related genres
  stagefinder history [list|stats|prune]     Inspect the search history log
  stagefinder version                        Show version
  stagefinder help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/stagefinder/config.yaml)
  --debug            Enable debug logging (relaxation levels, upstream calls)

Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to query the upstream directly.
  --mode string      Search mode (or give it as the positional argument)
  --genre string     Genre code (required except for trending)
  --start string     Start date YYYYMMDD
  --end string       End date YYYYMMDD
  --sido string      2-digit province code
  --gugun string     4-digit district code
  --limit int        Minimum number of results (default from config, 3)
  --output string    Output format: text, compact or json (default: text)

History Flags:
  --config string    Config file path (history.path must be set)
  --limit int        Number of searches to list (default: 20)

Environment:
  STAGEFINDER_SERVICE_KEY   Upstream service key (overrides upstream.service_key)

Examples:
  stagefinder server
  stagefinder search --genre AAAA --sido 11
  stagefinder search free-events --genre GGGA --gugun 1168 --limit 5
  stagefinder search trending --output json
  stagefinder event PF132236`)
}
