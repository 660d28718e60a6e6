// Package main is the resumatch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/resumatch/internal/cli"
	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/indexer"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/objectstore"
	"github.com/hyperjump/resumatch/internal/server"
	"github.com/hyperjump/resumatch/internal/storage"
	"github.com/hyperjump/resumatch/internal/watcher"
	"github.com/hyperjump/resumatch/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultServerURL     = "http://localhost:8080"
	defaultClientTimeout = 5 * time.Minute
)

// defaultConfigPath is ~/.config/resumatch/config.yaml, or "" when there is no home directory.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "resumatch", "config.yaml")
}

// loadConfig loads config from path. An empty path means the default location, falling
// back to ./config.yaml and then to built-in defaults when neither exists.
// Returns the config and the path it belongs to (for saving watch directories).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	candidates := []string{defaultConfigPath()}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "config.yaml"))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			cfg, err := config.Load(c)
			if err != nil {
				return nil, "", err
			}
			return cfg, c, nil
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg, "", nil
}

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "resumes":
		runResumes()
	case "match-jd":
		runMatchJD()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("resumatch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger for a direct (serverless) command.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseOutput(s string) cli.OutputFormat {
	f, err := cli.ParseOutputFormat(s)
	if err != nil {
		fail("%v", err)
	}
	return f
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default ~/.config/resumatch/config.yaml, then ./config.yaml)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", cfg.Debug || *debug))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pipeline := components.Pipeline
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(ctx context.Context, paths []string) {
			res, err := pipeline.IngestFiles(ctx, paths)
			if err != nil {
				logger.Warn("inbox batch failed", zap.Strings("paths", paths), zap.Error(err))
				return
			}
			logger.Info("inbox batch ingested",
				zap.Int("processed", len(res.ProcessedFiles)),
				zap.Int("failed", len(res.Failures)))
		},
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithWatch(watchSvc, resolvedConfigPath, cfg),
	}
	if disk, ok := components.Objects.(*objectstore.DiskStore); ok {
		opts = append(opts, server.WithFiles(disk.Dir()))
	}
	srv := server.NewServer(server.Deps{
		Ingester:  pipeline,
		Searcher:  components.Engine,
		JobParser: components.Parser,
		Extractor: components.Extractor,
		Store:     components.Store,
		URLs:      components.URLs,
	}, &cfg.Server, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	watchSvc.Stop()
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// reorderFlags moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument.
func reorderFlags(args []string) []string {
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

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// collectFiles expands directories (one level deep) to the supported files in them.
// Explicit file arguments are kept as given so the pipeline reports unsupported ones.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if extract.Supported(filepath.Ext(e.Name())) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	serverURL := fs.String("server", "", "server URL; empty ingests directly into the local store")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderFlags(os.Args[2:]))

	if fs.NArg() < 1 {
		fail("Usage: resumatch ingest [flags] <file-or-directory>...")
	}
	format := parseOutput(*outputFormat)
	paths, err := collectFiles(fs.Args())
	if err != nil {
		fail("Failed to read input: %v", err)
	}
	if len(paths) == 0 {
		fail("No supported files found (accepted: %s)", strings.Join(extract.SupportedExtensions, ", "))
	}

	ctx := context.Background()
	var res *models.BatchResult
	if *serverURL != "" {
		res, err = cli.NewClient(*serverURL, defaultClientTimeout).Upload(ctx, paths)
		var apiErr *cli.APIError
		if errors.As(err, &apiErr) && len(apiErr.Failures) > 0 {
			_ = cli.WriteFailures(os.Stdout, apiErr.Failures, format)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(ctx, cfg, logger)
		if initErr != nil {
			fail("Failed to initialize: %v", initErr)
		}
		defer components.Close()
		res, err = components.Pipeline.IngestFiles(ctx, paths)
		var be *indexer.BatchError
		if errors.As(err, &be) {
			_ = cli.WriteFailures(os.Stdout, be.Failures, format)
		}
	}
	if err != nil {
		fail("Ingest failed: %v", err)
	}
	if err := cli.WriteBatch(os.Stdout, res, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = search the local store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderFlags(os.Args[2:]))

	query := buildSearchQuery(fs.Args())
	if query == "" {
		fail("Usage: resumatch search [flags] <query>")
	}
	format := parseOutput(*outputFormat)

	ctx := context.Background()
	var (
		answer *models.Answer
		err    error
	)
	if *serverURL != "" {
		answer, err = cli.NewClient(*serverURL, defaultClientTimeout).Search(ctx, query)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(ctx, cfg, logger)
		if initErr != nil {
			fail("Failed to initialize: %v", initErr)
		}
		defer components.Close()
		answer, err = components.Engine.Answer(ctx, query)
	}
	if err != nil {
		fail("Search failed: %v", err)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL (empty = read the local store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*outputFormat)

	ctx := context.Background()
	var (
		st  models.StoreStatus
		err error
	)
	if *serverURL != "" {
		st, err = cli.NewClient(*serverURL, defaultClientTimeout).Status(ctx)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		store, _ := openCatalog(cfg, logger)
		st, err = store.Status(ctx)
	}
	if err != nil {
		fail("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runResumes() {
	fs := flag.NewFlagSet("resumes", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL (empty = read the local index directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*outputFormat)

	ctx := context.Background()
	var (
		links []models.ResumeLink
		err   error
	)
	if *serverURL != "" {
		links, err = cli.NewClient(*serverURL, defaultClientTimeout).Resumes(ctx)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		_, urls := openCatalog(cfg, logger)
		links, err = storage.ListResumes(ctx, urls)
	}
	if err != nil {
		fail("Listing resumes failed: %v", err)
	}
	if err := cli.WriteResumes(os.Stdout, links, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runMatchJD() {
	fs := flag.NewFlagSet("match-jd", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = match against the local store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderFlags(os.Args[2:]))

	if fs.NArg() != 1 {
		fail("Usage: resumatch match-jd [flags] <job-description-file>")
	}
	path := fs.Arg(0)
	format := parseOutput(*outputFormat)

	ctx := context.Background()
	var (
		match *models.JobMatch
		err   error
	)
	if *serverURL != "" {
		match, err = cli.NewClient(*serverURL, defaultClientTimeout).MatchJob(ctx, path)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, initErr := initializeComponents(ctx, cfg, logger)
		if initErr != nil {
			fail("Failed to initialize: %v", initErr)
		}
		defer components.Close()
		match, err = matchJobFile(ctx, components, path)
	}
	if err != nil {
		fail("Job description match failed: %v", err)
	}
	if err := cli.WriteJobMatch(os.Stdout, match, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func matchJobFile(ctx context.Context, c *Components, path string) (*models.JobMatch, error) {
	text, err := c.Extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	jd, err := c.Parser.ParseJobDescription(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.Engine.MatchJob(ctx, jd)
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: resumatch watch <add|remove|list> [path]")
		fmt.Println("  resumatch watch add <path>     Add an inbox directory")
		fmt.Println("  resumatch watch remove <path>  Stop watching an inbox directory")
		fmt.Println("  resumatch watch list           List inbox directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(reorderFlags(os.Args[3:]))

	client := cli.NewClient(*serverURL, defaultClientTimeout)
	ctx := context.Background()
	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fail("Usage: resumatch watch %s <path>", sub)
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fail("Invalid path: %v", err)
		}
		if sub == "add" {
			err = client.WatchAdd(ctx, path)
		} else {
			err = client.WatchRemove(ctx, path)
		}
		if err != nil {
			fail("Watch %s failed: %v", sub, err)
		}
		if sub == "add" {
			fmt.Printf("Added: %s\n", path)
		} else {
			fmt.Printf("Removed: %s\n", path)
		}
	case "list":
		dirs, err := client.WatchList(ctx)
		if err != nil {
			fail("Watch list failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fail("Unknown watch subcommand: %s", sub)
	}
}

func printUsage() {
	fmt.Println(`resumatch - match resumes to recruiter queries and job descriptions

Usage:
  resumatch server [flags]                 Start the HTTP server and inbox watcher
  resumatch ingest [flags] <path>...       Ingest resumes (files or directories)
  resumatch search [flags] <query>         Ask a recruiter question
  resumatch status [flags]                 Show vector store status
  resumatch resumes [flags]                List ingested resumes and their URLs
  resumatch match-jd [flags] <file>        Match candidates against a job description
  resumatch watch <add|remove|list>        Manage inbox directories of a running server
  resumatch version                        Show version
  resumatch help                           Show this help

Common Flags:
  --config string    Config file path (default: ~/.config/resumatch/config.yaml, then ./config.yaml)
  --server string    Server URL. search, match-jd and watch default to http://localhost:8080;
                     ingest, status and resumes default to direct local access.
                     Use --server "" to force direct access.
  --output string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Environment:
  GOOGLE_API_KEY / OPENAI_API_KEY   Language model key (see llm.api_key_env)
  R2_ACCESS_KEY / R2_SECRET_KEY     Object store credentials (see objectstore.*_env)
  A .env file in the working directory is loaded when present.

Examples:
  resumatch server
  resumatch ingest ./resumes
  resumatch search "who has led a Kubernetes migration?"
  resumatch match-jd --output json backend-engineer.pdf
  resumatch status
  resumatch watch add ~/Downloads/resumes`)
}
