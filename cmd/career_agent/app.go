package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/db/sqlite"
	"github.com/jonathan/career-compass/internal/events"
	"github.com/jonathan/career-compass/internal/fetch"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/ingestion"
	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/observability"
	"github.com/jonathan/career-compass/internal/storage"
)

// newLLMClient builds the model client; tests swap it for a scripted one.
var newLLMClient = func(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	mc, err := cfg.ModelConfig()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, mc, cfg.LLM.APIKey)
}

// app holds the configuration and logger shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// loadApp reads the environment, applies --config and --log-level, and builds
// a logger on logOut. Commands that speak a protocol on stdout log to stderr.
func loadApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		file, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(file); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// openStore connects to the configured store. The caller closes it.
func (a *app) openStore(ctx context.Context) (db.Store, error) {
	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		return db.Connect(ctx, a.cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlite.Open(a.cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
}

// openBlobs returns S3 storage when a bucket is configured, local files otherwise.
func (a *app) openBlobs(ctx context.Context) (storage.Blobs, error) {
	if a.cfg.S3.Bucket != "" {
		s3cfg := a.cfg.S3
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			PathStyle: s3cfg.PathStyle,
		})
	}
	return storage.NewLocal(a.cfg.StorageDir)
}

// openEvents dials RabbitMQ when AMQP_URL is set.
func (a *app) openEvents() (events.Publisher, error) {
	if a.cfg.AMQPURL == "" {
		return events.Noop{}, nil
	}
	return events.DialAMQP(a.cfg.AMQPURL, a.logger)
}

// newInvoker creates the model client and the invoker over it. The returned
// client must be closed by the caller.
func (a *app) newInvoker(ctx context.Context) (flow.Invoker, llm.Client, error) {
	client, err := newLLMClient(ctx, a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return flow.NewModelInvoker(client, nil, a.logger), client, nil
}

// newJobFetcher builds the posting fetcher used by cover letters.
func (a *app) newJobFetcher() *ingestion.JobFetcher {
	pages := fetch.DefaultCachedFetcherConfig()
	pages.CacheTTL = a.cfg.FetchCacheTTL
	var browser ingestion.BrowserFunc
	if a.cfg.FetchUseBrowser {
		browser = fetch.BrowserSimple
	}
	return ingestion.NewJobFetcher(fetch.NewCachedFetcher(pages), browser, a.logger)
}

// newCatalog builds the roadmap catalog, closed by the caller.
func newCatalog() (*careers.Catalog, error) {
	catalog, err := careers.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build roadmap catalog: %w", err)
	}
	return catalog, nil
}
