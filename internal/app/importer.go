package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/config"
	"github.com/samvad-hq/samvad-news-importer/internal/crawler"
	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/imaging"
	"github.com/samvad-hq/samvad-news-importer/internal/importer"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/internal/storage"
	"github.com/samvad-hq/samvad-news-importer/internal/taxonomy"
	"github.com/samvad-hq/samvad-news-importer/internal/validator"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
	"github.com/samvad-hq/samvad-news-importer/pkg/objectstore"
	"github.com/samvad-hq/samvad-news-importer/pkg/providers"
	"github.com/samvad-hq/samvad-news-importer/pkg/publishers"
	"github.com/samvad-hq/samvad-news-importer/pkg/rewriter"
)

// Importer is the importer runtime: storage, media, notifications and the
// batch orchestrator built from config.
type Importer struct {
	cfg      *config.Config
	store    storage.Store
	importer *importer.Importer
	fanout   *publishers.Fanout
	client   httpclient.Client
	log      logger.Logger
}

// NewImporter wires every collaborator from cfg. Close releases them.
func NewImporter(ctx context.Context, cfg *config.Config, log logger.Logger) (*Importer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	tables := taxonomy.DefaultTables()
	storeOpts := storage.Options{
		Categories:    tables.Categories,
		DefaultAuthor: cfg.DefaultAuthor,
	}
	store, err := storage.NewStore(cfg.StoreType, storeLocation(cfg), storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	storeMeta := map[string]any{"type": cfg.StoreType}
	if cfg.StoreType != "postgres" {
		storeMeta["path"] = storeLocation(cfg)
	}
	log.InfoObj("storage initialized", "storage_config", storeMeta)

	uploader, err := objectstore.New(ctx, objectstore.Config{
		Type:          cfg.ObjectStoreType,
		LocalPath:     cfg.LocalStoragePath,
		PublicBaseURL: cfg.PublicBaseURL,
		S3: objectstore.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	client := httpclient.NewRestyClient(cfg.ImageTimeout,
		httpclient.WithUserAgent(cfg.AppName+"/1.0"),
		httpclient.WithRetry(2, 500*time.Millisecond, 5*time.Second))
	pipeline := imaging.NewPipeline(client, uploader, imaging.Options{
		Timeout:      cfg.ImageTimeout,
		MaxBytes:     int(cfg.ImageMaxBytes),
		MaxDimension: cfg.ImageMaxDimension,
		Quality:      cfg.ImageJPEGQuality,
		MaxPixels:    cfg.ImageMaxPixels,
	}, log)

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	deps := importer.Deps{
		Store:           store,
		Images:          pipeline,
		Classifier:      taxonomy.NewClassifier(tables),
		SlugMaxAttempts: cfg.SlugMaxAttempts,
		Log:             log,
		Progress: importer.ProgressFunc(func(completed, total int) {
			log.DebugObj("batch progress", "progress", map[string]any{
				"completed": completed,
				"total":     total,
			})
		}),
	}
	if fanout != nil {
		deps.Notifier = fanout
	}
	if rw := rewriter.NewHTTPRewriter(httpclient.NewRestyClient(cfg.RewriterTimeout), cfg.RewriterURL, cfg.RewriterTimeout); rw != nil {
		deps.Rewriter = rw
	}

	imp, err := importer.New(deps)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build importer: %w", err)
	}

	return &Importer{
		cfg:      cfg,
		store:    store,
		importer: imp,
		fanout:   fanout,
		client:   client,
		log:      log,
	}, nil
}

// storeLocation picks the DSN or file path for the configured backend.
func storeLocation(cfg *config.Config) string {
	switch cfg.StoreType {
	case "postgres":
		return cfg.PostgresDSN
	case "memory":
		return ""
	default:
		return cfg.BBoltPath
	}
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.InfoObj("no publishers file configured; import events disabled", "publishers_meta", map[string]any{"count": 0})
		return nil, nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("publishers file has no enabled publishers", "publishers_file", path)
		return nil, nil
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs, log), nil
}

// ImportFiles imports the items of every file as a single batch.
func (a *Importer) ImportFiles(ctx context.Context, paths []string, opts importer.Options) (*domain.BatchReport, error) {
	items, err := LoadItems(paths)
	if err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = "file"
	}
	return a.importer.ImportBatch(ctx, items, opts)
}

// ImportProviders pulls from every enabled provider in the providers file.
func (a *Importer) ImportProviders(ctx context.Context, opts importer.Options) ([]crawler.ProviderReport, error) {
	reg, err := providers.LoadRegistry(a.cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	enabled := reg.Enabled()
	ids := make([]string, 0, len(enabled))
	for _, p := range enabled {
		ids = append(ids, p.ID)
	}
	a.log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	svc := crawler.NewService(providers.DefaultFetcherRegistry(a.client, a.log), a.importer, a.store, a.log)
	return svc.Run(ctx, enabled, opts)
}

// Progress reports completed and total items of the running batch.
func (a *Importer) Progress() (int, int) {
	return a.importer.Progress()
}

// Close releases publisher connections and the storage backend.
func (a *Importer) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.fanout.Close(); err != nil {
		a.log.ErrorObj("publishers close failed", "error", err)
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.ErrorObj("storage close failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateFiles normalizes and validates the items of every file without
// writing anything.
func ValidateFiles(paths []string) (validator.Report, error) {
	items, err := LoadItems(paths)
	if err != nil {
		return validator.Report{}, err
	}
	store, err := storage.NewStore("memory", "", storage.Options{})
	if err != nil {
		return validator.Report{}, err
	}
	defer store.Close()

	imp, err := importer.New(importer.Deps{Store: store})
	if err != nil {
		return validator.Report{}, err
	}
	return imp.ValidateOnly(items)
}

// LoadItems reads raw items from JSON files, in argument order.
func LoadItems(paths []string) ([]domain.RawNewsItem, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files given")
	}
	var items []domain.RawNewsItem
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		decoded, err := providers.DecodeItems(data, "")
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		items = append(items, decoded...)
	}
	return items, nil
}
