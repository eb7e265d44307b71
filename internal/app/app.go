package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
	"github.com/codenarok/SteamGameFetcher/internal/infrastructure/csvsink"
	"github.com/codenarok/SteamGameFetcher/internal/infrastructure/docstore"
	"github.com/codenarok/SteamGameFetcher/internal/infrastructure/gridaccess"
	"github.com/codenarok/SteamGameFetcher/internal/infrastructure/storage"
	"github.com/codenarok/SteamGameFetcher/internal/logging"
	"github.com/codenarok/SteamGameFetcher/internal/usecase"
	"github.com/codenarok/SteamGameFetcher/pkg/logger"
)

// Application wires configs to use cases. Each Run* method is one
// complete, run-to-completion operation; the grid session it opens is
// exclusively owned until the method returns.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *grid.Registry
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := grid.NewRegistry()
	registry.Register("rod", func(ctx context.Context) (grid.Accessor, error) {
		return gridaccess.NewRod(ctx, cfg.Grid,
			logging.Component(baseLogger, "grid.rod"),
			logger.New("browser-console"))
	})
	registry.Register("snapshot", func(ctx context.Context) (grid.Accessor, error) {
		return gridaccess.NewSnapshot(cfg.Grid, logging.Component(baseLogger, "grid.snapshot"))
	})

	return &Application{cfg: cfg, logger: baseLogger, registry: registry}
}

// RunScrape executes the full-catalog extraction loop.
func (a *Application) RunScrape(ctx context.Context) error {
	acc, err := a.openAccessor(ctx)
	if err != nil {
		return err
	}
	defer acc.Close()

	if err := acc.WaitReady(ctx); err != nil {
		return fmt.Errorf("grid not ready: %w", err)
	}

	sink := csvsink.NewAppendSink(a.cfg.Extract.CSVPath, domain.CSVHeader)
	extractor := usecase.NewExtractor(sink, a.cfg.Extract, a.cfg.Grid.ScrollAmount,
		logging.NewReporter(logging.Component(a.logger, "extract")),
		logging.Component(a.logger, "extract"))

	written, err := extractor.Run(ctx, acc)
	if err != nil {
		return fmt.Errorf("extraction after %d rows written: %w", written, err)
	}
	a.logger.Info("scrape finished", "rows_written", written, "csv", a.cfg.Extract.CSVPath)
	return nil
}

// RunLookup resolves every title of the input CSV and writes the widened
// result CSV.
func (a *Application) RunLookup(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		inputPath = a.cfg.Lookup.InputCSV
	}
	if outputPath == "" {
		outputPath = a.cfg.Lookup.OutputCSV
	}
	if inputPath == "" {
		return fmt.Errorf("no input CSV given")
	}

	header, rows, err := csvsink.ReadTable(inputPath)
	if err != nil {
		return err
	}
	a.logger.Info("input loaded", "rows", len(rows), "csv", inputPath)

	acc, err := a.openAccessor(ctx)
	if err != nil {
		return err
	}
	defer acc.Close()

	if err := acc.WaitReady(ctx); err != nil {
		return fmt.Errorf("grid not ready: %w", err)
	}

	lookup := usecase.NewLookup(
		usecase.NewResolver(logging.Component(a.logger, "resolve")),
		a.cfg.Lookup.TitleColumn,
		logging.NewReporter(logging.Component(a.logger, "lookup")),
		logging.Component(a.logger, "lookup"))

	outHeader, outRows, counts, err := lookup.Run(ctx, acc, header, rows)
	if err != nil {
		return err
	}
	if err := csvsink.WriteTable(outputPath, outHeader, outRows); err != nil {
		return err
	}
	a.logger.Info("lookup finished",
		"processed", counts.Processed, "found", counts.Found,
		"not_found", counts.NotFound, "skipped", counts.Skipped, "csv", outputPath)
	return nil
}

// RunIngest reconciles a CSV into the relational table, newest wins.
func (a *Application) RunIngest(ctx context.Context, csvPath string) error {
	if csvPath == "" {
		csvPath = a.cfg.Extract.CSVPath
	}

	src, err := csvsink.NewCandidateFile(csvPath, a.cfg.Database.KeyColumn, a.cfg.Database.DateColumn)
	if err != nil {
		return err
	}

	db, dialect, err := storage.Open(a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.NewCatalogStore(db, dialect,
		a.cfg.Database.Table, a.cfg.Database.KeyColumn, a.cfg.Database.DateColumn)

	reconciler := usecase.NewReconciler(store,
		a.cfg.Database.KeyColumn, a.cfg.Database.DateColumn,
		a.cfg.Database.ContinueOnRowError,
		logging.NewReporter(logging.Component(a.logger, "ingest")),
		logging.Component(a.logger, "ingest"))

	counts, err := reconciler.Run(ctx, src)
	if err != nil {
		return err
	}
	a.logger.Info("ingest finished",
		"processed", counts.Processed, "inserted", counts.Inserted,
		"superseded", counts.Superseded, "skipped_stale", counts.SkippedStale,
		"skipped_empty_key", counts.SkippedEmptyKey)
	return nil
}

// RunSync fetches title details from SQL, resolves each against the grid,
// and stores the projected documents in MongoDB.
func (a *Application) RunSync(ctx context.Context) error {
	db, _, err := storage.Open(a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	sink, err := docstore.NewMongoSink(ctx, a.cfg.Mongo)
	if err != nil {
		return err
	}
	defer sink.Close(ctx)

	acc, err := a.openAccessor(ctx)
	if err != nil {
		return err
	}
	defer acc.Close()

	if err := acc.WaitReady(ctx); err != nil {
		return fmt.Errorf("grid not ready: %w", err)
	}

	pipeline := usecase.NewSyncPipeline(usecase.SyncDeps{
		Source:      storage.NewSQLDetailSource(db, a.cfg.Sync.Query),
		Sink:        sink,
		Resolver:    usecase.NewResolver(logging.Component(a.logger, "resolve")),
		Fields:      a.cfg.Mongo.Fields,
		TitleColumn: a.cfg.Sync.TitleColumn,
		Progress:    logging.NewReporter(logging.Component(a.logger, "sync")),
		Logger:      logging.Component(a.logger, "sync"),
	})

	counts, err := pipeline.Run(ctx, acc)
	if err != nil {
		return err
	}
	a.logger.Info("sync finished",
		"resolved", counts.Resolved, "inserted", counts.Inserted, "matched", counts.Matched)
	return nil
}

func (a *Application) openAccessor(ctx context.Context) (grid.Accessor, error) {
	factory, err := a.registry.Resolve(a.cfg.Grid.Accessor)
	if err != nil {
		return nil, err
	}
	acc, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s grid accessor: %w", a.cfg.Grid.Accessor, err)
	}
	return acc, nil
}
