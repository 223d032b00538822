package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/config"
	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/version"
)

// ErrNoDataset is returned when neither an argument nor index.dataset names a dataset.
var ErrNoDataset = errors.New("no dataset given (pass a path or set index.dataset)")

// env is the per-invocation runtime: configuration plus telemetry.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.REDMetrics
	indexObs  *observability.IndexMetrics
	logger    *slog.Logger
}

func newEnv(opts *Options, mode observability.AppMode) (*env, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = cfg.Telemetry.Prometheus && mode != observability.ModeCLI
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON || mode == observability.ModeMCP

	switch {
	case opts.Quiet:
		obsCfg.LogLevel = slog.LevelError
	case opts.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, fmt.Errorf("create metrics: %w", err)
	}

	return &env{cfg: cfg, providers: providers, metrics: red, logger: providers.Logger}, nil
}

func (e *env) close() {
	err := e.indexObs.Unregister()
	if err != nil {
		e.logger.Warn("index metrics unregister failed", "error", err)
	}

	err = e.providers.Shutdown(context.Background())
	if err != nil {
		e.logger.Warn("observability shutdown failed", "error", err)
	}
}

func (e *env) indexDeps() index.Deps {
	return index.Deps{Logger: e.logger, Metrics: e.metrics, Tracer: e.providers.Tracer}
}

// datasetPath picks the positional argument, falling back to index.dataset.
func (e *env) datasetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return e.cfg.Index.Dataset
}

func (e *env) loadDataset(path string) (*dataset.Dataset, error) {
	maxBytes, err := e.cfg.Index.MaxDatasetBytes()
	if err != nil {
		return nil, err
	}

	return dataset.Load(path, maxBytes)
}

// openIndex loads the dataset at path into a fresh index and registers its
// shape gauges. An empty path yields an empty int index.
func (e *env) openIndex(ctx context.Context, path string) (*index.Index, error) {
	cfg := index.Config{Name: e.cfg.Index.Name, MaxResults: e.cfg.Index.MaxResults}

	var ds *dataset.Dataset

	if path != "" {
		var err error

		ds, err = e.loadDataset(path)
		if err != nil {
			return nil, err
		}

		cfg.Kind = ds.Kind
	}

	ix := index.New(cfg, e.indexDeps())

	err := e.watchIndex(ix)
	if err != nil {
		return nil, err
	}

	if ds == nil {
		return ix, nil
	}

	start := time.Now()

	stats, err := ix.Load(ctx, ds)
	if err != nil {
		return nil, err
	}

	e.indexObs.RecordLoad(ctx, ix.Name(), stats.Inserted, stats.Overwritten, time.Since(start))

	return ix, nil
}

func (e *env) watchIndex(ix *index.Index) error {
	im, err := observability.NewIndexMetrics(e.providers.Meter, func() observability.IndexSnapshot {
		st := ix.Stats()

		return observability.IndexSnapshot{Name: st.Name, Size: st.Size, Height: st.Height}
	})
	if err != nil {
		return fmt.Errorf("create index metrics: %w", err)
	}

	e.indexObs = im

	return nil
}
