// Package index serves concurrent interval queries over a single named
// interval tree. All operations are safe for concurrent use: queries share a
// read lock, mutations take the write lock.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
)

// Operation names recorded in metrics and spans, prefixed with "index.".
const (
	OpPut      = "put"
	OpLoad     = "load"
	OpFind     = "find"
	OpAny      = "any"
	OpOverlaps = "overlaps"
	OpPoint    = "point"
	OpDelete   = "delete"
	OpEntries  = "entries"

	opPrefix = "index."
)

// Sentinel errors.
var (
	// ErrInvalidSelector indicates a label selector that cannot be parsed.
	ErrInvalidSelector = errors.New("invalid label selector")
	// ErrKindMismatch indicates a dataset whose endpoint kind differs from the index.
	ErrKindMismatch = errors.New("dataset kind does not match index")
)

// Value is what the index stores per interval.
type Value struct {
	Name   string     `json:"name,omitempty"`
	Value  string     `json:"value,omitempty"`
	Labels labels.Set `json:"labels,omitempty"`
}

// Match is one stored interval returned by a query.
type Match struct {
	Interval interval.Interval[int64]
	Value
}

// LoadStats summarizes a Load call.
type LoadStats struct {
	Inserted    int `json:"inserted"`
	Overwritten int `json:"overwritten"`
}

// Stats describes the index contents.
type Stats struct {
	Name   string       `json:"name"`
	Kind   dataset.Kind `json:"kind"`
	Size   int          `json:"size"`
	Height int          `json:"height"`
}

// Config names the index and bounds its query results.
type Config struct {
	Name string
	Kind dataset.Kind
	// MaxResults caps Overlaps and Point results. Zero means unlimited.
	MaxResults int
}

// Deps holds optional instrumentation. Nil fields disable the concern.
type Deps struct {
	Logger  *slog.Logger
	Metrics *observability.REDMetrics
	Tracer  trace.Tracer
}

// Index is a named interval tree guarded by a read-write mutex.
type Index struct {
	mu   sync.RWMutex
	tree *interval.Tree[int64, Value]

	name       string
	kind       dataset.Kind
	maxResults int

	logger  *slog.Logger
	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// New creates an empty index.
func New(cfg Config, deps Deps) *Index {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kind := cfg.Kind
	if kind == "" {
		kind = dataset.KindInt
	}

	return &Index{
		tree:       interval.New[int64, Value](),
		name:       cfg.Name,
		kind:       kind,
		maxResults: cfg.MaxResults,
		logger:     logger.With("index", cfg.Name),
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
	}
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.name }

// Kind returns the endpoint kind used to parse and format intervals.
func (ix *Index) Kind() dataset.Kind { return ix.kind }

// ParseInterval parses textual endpoints in the index kind.
func (ix *Index) ParseInterval(from, to string) (interval.Interval[int64], error) {
	return dataset.ParseInterval(ix.kind, from, to)
}

// Put stores value under iv and reports whether iv was new.
func (ix *Index) Put(ctx context.Context, iv interval.Interval[int64], value Value) (bool, error) {
	var inserted bool

	err := ix.observe(ctx, OpPut, func(context.Context) error {
		ix.mu.Lock()
		defer ix.mu.Unlock()

		var err error

		inserted, err = ix.tree.Put(iv, value)

		return err
	})

	return inserted, err
}

// Load inserts every dataset entry. Entries repeating an interval overwrite
// the earlier value.
func (ix *Index) Load(ctx context.Context, ds *dataset.Dataset) (LoadStats, error) {
	var stats LoadStats

	err := ix.observe(ctx, OpLoad, func(ctx context.Context) error {
		if ds.Kind != ix.kind {
			return fmt.Errorf("%w: dataset %q is %s, index %q is %s", ErrKindMismatch, ds.Name, ds.Kind, ix.name, ix.kind)
		}

		ix.mu.Lock()
		defer ix.mu.Unlock()

		for i, entry := range ds.Entries {
			inserted, err := ix.tree.Put(entry.Interval, Value{Name: entry.Name, Value: entry.Value, Labels: entry.Labels})
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}

			if inserted {
				stats.Inserted++
			} else {
				stats.Overwritten++
			}
		}

		ix.logger.InfoContext(ctx, "dataset loaded",
			"dataset", ds.Name, "inserted", stats.Inserted, "overwritten", stats.Overwritten, "size", ix.tree.Len())

		return nil
	})

	return stats, err
}

// Find returns the entry stored under exactly iv.
func (ix *Index) Find(ctx context.Context, iv interval.Interval[int64]) (Match, bool, error) {
	var (
		match Match
		found bool
	)

	err := ix.observe(ctx, OpFind, func(context.Context) error {
		ix.mu.RLock()
		defer ix.mu.RUnlock()

		p, ok, err := ix.tree.Find(iv)
		if err != nil {
			return err
		}

		match, found = toMatch(p), ok

		return nil
	})

	return match, found, err
}

// Any returns one entry overlapping iv whose labels match selector. An empty
// selector takes the first hit of the pruned descent; otherwise the lowest
// matching overlap is returned.
func (ix *Index) Any(ctx context.Context, iv interval.Interval[int64], selector string) (Match, bool, error) {
	var (
		match Match
		found bool
	)

	err := ix.observe(ctx, OpAny, func(context.Context) error {
		sel, err := parseSelector(selector)
		if err != nil {
			return err
		}

		ix.mu.RLock()
		defer ix.mu.RUnlock()

		if sel.Empty() {
			p, ok, err := ix.tree.FindAnyOverlap(iv)
			if err != nil {
				return err
			}

			match, found = toMatch(p), ok

			return nil
		}

		pairs, err := ix.tree.FindAllOverlaps(iv)
		if err != nil {
			return err
		}

		for _, p := range pairs {
			if sel.Matches(p.Value().Labels) {
				match, found = toMatch(p), true

				break
			}
		}

		return nil
	})

	return match, found, err
}

// Overlaps returns the entries overlapping iv whose labels match selector,
// in ascending interval order. An empty selector matches every entry.
func (ix *Index) Overlaps(ctx context.Context, iv interval.Interval[int64], selector string) ([]Match, error) {
	var matches []Match

	err := ix.observe(ctx, OpOverlaps, func(ctx context.Context) error {
		sel, err := parseSelector(selector)
		if err != nil {
			return err
		}

		ix.mu.RLock()
		pairs, err := ix.tree.FindAllOverlaps(iv)
		ix.mu.RUnlock()

		if err != nil {
			return err
		}

		matches = ix.filter(ctx, pairs, sel)

		return nil
	})

	return matches, err
}

// Point returns the entries containing p.
func (ix *Index) Point(ctx context.Context, p int64) ([]Match, error) {
	var matches []Match

	err := ix.observe(ctx, OpPoint, func(ctx context.Context) error {
		ix.mu.RLock()
		pairs := ix.tree.QueryPoint(p)
		ix.mu.RUnlock()

		matches = ix.filter(ctx, pairs, labels.Everything())

		return nil
	})

	return matches, err
}

// Delete removes iv and reports whether it was present.
func (ix *Index) Delete(ctx context.Context, iv interval.Interval[int64]) (bool, error) {
	var deleted bool

	err := ix.observe(ctx, OpDelete, func(context.Context) error {
		ix.mu.Lock()
		defer ix.mu.Unlock()

		var err error

		deleted, err = ix.tree.Delete(iv)

		return err
	})

	return deleted, err
}

// Entries returns every entry in ascending interval order.
func (ix *Index) Entries(ctx context.Context) []Match {
	var matches []Match

	_ = ix.observe(ctx, OpEntries, func(context.Context) error {
		ix.mu.RLock()
		defer ix.mu.RUnlock()

		matches = make([]Match, 0, ix.tree.Len())
		for p := range ix.tree.All() {
			matches = append(matches, toMatch(p))
		}

		return nil
	})

	return matches
}

// Stats reports the current size and tree height.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return Stats{
		Name:   ix.name,
		Kind:   ix.kind,
		Size:   ix.tree.Len(),
		Height: ix.tree.Height(),
	}
}

// Check verifies the tree invariants. It satisfies observability.ReadyCheck.
func (ix *Index) Check(context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.tree.Check()
}

func (ix *Index) filter(ctx context.Context, pairs []interval.Pair[int64, Value], sel labels.Selector) []Match {
	matches := make([]Match, 0, len(pairs))

	for _, p := range pairs {
		if !sel.Empty() && !sel.Matches(p.Value().Labels) {
			continue
		}

		if ix.maxResults > 0 && len(matches) == ix.maxResults {
			ix.logger.WarnContext(ctx, "result truncated", "limit", ix.maxResults, "candidates", len(pairs))

			break
		}

		matches = append(matches, toMatch(p))
	}

	return matches
}

// observe runs fn inside an optional span and RED measurement for op.
func (ix *Index) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span

	if ix.tracer != nil {
		ctx, span = ix.tracer.Start(ctx, opPrefix+op, trace.WithAttributes(
			attribute.String("index.name", ix.name),
		))
		defer span.End()
	}

	err := ix.metrics.Observe(ctx, opPrefix+op, func() error { return fn(ctx) })

	if err != nil && span != nil {
		errType, source := classify(err)
		observability.RecordSpanError(span, err, errType, source)
	}

	ix.logger.DebugContext(ctx, "index operation",
		"op", op, "duration", time.Since(start), "error", err)

	return err
}

// IsInvalidArgument reports whether err was caused by caller input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, interval.ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidSelector) ||
		errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, dataset.ErrInvalidEndpoint) ||
		errors.Is(err, dataset.ErrInvalidRecord)
}

func classify(err error) (errType, source string) {
	if IsInvalidArgument(err) {
		return observability.ErrTypeValidation, observability.ErrSourceClient
	}

	return observability.ErrTypeInternal, observability.ErrSourceInternal
}

func parseSelector(selector string) (labels.Selector, error) {
	sel, err := labels.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelector, err)
	}

	return sel, nil
}

// toMatch copies the labels so callers never share the stored map.
func toMatch(p interval.Pair[int64, Value]) Match {
	v := p.Value()
	v.Labels = maps.Clone(v.Labels)

	return Match{Interval: p.Interval(), Value: v}
}
