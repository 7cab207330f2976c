package suite

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/dq"
	"github.com/vlad89buzan/dataquality/internal/loader"
	"github.com/vlad89buzan/dataquality/internal/schemaconv"
)

// DefaultConcurrency bounds the number of datasets fetched at once.
const DefaultConcurrency = 4

// Runner executes suites against a catalog.
//
// Thread-safety: a Runner holds no per-run state; Run may be called from
// several goroutines if the catalog allows it.
type Runner struct {
	cat         catalog.Catalog
	logger      *slog.Logger
	tables      map[string]string
	now         func() time.Time
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithTables sets environment table aliases. Suite aliases take precedence.
func WithTables(tables map[string]string) RunnerOption {
	return func(r *Runner) {
		r.tables = tables
	}
}

// WithClock sets the time source used for run timestamps, durations and the
// not_future predicate.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithConcurrency bounds concurrent dataset fetches.
// Values below 1 select DefaultConcurrency.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// NewRunner creates a Runner. cat may be nil for suites that only read
// local files.
func NewRunner(cat catalog.Catalog, opts ...RunnerOption) *Runner {
	r := &Runner{
		cat:         cat,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = DefaultConcurrency
	}
	return r
}

// fetched is a dataset or the reason it is unavailable.
type fetched struct {
	data *dataset.Dataset
	err  error
}

// Run fetches the datasets the suite's checks need and runs every check.
// Check failures and per-check errors are reported in the Result; the
// returned error is reserved for a cancelled context.
func (r *Runner) Run(ctx context.Context, s *Suite) (*Result, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	res := &Result{
		RunID:     runID.String(),
		Suite:     s.Name,
		StartedAt: r.now().UTC(),
		Checks:    make([]CheckResult, 0, len(s.Checks)),
	}
	log := r.logger.With("suite", s.Name, "run_id", res.RunID)
	log.Info("suite starting", "checks", len(s.Checks))

	tables := r.aliases(s)
	data := r.fetchAll(ctx, log, s, tables)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("suite %s: %w", s.Name, err)
	}

	for _, c := range s.Checks {
		start := r.now()
		status, msg, details := classify(r.runCheck(ctx, s, c, data, tables))
		cr := CheckResult{
			ID:       c.ID,
			Name:     c.Name,
			Type:     c.Type,
			Status:   status,
			Message:  msg,
			Details:  details,
			Duration: r.now().Sub(start),
		}
		res.add(cr)

		switch status {
		case StatusPassed:
			log.Info("check passed", "check", c.ID, "type", c.Type)
		case StatusFailed:
			log.Warn("check failed", "check", c.ID, "type", c.Type, "message", msg)
		default:
			log.Error("check errored", "check", c.ID, "type", c.Type, "error", msg)
		}
	}

	log.Info("suite finished",
		"passed", res.Summary.Passed,
		"failed", res.Summary.Failed,
		"errored", res.Summary.Errored,
	)
	return res, nil
}

// aliases merges environment and suite table aliases.
func (r *Runner) aliases(s *Suite) map[string]string {
	out := make(map[string]string, len(r.tables)+len(s.Tables))
	for k, v := range r.tables {
		out[k] = v
	}
	for k, v := range s.Tables {
		out[k] = v
	}
	return out
}

// fetchAll loads every dataset referenced by a check. Fetch errors are kept
// per dataset so unrelated checks still run.
func (r *Runner) fetchAll(ctx context.Context, log *slog.Logger, s *Suite, tables map[string]string) map[string]fetched {
	needed := make(map[string]bool)
	for _, c := range s.Checks {
		for _, name := range c.datasets() {
			needed[name] = true
		}
	}
	names := make([]string, 0, len(needed))
	for name := range needed {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]fetched, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			start := r.now()
			d, err := r.fetch(gctx, s, name, tables)
			results[i] = fetched{data: d, err: err}
			if err != nil {
				log.Error("dataset unavailable", "dataset", name, "error", err)
				return nil
			}
			log.Debug("dataset fetched", "dataset", name, "rows", d.Len(), "elapsed", r.now().Sub(start))
			return nil
		})
	}
	// Workers never return errors; failures are recorded in results.
	_ = g.Wait()

	out := make(map[string]fetched, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}

func (r *Runner) fetch(ctx context.Context, s *Suite, name string, tables map[string]string) (*dataset.Dataset, error) {
	src, ok := s.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}

	if src.File != "" {
		opts, err := loaderOptions(src)
		if err != nil {
			return nil, err
		}
		return loader.LoadFile(s.resolve(src.File), opts)
	}

	if r.cat == nil {
		return nil, fmt.Errorf("no catalog is configured for query datasets")
	}
	query, err := renderQuery(name, src.Query, tables)
	if err != nil {
		return nil, err
	}
	d, err := r.cat.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("query returned no result")
	}
	if len(src.Types) > 0 {
		return retype(d, src.Types)
	}
	return d, nil
}

func loaderOptions(src DatasetSource) (loader.Options, error) {
	opts := loader.Options{NullValues: src.NullValues}
	if src.Delimiter != "" {
		opts.Delimiter = []rune(src.Delimiter)[0]
	}
	if len(src.Types) > 0 {
		opts.Types = make(map[string]dataset.Type, len(src.Types))
		for col, name := range src.Types {
			t, err := dataset.ParseType(name)
			if err != nil {
				return loader.Options{}, err
			}
			opts.Types[col] = t
		}
	}
	return opts, nil
}

// retype converts query result columns to the declared types.
func retype(d *dataset.Dataset, types map[string]string) (*dataset.Dataset, error) {
	cols := make([]*dataset.Column, 0, len(d.Columns()))
	for _, c := range d.Columns() {
		name, ok := types[c.Name]
		if !ok {
			cols = append(cols, c)
			continue
		}
		t, err := dataset.ParseType(name)
		if err != nil {
			return nil, err
		}
		out := &dataset.Column{Name: c.Name, Type: t, Values: make([]any, len(c.Values))}
		for i, v := range c.Values {
			converted, ok := dataset.Coerce(v, t)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: cannot convert %v to %s", c.Name, i, v, t)
			}
			out.Values[i] = converted
		}
		cols = append(cols, out)
	}
	for col := range types {
		if !d.Has(col) {
			return nil, fmt.Errorf("type given for unknown column %q", col)
		}
	}
	return dataset.New(cols...)
}

// renderQuery expands {{.ALIAS}} references. Unknown aliases are errors.
func renderQuery(name, query string, tables map[string]string) (string, error) {
	if !strings.Contains(query, "{{") {
		return query, nil
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(query)
	if err != nil {
		return "", fmt.Errorf("invalid query template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, tables); err != nil {
		return "", fmt.Errorf("failed to render query: %w", err)
	}
	return buf.String(), nil
}

func (r *Runner) runCheck(ctx context.Context, s *Suite, c Check, data map[string]fetched, tables map[string]string) error {
	get := func(name string) (*dataset.Dataset, error) {
		f, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("dataset %q was not fetched", name)
		}
		if f.err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, f.err)
		}
		return f.data, nil
	}
	table := func() string {
		if id, ok := tables[c.Table]; ok {
			return id
		}
		return c.Table
	}

	switch c.Type {
	case dq.KindDuplicates:
		d, err := get(c.Dataset)
		if err != nil {
			return err
		}
		return dq.CheckDuplicates(d, dq.DuplicateOptions{Columns: c.Columns, PerColumn: c.PerColumn})

	case dq.KindEmpty, dq.KindNotEmpty:
		d, err := get(c.Dataset)
		if err != nil {
			return err
		}
		return dq.CheckEmpty(d, c.Type == dq.KindEmpty)

	case dq.KindNotNull:
		d, err := get(c.Dataset)
		if err != nil {
			return err
		}
		return dq.CheckNotNull(d, c.Columns...)

	case dq.KindColumnValidity:
		d, err := get(c.Dataset)
		if err != nil {
			return err
		}
		rules, err := Rules(c.Rules, r.now)
		if err != nil {
			return err
		}
		_, err = dq.CheckColumnValidity(d, rules)
		return err

	case dq.KindRowCount, dq.KindReconcile:
		src, err := get(c.Source)
		if err != nil {
			return err
		}
		tgt, err := get(c.Target)
		if err != nil {
			return err
		}
		if c.Type == dq.KindRowCount {
			return dq.CheckRowCount(src, tgt)
		}
		return dq.Reconcile(src, tgt, c.Columns...)

	case dq.KindTableExists, dq.KindTableNotEmpty, dq.KindSchema:
		if r.cat == nil {
			return fmt.Errorf("%s checks need a catalog but none is configured", c.Type)
		}
		switch c.Type {
		case dq.KindTableExists:
			return dq.TableExists(ctx, r.cat, table())
		case dq.KindTableNotEmpty:
			limit := c.Limit
			if limit == 0 {
				limit = 1
			}
			return dq.TableNotEmpty(ctx, r.cat, table(), limit)
		default:
			expected := dq.SchemaExpectation(c.Schema)
			if c.SchemaFile != "" {
				exp, err := schemaconv.ReadExpectation(s.resolve(c.SchemaFile))
				if err != nil {
					return err
				}
				expected = exp
			}
			return dq.CheckSchema(ctx, r.cat, table(), expected)
		}
	}
	return fmt.Errorf("unknown check type %q", c.Type)
}
