package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/store"
	"github.com/vlad89buzan/dataquality/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	EnvOptions
	Filter      string // check filter (glob on id or name)
	Concurrency int    // concurrent dataset fetches per suite
	History     string // sqlite file recording run results
}

// RunSummary aggregates check outcomes across suites.
type RunSummary struct {
	Suites  int `json:"suites"`
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Results []*suite.Result `json:"results"`
	Summary RunSummary      `json:"summary"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite-file|suite-dir>",
		Short: "Run data quality suites",
		Long: `Run one suite file, or every .yaml/.yml suite below a directory.

Query datasets and table checks need a warehouse environment (--env).
Suites that only read local files can run without one.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed or could not run
  2 - Command error (invalid suite, missing config, unreachable warehouse)

Examples:
  dq run suites/orders.yaml --env dev
  dq run suites/ --env prod --filter "TC-1*"
  dq run suites/extracts.yaml --format json
  dq run suites/ --env prod --history runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args[0], cmd)
		},
	}

	addEnvFlags(cmd, &opts.EnvOptions)
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only checks whose id or name matches the glob pattern")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", suite.DefaultConcurrency, "datasets fetched concurrently per suite")
	cmd.Flags().StringVar(&opts.History, "history", "", "record results in this sqlite history file")

	return cmd
}

func runSuites(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := formatter.Logger()

	files, err := suite.FindFiles(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "suite path not found", err)
	}

	// Load everything before touching the warehouse.
	suites := make([]*suite.Suite, 0, len(files))
	for _, file := range files {
		s, err := suite.Load(file)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidSuite, "invalid suite", err)
		}
		if s, err = s.Filter(opts.Filter); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidSuite, "invalid filter", err)
		}
		if len(s.Checks) > 0 {
			suites = append(suites, s)
		}
	}

	var (
		cat    catalog.Catalog
		tables map[string]string
	)
	if opts.Env != "" {
		conn, err := connect(ctx, opts.EnvOptions, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to connect", err)
		}
		defer conn.close()
		cat, tables = conn.catalog, conn.env.Tables
	}

	runner := suite.NewRunner(cat,
		suite.WithLogger(logger),
		suite.WithTables(tables),
		suite.WithConcurrency(opts.Concurrency),
	)

	out := RunOutput{Results: make([]*suite.Result, 0, len(suites))}
	for _, s := range suites {
		res, err := runner.Run(ctx, s)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCatalog, "run aborted", err)
		}
		out.Results = append(out.Results, res)

		out.Summary.Suites++
		out.Summary.Total += res.Summary.Total
		out.Summary.Passed += res.Summary.Passed
		out.Summary.Failed += res.Summary.Failed
		out.Summary.Errored += res.Summary.Errored
	}

	if opts.History != "" {
		if err := recordHistory(ctx, opts.History, out.Results); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to record history", err)
		}
		logger.Debug("recorded run history", "path", opts.History, "runs", len(out.Results))
	}

	if opts.Format == "json" {
		return outputRunJSON(formatter, out)
	}
	return outputRunText(formatter.Writer, out)
}

func recordHistory(ctx context.Context, path string, results []*suite.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, res := range results {
		if err := st.WriteResult(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

func runFailure(s RunSummary) error {
	if s.Failed == 0 && s.Errored == 0 {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d check(s) failed, %d errored", s.Failed, s.Errored))
}

func outputRunJSON(f *OutputFormatter, out RunOutput) error {
	resp := CLIResponse{Status: "ok", Data: out}
	failure := runFailure(out.Summary)
	if failure != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: ErrCodeChecksFailed, Message: failure.Error()}
	}
	if err := f.encode(resp); err != nil {
		return err
	}
	return failure
}

func outputRunText(w io.Writer, out RunOutput) error {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No checks to run.")
		return nil
	}

	for i, res := range out.Results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := suite.WriteReport(w, res); err != nil {
			return err
		}
	}

	if len(out.Results) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Total: %d suite(s), %d passed, %d failed, %d errored, %d checks\n",
			out.Summary.Suites, out.Summary.Passed, out.Summary.Failed, out.Summary.Errored, out.Summary.Total)
	}

	if err := runFailure(out.Summary); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ All checks passed")
	return nil
}
