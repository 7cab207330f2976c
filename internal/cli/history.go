package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vlad89buzan/dataquality/internal/store"
	"github.com/vlad89buzan/dataquality/internal/suite"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string // sqlite history file written by run --history
	Suite string // restrict the listing to one suite
	Limit int    // maximum runs listed
	Run   string // show one run in full
}

// HistoryOutput is the JSON payload of a history listing.
type HistoryOutput struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded suite runs",
		Long: `List suite runs recorded with "dq run --history", newest first,
or show the full report of one run.

Examples:
  dq history --db runs.db
  dq history --db runs.db --suite orders --limit 5
  dq history --db runs.db --run 0190a6f2-7c3e-7b1a-9d2e-3f4a5b6c7d8e`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "sqlite history file (required)")
	cmd.Flags().StringVar(&opts.Suite, "suite", "", "only list runs of this suite")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultListLimit, "maximum number of runs listed")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the full report of this run id")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open would create an empty database; reading a missing one is an error.
	if _, err := os.Stat(opts.DB); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "history file not found", err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to open history", err)
	}
	defer st.Close()

	if opts.Run != "" {
		res, err := st.ReadRun(ctx, opts.Run)
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "run not found", err)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to read run", err)
		}
		if opts.Format == "json" {
			return formatter.Success(res)
		}
		return suite.WriteReport(formatter.Writer, res)
	}

	runs, err := st.ListRuns(ctx, store.ListFilter{Suite: opts.Suite, Limit: opts.Limit})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(HistoryOutput{Runs: runs})
	}
	return writeRuns(formatter.Writer, runs)
}

func writeRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tSUITE\tSTATUS\tPASSED\tFAILED\tERRORED")
	for _, r := range runs {
		status := "PASS"
		if !r.Pass() {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.StartedAt.UTC().Format(time.RFC3339), r.Suite, status,
			r.Summary.Passed, r.Summary.Failed, r.Summary.Errored)
	}
	return tw.Flush()
}
