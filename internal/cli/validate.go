package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vlad89buzan/dataquality/internal/suite"
)

// SuiteValidation is the validation outcome of one suite file.
type SuiteValidation struct {
	File   string `json:"file"`
	Suite  string `json:"suite,omitempty"`
	Checks int    `json:"checks,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool              `json:"valid"`
	Files []SuiteValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite-file|suite-dir>",
		Short: "Validate suites without running them",
		Long: `Validate suite files without connecting to a warehouse.

Checks YAML syntax, the suite schema, check parameters, dataset references,
column types and rule patterns.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := suite.FindFiles(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "suite path not found", err)
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no suite files found in %s", path), nil)
	}

	result := ValidationResult{Valid: true, Files: make([]SuiteValidation, 0, len(files))}
	for _, file := range files {
		v := SuiteValidation{File: file}
		s, err := suite.Load(file)
		if err != nil {
			v.Error = err.Error()
			result.Valid = false
		} else {
			v.Suite = s.Name
			v.Checks = len(s.Checks)
		}
		result.Files = append(result.Files, v)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeInvalidSuite, Message: "one or more suites are invalid"}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, "suite validation failed")
	}
	return nil
}

func outputValidateText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	invalid := 0
	for _, v := range result.Files {
		if v.Error != "" {
			invalid++
			fmt.Fprintf(w, "✗ %s\n  %s\n", v.File, v.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s (%s, %d check(s))\n", v.File, v.Suite, v.Checks)
	}

	if invalid > 0 {
		fmt.Fprintf(w, "\n%d of %d suite(s) invalid\n", invalid, len(result.Files))
		return
	}
	fmt.Fprintln(w, "✓ All suites valid")
}
