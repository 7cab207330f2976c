package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlad89buzan/dataquality/internal/schemaconv"
)

// SchemaOptions holds flags for the schema snapshot command.
type SchemaOptions struct {
	*RootOptions
	EnvOptions
}

// SchemaOutput is the JSON payload of the schema commands.
type SchemaOutput struct {
	Output  string `json:"output"`
	Columns int    `json:"columns"`
}

// String renders the text form of the output.
func (o SchemaOutput) String() string {
	return fmt.Sprintf("✓ Wrote %d column(s) to %s", o.Columns, o.Output)
}

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create schema expectation files",
		Long: `Create schema expectation files for schema checks (schema_file).

Expectations are YAML maps from column name to type and nullability.`,
	}

	cmd.AddCommand(newSchemaConvertCommand(rootOpts))
	cmd.AddCommand(newSchemaSnapshotCommand(rootOpts))
	return cmd
}

func newSchemaConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <columns.json> <schema.yaml>",
		Short: "Convert an INFORMATION_SCHEMA.COLUMNS export",
		Long: `Convert a JSON export of INFORMATION_SCHEMA.COLUMNS into an expectation file.

Type names are folded into the expectation domain: INTEGER becomes INT64,
FLOAT becomes FLOAT64, BIGNUMERIC becomes NUMERIC, BOOLEAN becomes BOOL and
GEOGRAPHY or any unknown type becomes STRING.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			n, err := schemaconv.ConvertFile(args[0], args[1])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeConvert, "conversion failed", err)
			}
			return formatter.Success(SchemaOutput{Output: args[1], Columns: n})
		},
	}
}

func newSchemaSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <table> <schema.yaml>",
		Short: "Write the current schema of a table as an expectation",
		Long: `Read the live schema of a table from the warehouse and write it as an
expectation file. The table may be an alias from the environment config.

Examples:
  dq schema snapshot ORDERS schemas/orders.yaml --env dev`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaSnapshot(opts, args[0], args[1], cmd)
		},
	}

	addEnvFlags(cmd, &opts.EnvOptions)
	_ = cmd.MarkFlagRequired("env")
	return cmd
}

func runSchemaSnapshot(opts *SchemaOptions, table, out string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	conn, err := connect(cmd.Context(), opts.EnvOptions, formatter.Logger())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to connect", err)
	}
	defer conn.close()

	schema, err := conn.catalog.GetSchema(cmd.Context(), conn.env.Table(table))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to read schema", err)
	}

	fields, err := schemaconv.FromSchema(schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConvert, "cannot snapshot table", err)
	}

	var buf bytes.Buffer
	if err := schemaconv.Write(&buf, fields); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConvert, "failed to encode schema", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConvert, "failed to write schema", err)
	}
	return formatter.Success(SchemaOutput{Output: out, Columns: len(schema)})
}
