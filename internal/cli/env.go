package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/catalog/bqcatalog"
	"github.com/vlad89buzan/dataquality/internal/catalog/sqlcatalog"
	"github.com/vlad89buzan/dataquality/internal/config"
)

// EnvOptions selects the warehouse environment a command connects to.
type EnvOptions struct {
	Env     string // environment name in the config file
	Config  string // path to the environment config
	EnvFile string // dotenv file loaded before expansion
}

func addEnvFlags(cmd *cobra.Command, opts *EnvOptions) {
	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "environment name from the config file")
	cmd.Flags().StringVar(&opts.Config, "config", config.DefaultPath, "environment config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before the config")
}

// connection is an open catalog with its environment.
type connection struct {
	env     *config.Environment
	catalog catalog.Catalog
	close   func() error
}

// connect loads the environment and opens its catalog.
// Unset environment variables referenced by the config are logged.
func connect(ctx context.Context, opts EnvOptions, logger *slog.Logger) (*connection, error) {
	cfg, err := config.Load(opts.Config, opts.EnvFile)
	if err != nil {
		return nil, err
	}
	env, err := cfg.Environment(opts.Env)
	if err != nil {
		return nil, err
	}
	if missing := env.Missing(); len(missing) > 0 {
		logger.Warn("environment variables not set",
			"env", opts.Env,
			"missing", strings.Join(missing, ","),
		)
	}

	cat, closeFn, err := openCatalog(ctx, env)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog opened", "env", opts.Env, "warehouse", env.Warehouse)
	return &connection{env: env, catalog: cat, close: closeFn}, nil
}

func openCatalog(ctx context.Context, env *config.Environment) (catalog.Catalog, func() error, error) {
	switch env.Warehouse {
	case config.BigQuery:
		c, err := bqcatalog.New(ctx, env.Project, env.Credentials)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case config.SQLite, config.Postgres:
		c, err := sqlcatalog.Open(env.Warehouse, env.DSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported warehouse %q", env.Warehouse)
	}
}
