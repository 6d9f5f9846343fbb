package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/personnel-ledger/internal/platform/config"
)

const defaultMigrationsDir = "assets/migrations"

type options struct {
	configPath    string
	migrationsDir string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations for the personnel ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.migrationsDir, "dir", defaultMigrationsDir, "directory containing migration files")

	cmd.AddCommand(
		actionCmd(opts, "up", "Apply all pending migrations", func(m *migrate.Migrate) error {
			return ignoreNoChange(m.Up())
		}),
		actionCmd(opts, "down", "Revert all applied migrations", func(m *migrate.Migrate) error {
			return ignoreNoChange(m.Down())
		}),
		actionCmd(opts, "drop", "Drop every object in the database", func(m *migrate.Migrate) error {
			return m.Drop()
		}),
		versionCmd(opts),
	)

	return cmd
}

func actionCmd(opts *options, use, short string, apply func(*migrate.Migrate) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.open()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := apply(m); err != nil {
				return fmt.Errorf("migration %s failed: %w", use, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ migration %s completed\n", use)
			return nil
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.open()
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "no migration applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}

			out := color.New(color.FgGreen)
			if dirty {
				out = color.New(color.FgRed)
			}
			out.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	}
}

func (o *options) open() (*migrate.Migrate, error) {
	cfg, err := config.Load(config.Path(o.configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("database.driver %q has no migrations", cfg.Database.Driver)
	}

	source, err := sourceURL(o.migrationsDir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.New(source, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

func sourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(absDir), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
