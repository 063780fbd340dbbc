package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"farmdash/internal/backend"
	"farmdash/internal/cli"
	"farmdash/internal/config"
	"farmdash/internal/core"
	"farmdash/internal/dashboard"
	applog "farmdash/internal/log"
	"farmdash/internal/middleware/auth"
	"farmdash/internal/seed"
	"farmdash/internal/services"
	"farmdash/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQLite schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load records from a YAML seed file",
	Long: `Load records from a YAML seed file through the entity services, so
defaults and validation apply exactly as for API writes. Items may name a
"field" or "crop" seeded earlier instead of giving fieldId or cropId.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard snapshot as JSON",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the fixed pick-lists as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), core.DefaultCatalog())
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.DataBackend != config.BackendSQLite {
		return fmt.Errorf("migrate applies to the sqlite backend, DATA_BACKEND is %q", cfg.DataBackend)
	}
	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		return err
	}
	version, dirty, err := storage.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, cfg.SQLiteDBPath)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := seed.ParseFile(args[0])
	if err != nil {
		return err
	}
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		result, err := seed.Apply(ctx, svc, f)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		snap, err := dashboard.NewLoader(dashboard.FromServices(svc)).Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), snap)
	})
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	token, err := auth.NewVerifier(cfg.AuthJWTSecret, nil).Sign(args[0], tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// withServices opens the configured store without an event publisher.
func withServices(ctx context.Context, fn func(context.Context, *services.Services) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cli.SetupLogger(logLevel, applog.ComponentApp)
	cfg := config.Load()
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, services.New(services.Deps{Store: store.Store}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
