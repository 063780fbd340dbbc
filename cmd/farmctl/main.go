// Command farmctl administers a farmdash record store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farmdash/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "farmctl",
	Short: "Administer a farmdash record store",
	Long: `farmctl runs maintenance tasks against the record store configured by
the usual environment variables (DATA_BACKEND, SQLITE_DB_PATH, MONGO_URI, ...).

Available commands:
  migrate - Apply the SQLite schema migrations
  seed    - Load fields, crops and logs from a YAML file
  stats   - Print the dashboard snapshot as JSON
  catalog - Print the fixed pick-lists as JSON
  token   - Issue a bearer token signed with AUTH_JWT_SECRET`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(migrateCmd, seedCmd, statsCmd, catalogCmd, tokenCmd)
}

var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
