// migrate applies or rolls back the embedded SQL migrations: go run ./cmd/migrate up|down|version.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/config"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/db/migrate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Run database migrations for the staff login service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")

	resolve := func() (string, error) {
		if dsn != "" {
			return dsn, nil
		}
		cfg, err := config.Load()
		if err != nil {
			return "", err
		}
		return cfg.DatabaseURL, nil
	}

	direction := func(d migrate.Direction, short string) *cobra.Command {
		return &cobra.Command{
			Use:   string(d),
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := resolve()
				if err != nil {
					return err
				}
				if err := migrate.Run(url, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: ok\n", d)
				return nil
			},
		}
	}

	root.AddCommand(
		direction(migrate.Up, "Apply all pending migrations"),
		direction(migrate.Down, "Roll back all migrations"),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := resolve()
				if err != nil {
					return err
				}
				v, dirty, err := migrate.Version(url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
				return nil
			},
		},
	)
	return root
}
