// Command payadminctl runs operator tasks against the payment advice database.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payadvice/internal/config"
	"github.com/MrJamesThe3rd/payadvice/internal/database"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "payadminctl",
		Short:         "Operator tooling for the payment advice service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(recipientsCmd())
	rootCmd.AddCommand(adviceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(cfg.Logger())

	return cfg, nil
}

// openDB connects to Postgres. The operator commands never use the
// in-memory store.
func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.DB.Driver != config.StorePostgres {
		return nil, fmt.Errorf("STORE_DRIVER=%s: operator commands need postgres", cfg.DB.Driver)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
