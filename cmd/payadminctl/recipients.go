package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	recipientStore "github.com/MrJamesThe3rd/payadvice/internal/recipient/store"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func recipientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "Manage the recipient registry",
	}

	cmd.AddCommand(recipientsImportCmd())

	return cmd
}

func recipientsImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <tenant> <file>",
		Short: "Register every recipient in a CSV or XLSX file",
		Long: `Register every recipient in a CSV or XLSX file.

The file needs a header row with name, email and phone columns. The import
is rejected as a whole when any row is invalid or already registered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tenant.Parse(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[1], err)
			}
			defer f.Close()

			if dryRun {
				rows, err := recipient.ParseUpload(filepath.Base(args[1]), f)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%d recipients would be imported\n", len(rows))

				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := recipient.NewService(recipientStore.New(db))

			rs, err := svc.BulkUpload(cmd.Context(), t, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}

			for _, r := range rs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.ID, r.Name, r.Email)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d recipients imported\n", len(rs))

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without writing anything")

	return cmd
}
