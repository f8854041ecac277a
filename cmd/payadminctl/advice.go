package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	paymentStore "github.com/MrJamesThe3rd/payadvice/internal/payment/store"
	"github.com/MrJamesThe3rd/payadvice/internal/pdf"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func adviceCmd() *cobra.Command {
	var (
		out    string
		engine string
		html   bool
	)

	cmd := &cobra.Command{
		Use:   "advice <tenant> <invoice-line-id>",
		Short: "Render the payment advice of an invoice line to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tenant.Parse(args[0])
			if err != nil {
				return err
			}

			lineID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid invoice line id: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			profiles, err := tenant.LoadFile(cfg.Assets.TenantsFile)
			if err != nil {
				return err
			}

			assets := advice.DefaultAssets()
			if cfg.Assets.Dir != "" {
				assets = advice.NewFSAssets(os.DirFS(cfg.Assets.Dir))
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			b, line, err := payment.NewService(paymentStore.New(db)).LocateLine(cmd.Context(), t, lineID)
			if err != nil {
				return err
			}

			doc, err := advice.NewRenderer(profiles, assets).Render(cmd.Context(), b, line)
			if err != nil {
				return err
			}

			if !html {
				if engine == "" {
					engine = cfg.PDF.Engine
				}

				converter, err := pdf.New(pdf.Options{Engine: engine, Timeout: cfg.PDF.Timeout, ChromePath: cfg.PDF.ChromePath})
				if err != nil {
					return err
				}

				if doc, err = converter.Convert(cmd.Context(), string(doc)); err != nil {
					return fmt.Errorf("convert pdf: %w", err)
				}
			}

			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(doc))

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "Payment_Advice.pdf", "output file")
	cmd.Flags().StringVar(&engine, "engine", "", "pdf engine, chromium or basic (defaults to PDF_ENGINE)")
	cmd.Flags().BoolVar(&html, "html", false, "write the rendered HTML instead of a PDF")

	return cmd
}
