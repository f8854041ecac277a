package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/approval"
	"github.com/MrJamesThe3rd/payadvice/internal/config"
	"github.com/MrJamesThe3rd/payadvice/internal/database"
	"github.com/MrJamesThe3rd/payadvice/internal/export"
	payHttp "github.com/MrJamesThe3rd/payadvice/internal/http"
	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	invoiceHandler "github.com/MrJamesThe3rd/payadvice/internal/http/invoice"
	recipientHandler "github.com/MrJamesThe3rd/payadvice/internal/http/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/notify/email"
	"github.com/MrJamesThe3rd/payadvice/internal/notify/sms"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	paymentMemstore "github.com/MrJamesThe3rd/payadvice/internal/payment/memstore"
	paymentStore "github.com/MrJamesThe3rd/payadvice/internal/payment/store"
	"github.com/MrJamesThe3rd/payadvice/internal/pdf"
	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	recipientMemstore "github.com/MrJamesThe3rd/payadvice/internal/recipient/memstore"
	recipientStore "github.com/MrJamesThe3rd/payadvice/internal/recipient/store"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(cfg.Logger())

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The dashboard expects amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	payments, recipients, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	profiles, err := tenant.LoadFile(cfg.Assets.TenantsFile)
	if err != nil {
		return fmt.Errorf("loading tenant profiles: %w", err)
	}

	assets := advice.DefaultAssets()
	if cfg.Assets.Dir != "" {
		assets = advice.NewFSAssets(os.DirFS(cfg.Assets.Dir))
	}

	converter, err := pdf.New(pdf.Options{
		Engine:     cfg.PDF.Engine,
		Timeout:    cfg.PDF.Timeout,
		ChromePath: cfg.PDF.ChromePath,
	})
	if err != nil {
		return err
	}

	var (
		paymentService   = payment.NewService(payments)
		recipientService = recipient.NewService(recipients)
		renderer         = advice.NewRenderer(profiles, assets)
		exportService    = export.NewService(paymentService, renderer, converter, cfg.PDF.Workers)
		mailer           = email.NewSender(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
	)

	deps := approval.Deps{
		Payments:  paymentService,
		Renderer:  renderer,
		Profiles:  profiles,
		Converter: converter,
		Email:     mailer,
	}

	if cfg.SMS.Enabled {
		deps.SMS = sms.NewClient(sms.Config{
			URL:       cfg.SMS.URL,
			APIKey:    cfg.SMS.APIKey,
			SenderID:  cfg.SMS.SenderID,
			Timeout:   cfg.SMS.Timeout,
			RateLimit: cfg.SMS.RateLimit,
			Enabled:   true,
		})
	} else {
		slog.Info("sms delivery disabled")
	}

	approvalService := approval.NewService(deps, approval.Timeouts{
		Email: cfg.SMTP.Timeout + cfg.PDF.Timeout,
		SMS:   cfg.SMS.Timeout,
	})

	router := payHttp.New(
		payHttp.Options{
			AllowedOrigins: cfg.App.CORSOrigins,
			Authenticator:  auth.New(cfg.Auth.JWTSecret),
		},
		invoiceHandler.NewHandler(paymentService, approvalService, renderer, converter, exportService),
		recipientHandler.NewHandler(recipientService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", srv.Addr, "store", cfg.DB.Driver, "pdf_engine", cfg.PDF.Engine)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config) (payment.Repository, recipient.Repository, func(), error) {
	if cfg.DB.Driver == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return paymentMemstore.New(), recipientMemstore.New(), func() {}, nil
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return paymentStore.New(db), recipientStore.New(db), func() { db.Close() }, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, name := range applied {
		slog.Info("applied migration", "name", name)
	}

	return nil
}
