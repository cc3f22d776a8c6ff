package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dstern/flapgate/admit"
	"github.com/dstern/flapgate/api"
	"github.com/dstern/flapgate/storage"
	bboltstorage "github.com/dstern/flapgate/storage/bbolt"
	postgresstorage "github.com/dstern/flapgate/storage/postgres"
	"github.com/dstern/flapgate/token"
)

var (
	port             int
	dataDir          string
	postgresDSN      string
	tlsCert          string
	tlsKey           string
	alertWebhookURL  string
	alertWebhookAuth string
	trustedProxies   []string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the score admission server",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Local development convenience; a missing .env is not an error.
		_ = godotenv.Load()

		secret := os.Getenv("FLAPGATE_SECRET")
		if secret == "" {
			return errors.New("FLAPGATE_SECRET is not set; refusing to start without a signing secret")
		}
		issuer, err := token.NewIssuer([]byte(secret))
		if err != nil {
			return fmt.Errorf("initializing token issuer: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		var board storage.Leaderboard
		dsn := postgresDSN
		if dsn == "" {
			dsn = os.Getenv("FLAPGATE_POSTGRES_DSN")
		}
		if dsn != "" {
			store, err := postgresstorage.NewStoreFromDSN(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("failed to open postgres leaderboard: %w", err)
			}
			defer store.Close()
			board = store
		} else {
			if err := os.MkdirAll(dataDir, 0o700); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			store, err := bboltstorage.NewStoreFromFile(dataDir+"/leaderboard.db", nil)
			if err != nil {
				return fmt.Errorf("failed to open leaderboard storage: %w", err)
			}
			defer store.Close()
			board = store
		}

		controller := admit.New(issuer, board)

		opts := []api.Option{api.WithLogger(logger)}
		if alertWebhookURL != "" {
			webhook := api.NewAlertWebhook(alertWebhookURL, alertWebhookAuth)
			defer webhook.Close()
			opts = append(opts, api.WithAlertFunc(webhook.Notify))
		} else {
			opts = append(opts, api.WithAlertFunc(func(ev api.AlertEvent) {
				logger.Warn("admission anomaly",
					"type", string(ev.Type),
					"count", ev.Count,
					"threshold", ev.Threshold)
			}))
		}
		if len(trustedProxies) > 0 {
			prefixes := make([]netip.Prefix, 0, len(trustedProxies))
			for _, s := range trustedProxies {
				p, err := netip.ParsePrefix(s)
				if err != nil {
					return fmt.Errorf("invalid trusted proxy range %q: %w", s, err)
				}
				prefixes = append(prefixes, p)
			}
			opts = append(opts, api.WithTrustedProxies(prefixes))
		}

		a := api.New(issuer, controller, board, opts...)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(api.SecurityHeaders)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if tlsCert != "" && tlsKey != "" {
				err = server.ListenAndServeTLS(tlsCert, tlsKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (data: %s)...\n", port, dataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "PostgreSQL DSN for the leaderboard (default: bbolt file store)")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
	serverCmd.Flags().StringVar(&alertWebhookURL, "alert-webhook", "", "URL receiving anomaly alerts as JSON POSTs")
	serverCmd.Flags().StringVar(&alertWebhookAuth, "alert-webhook-auth", "", `Auth header for the alert webhook ("Name: Value")`)
	serverCmd.Flags().StringSliceVar(&trustedProxies, "trusted-proxies", nil, "CIDR ranges whose proxy headers are trusted for client IPs")
}
