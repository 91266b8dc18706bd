package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"churchsite/auth"
	"churchsite/constants"
	"churchsite/database"
	"churchsite/output"
	"churchsite/site"
	"churchsite/storage"

	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server. Every credential must be configured; the server refuses
to start when DATABASE_URL, SESSION_SECRET or any AWS_* setting is missing.

Examples:
  churchsite serve
  churchsite serve --env-file /etc/churchsite.env
  churchsite serve --skip-migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the database on start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if skipMigrate {
		output.Info("Skipping migrations")
	} else {
		if err := database.Migrate(db); err != nil {
			return err
		}
		output.Info("Database schema is up to date")
	}

	gateway, err := storage.NewS3Gateway(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.AWS.Bucket,
		Endpoint:        cfg.AWS.Endpoint,
		Expiry:          constants.PRESIGN_EXPIRY,
	})
	if err != nil {
		return err
	}

	sessions, err := auth.NewCookieStore(cfg.SessionSecret, cfg.SessionTTL, strings.HasPrefix(cfg.PublicURL, "https://"))
	if err != nil {
		return err
	}

	server := site.New(db, sessions, gateway)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute, // album uploads
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		output.Banner(constants.APP_NAME, fmt.Sprintf("Running on %s (port %s)", cfg.PublicURL, cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Block until a signal is received or the server fails
	select {
	case <-signals:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server stopped: %w", err)
		}
	}
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	return nil
}
