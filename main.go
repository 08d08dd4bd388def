// campusvoice/main.go
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusvoice/ai"
	"campusvoice/config"
	"campusvoice/database"
	"campusvoice/handlers"
	"campusvoice/identity"
	"campusvoice/models"
	"campusvoice/utils"
	"campusvoice/visitors"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

type Application struct {
	db        *database.DatabaseService
	logger    *slog.Logger
	cfg       *config.Config
	assistant models.Assistant
	visitors  models.VisitorCounter
	identity  *identity.Provider
	backups   models.BackupStore
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService   { return a.db }
func (a *Application) Logger() *slog.Logger            { return a.logger }
func (a *Application) Config() *config.Config          { return a.cfg }
func (a *Application) Assistant() models.Assistant     { return a.assistant }
func (a *Application) Visitors() models.VisitorCounter { return a.visitors }
func (a *Application) Identity() *identity.Provider    { return a.identity }
func (a *Application) Backups() models.BackupStore     { return a.backups }

func main() {
	rootCmd := &cobra.Command{
		Use:           "campusvoice",
		Short:         "Anonymous campus issue board API",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "campusvoice.yaml", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	utils.DeviceSalt = make([]byte, 32)
	if _, err := rand.Read(utils.DeviceSalt); err != nil {
		return fmt.Errorf("failed to generate device salt: %w", err)
	}
	return nil
}

func openDatabase() (*database.DatabaseService, error) {
	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// backupStore returns where finished backups are shipped, or nil to leave
// them in the backup directory. S3 wins over a local copy directory.
func backupStore(ctx context.Context, copyTo string) (models.BackupStore, error) {
	if cfg.S3.Enabled {
		s3, err := utils.NewS3Storage(ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("S3 backup storage initialized", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		return s3, nil
	}
	if copyTo != "" {
		logger.Info("Local backup storage initialized", "dir", copyTo)
		return &utils.LocalStorage{Dir: copyTo}, nil
	}
	return nil, nil
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	assistant, err := ai.FromConfig(cfg.AI, logger)
	if err != nil {
		return err
	}

	var counter models.VisitorCounter = db
	if cfg.Redis.Addr != "" {
		redisCounter, err := visitors.NewRedisCounter(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer redisCounter.Close()
		counter = redisCounter
		logger.Info("Visitor counter using Redis", "addr", cfg.Redis.Addr)
	}

	backups, err := backupStore(ctx, "")
	if err != nil {
		return err
	}

	ident := identity.NewProvider(cfg.Identity, logger)
	if !ident.Signing() {
		logger.Warn("No identity token secret configured, device ids are trusted as sent")
	}

	app := &Application{
		db:        db,
		logger:    logger,
		cfg:       cfg,
		assistant: assistant,
		visitors:  counter,
		identity:  ident,
		backups:   backups,
	}

	// --- Graceful Shutdown ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.SetupRouter(app),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("campusvoice server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+cfg.Server.Port,
		"driver", db.Driver(),
		"ai", cfg.AI.Enabled(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed unexpectedly: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting")
	return nil
}
