package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/api"
	"github.com/eventplaza/eventplaza/internal/app"
	"github.com/eventplaza/eventplaza/internal/app/maintenance"
	iauth "github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/database"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/crypto"
	"github.com/eventplaza/eventplaza/pkg/logger"
	"github.com/eventplaza/eventplaza/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("eventplaza-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureResetSecret(cfg, log); err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; verification and reset emails will not be delivered")
	}

	sessionSvc, err := iauth.NewSessionService(db, cfg.Auth.SessionServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	resetTokens, err := iauth.NewResetTokenService(cfg.Auth.ResetTokenServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise reset token service: %w", err)
	}

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}

	eventSvc, err := services.NewEventService(db)
	if err != nil {
		return fmt.Errorf("initialise event service: %w", err)
	}

	taskSvc, err := services.NewTaskService(db)
	if err != nil {
		return fmt.Errorf("initialise task service: %w", err)
	}

	verificationSvc, err := services.NewVerificationService(db, mailer, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	resetSvc, err := services.NewPasswordResetService(db, userSvc, sessionSvc, resetTokens, mailer, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("initialise password reset service: %w", err)
	}

	cleaner := maintenance.NewCleaner(db, sessionSvc)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Deps{
		Users:    userSvc,
		Events:   eventSvc,
		Tasks:    taskSvc,
		Verifier: verificationSvc,
		Resets:   resetSvc,
		Sessions: sessionSvc,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// ensureResetSecret generates a random signing secret when none is
// configured. Reset links issued before a restart become invalid in that
// case, so a configured secret is preferred.
func ensureResetSecret(cfg *app.Config, log *zap.Logger) error {
	cfg.Auth.Reset.Secret = strings.TrimSpace(cfg.Auth.Reset.Secret)
	if cfg.Auth.Reset.Secret != "" {
		return nil
	}

	secret, err := crypto.GenerateToken(32)
	if err != nil {
		return fmt.Errorf("generate reset secret: %w", err)
	}

	cfg.Auth.Reset.Secret = secret
	log.Warn("auth.reset.secret not configured; generated an ephemeral secret")
	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOptions()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("acquire database handle for close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
