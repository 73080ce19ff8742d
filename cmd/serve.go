package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/immxrtalbeast/axenix_meet/internal/api/http"
	"github.com/immxrtalbeast/axenix_meet/internal/config"
	"github.com/immxrtalbeast/axenix_meet/internal/feed"
	"github.com/immxrtalbeast/axenix_meet/internal/identity"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/internal/storage"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	log := setupLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", sl.Err(err))
		return err
	}
	verifier, err := identity.NewHMACVerifier(cfg.Identity.Secret, cfg.Identity.Issuer)
	if err != nil {
		log.Error("failed to set up identity verifier", sl.Err(err))
		return err
	}

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		return err
	}
	if err := migrate(db, log); err != nil {
		return err
	}

	bucket, err := storage.NewOSBucket(cfg.Storage.Root)
	if err != nil {
		log.Error("failed to open storage", slog.String("root", cfg.Storage.Root), sl.Err(err))
		return err
	}

	meetingRepo := repository.NewPostgresMeetingRepository(db)
	participantRepo := repository.NewPostgresParticipantRepository(db)
	recordingRepo := repository.NewPostgresRecordingRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	daily := provider.NewDailyClient(log, cfg.Provider.BaseURL, cfg.Provider.APIKey, nil)
	issuer, rooms := callProvider(cfg.Provider, daily, log)

	hub := feed.NewHub(log)

	meetingService := service.NewMeetingService(log, meetingRepo, participantRepo, rooms, hub, cfg.Provider.Kind, cfg.Provider.RoomLifetime)
	tokenService := service.NewTokenService(log, participantRepo, issuer, cfg.Token.FailClosed())
	recordingService := service.NewRecordingService(log, recordingRepo, daily, bucket, service.RecordingOptions{
		MonthlyLimit:       cfg.Recordings.MonthlyLimit,
		HydrateConcurrency: cfg.Recordings.HydrateConcurrency,
		PageSize:           cfg.Recordings.PageSize,
	})
	userService := service.NewUserService(userRepo, log)

	router := httpapi.SetupRouter(httpapi.RouterDeps{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		Verifier:     verifier,
		Storage:      bucket,
		Calls:        httpapi.NewCallController(tokenService, meetingService),
		Meetings:     httpapi.NewMeetingController(log, meetingService),
		Recordings:   httpapi.NewRecordingController(recordingService),
		Users:        httpapi.NewUserController(userService),
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting application",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("env", cfg.Env),
			slog.String("provider", cfg.Provider.Kind),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", sl.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", sl.Err(err))
		return err
	}
	log.Info("server exited")
	return nil
}

// callProvider picks the token issuer and room provisioner for the
// configured call provider. Recordings always go through Daily.
func callProvider(cfg config.ProviderConfig, daily *provider.DailyClient, log *slog.Logger) (provider.TokenIssuer, provider.RoomProvisioner) {
	if cfg.Kind == config.ProviderLiveKit {
		lk := provider.NewLiveKitIssuer(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.URL, cfg.LiveKit.TokenTTL)
		return lk, lk
	}
	if cfg.Kind != config.ProviderDaily {
		log.Warn("unknown provider kind, using daily", slog.String("kind", cfg.Kind))
	}
	return daily, daily
}
