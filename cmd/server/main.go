package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	adminhandler "cognito-emulator/internal/admin/handler"
	"cognito-emulator/internal/auth"
	authhandler "cognito-emulator/internal/auth/handler"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/config"
	grouphandler "cognito-emulator/internal/group/handler"
	"cognito-emulator/internal/keys"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/otp"
	"cognito-emulator/internal/pool/domain"
	poolhandler "cognito-emulator/internal/pool/handler"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/storage"
	"cognito-emulator/internal/telemetry/otel"
	"cognito-emulator/internal/token"
	"cognito-emulator/internal/triggers"
	userhandler "cognito-emulator/internal/user/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "cognito-emulator").Logger()
	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "cognito-emulator", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	backend, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer backend.Close()

	keyStore, err := keys.Load(cfg.JWTPrivateKey, cfg.DataDir)
	if err != nil {
		log.Fatalf("keys: %v", err)
	}

	clk := clock.System{}
	ids := clock.UUIDSource{}

	runtime := triggers.NewRuntime(clk)
	if cfg.TriggerConfig != "" {
		runtime, err = triggers.LoadConfig(cfg.TriggerConfig, clk)
		if err != nil {
			log.Fatalf("triggers: %v", err)
		}
	}

	cognitoSvc, err := cognito.New(ctx, backend, clk)
	if err != nil {
		log.Fatalf("pools: %v", err)
	}
	if err := seed(ctx, cognitoSvc, cfg, clk); err != nil {
		log.Fatalf("seed: %v", err)
	}

	codes := otp.New(cfg.OTPDeterministic)
	sender := messages.NewSender(runtime, clk, logger, cfg.MessageLog)
	tokens := token.New(keyStore, clk, ids, runtime, cfg.IssuerBaseURL)
	authSvc := auth.New(cognitoSvc, tokens, runtime, codes, sender, clk, ids, logger)

	registry := server.NewRegistry()
	authhandler.NewServer(authSvc).Register(registry)
	userhandler.NewServer(authSvc, cognitoSvc, codes, sender).Register(registry)
	adminhandler.NewServer(cognitoSvc, runtime, sender, clk, ids, logger).Register(registry)
	grouphandler.NewServer(cognitoSvc).Register(registry)
	poolhandler.NewServer(cognitoSvc, ids).Register(registry)

	handler := server.Router(server.Options{
		Registry:   registry,
		Keys:       keyStore,
		Backend:    backend,
		Cognito:    cognitoSvc,
		IssuerBase: cfg.IssuerBaseURL,
		Logger:     logger,
		DevRoutes:  cfg.DevRoutes,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown")
	}
	logger.Info().Msg("http server stopped")
}

// seed pre-creates the configured pool and client so SDK targets work on a
// fresh data directory. Existing resources are left untouched.
func seed(ctx context.Context, svc *cognito.Service, cfg *config.Config, clk clock.Clock) error {
	if cfg.SeedPoolID == "" {
		return nil
	}
	st, err := svc.GetUserPool(ctx, cfg.SeedPoolID)
	if err != nil {
		st, err = svc.CreateUserPool(ctx, domain.UserPool{
			ID:               cfg.SeedPoolID,
			Name:             cfg.SeedPoolID,
			MFAConfiguration: domain.MFAOff,
		})
		if err != nil {
			return err
		}
	}
	if cfg.SeedClientID == "" || st.GetClient(cfg.SeedClientID) != nil {
		return nil
	}
	return svc.RegisterClient(ctx, &domain.AppClient{
		ClientID:   cfg.SeedClientID,
		UserPoolID: cfg.SeedPoolID,
		Name:       "default",
	})
}
