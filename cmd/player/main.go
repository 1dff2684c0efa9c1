package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/openkara/player/internal/adapters/http"
	"github.com/openkara/player/internal/adapters/mpv"
	"github.com/openkara/player/internal/adapters/socket"
	"github.com/openkara/player/internal/adapters/store"
	"github.com/openkara/player/internal/api"
	"github.com/openkara/player/internal/app"
	"github.com/openkara/player/internal/config"
	"github.com/openkara/player/internal/discover"
	"github.com/openkara/player/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer st.Close()

	deviceID, err := st.DeviceID()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read device id")
	}
	log.Info().Str("device", deviceID).Msg("player starting")

	creds, err := st.Credentials()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read credentials")
	}
	if cfg.ServerURL != "" {
		creds.ServerURL = cfg.ServerURL
	}

	creds, err = ensureSession(ctx, cfg, st, creds)
	if err != nil {
		log.Fatal().Err(err).Msg("no usable session")
	}

	pipeline := mpv.New(cfg.MPVSocket)
	pipeline.Start()
	transport := socket.New(creds.ServerURL, creds.Token)
	transport.Start(ctx)

	engine := app.New(transport, pipeline, st, creds, cfg.StatusInterval)

	r := router.SetupRouter(cfg, engine)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DiagPort),
		Handler: r,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("diagnostics server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("diagnostics server error")
		}
	}()

	engine.Run(ctx)

	log.Info().Msg("Shutting down")
	pipeline.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("diagnostics server forced to shutdown")
	}
	log.Info().Msg("Player exited gracefully")
}

// ensureSession fills in whatever the persisted session is missing: the
// server address comes from mDNS discovery, the token from the pairing flow.
func ensureSession(ctx context.Context, cfg *config.Config, st *store.Store, creds domain.Credentials) (domain.Credentials, error) {
	if creds.ServerURL == "" {
		srv, err := discoverServer(ctx, cfg.DiscoverWait)
		if err != nil {
			return creds, err
		}
		creds.ServerURL = srv.URL()
		log.Info().Str("server", creds.ServerURL).Msg("discovered karaoke server")
	}

	if creds.Token == "" {
		token, err := pair(ctx, cfg, creds.ServerURL)
		if err != nil {
			return creds, err
		}
		creds.Token = token
		log.Info().Msg("pairing confirmed")
	}

	if err := st.SaveCredentials(creds); err != nil {
		return creds, fmt.Errorf("persist session: %w", err)
	}
	return creds, nil
}

func discoverServer(ctx context.Context, wait time.Duration) (discover.Server, error) {
	browseCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	servers, err := discover.Browse(browseCtx)
	if err != nil {
		return discover.Server{}, err
	}
	srv, ok := <-servers
	if !ok {
		return discover.Server{}, errors.New("no karaoke server found on the local network")
	}
	return srv, nil
}

// pair runs the on-screen-code flow: request a code, show it, poll until a
// controller confirms it and the server mints a token.
func pair(ctx context.Context, cfg *config.Config, serverURL string) (string, error) {
	client := api.NewClient(serverURL)
	code, err := client.RequestPairCode(ctx)
	if err != nil {
		return "", fmt.Errorf("request pair code: %w", err)
	}
	log.Info().Str("code", code.Code).Msg("enter this code in the web app to pair")

	token, err := client.PollPairing(ctx, code.PairID, cfg.PairInterval)
	if err != nil {
		return "", fmt.Errorf("pairing: %w", err)
	}
	return token, nil
}
