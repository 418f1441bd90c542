// Command portal-gateway serves the loan portal session over a local HTTP API
// and keeps loan statuses in sync in the background.
//
//	@title			Loan Portal Session Gateway
//	@version		1.0
//	@description	Local gateway over the loan portal session client.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/loanportal/portal-client/internal/api"
	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/service"
	"github.com/loanportal/portal-client/internal/core/state"
	"github.com/loanportal/portal-client/internal/infrastructure/config"
	"github.com/loanportal/portal-client/internal/infrastructure/kv"
	"github.com/loanportal/portal-client/internal/infrastructure/poller"
	"github.com/loanportal/portal-client/internal/infrastructure/remote"
	"github.com/loanportal/portal-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "portal-gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := kv.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("open session storage")
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Error().Err(err).Msg("close session storage")
		}
	}()

	client := remote.New(remote.Config{
		BaseURL: cfg.Portal.BaseURL,
		Timeout: cfg.Portal.Timeout,
	}, logger.Component("remote"))

	store := state.NewStore()
	sessions := service.NewSessionService(
		client,
		service.NewCredentialVault(storage),
		service.NewSessionRecordStore(storage, service.NewMarkerSigner(cfg.MarkerSecret)),
		store,
		logger.Component("session"),
	)
	loans := service.NewLoanService(client, sessions, logger.Component("loans"))
	tracker := service.NewStatusTracker(loans, sessions, logger.Component("tracker"))
	scheduler := poller.NewScheduler(cfg.PollInterval, tracker, logger.Component("poller"))

	// Forget the previous user's snapshot on logout; sync right away on login.
	var authenticated atomic.Bool
	unsubscribe := sessions.Subscribe(func(s domain.SessionState) {
		log.Debug().Str("phase", string(s.Phase())).Msg("session state changed")
		if s.Loading {
			return
		}
		was := authenticated.Swap(s.IsAuthenticated)
		switch {
		case s.IsAuthenticated && !was:
			go scheduler.RunOnce()
		case !s.IsAuthenticated && was:
			tracker.Reset()
		}
	})
	defer unsubscribe()

	sessions.Restore(ctx)

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start status poller")
	}
	defer scheduler.Stop()

	e := api.NewRouter(api.Deps{
		Session:        sessions,
		Loans:          loans,
		Tracker:        tracker,
		Storage:        storage,
		StorageBackend: cfg.Storage.Backend,
		PhoneRegion:    cfg.PhoneRegion,
		Log:            logger.Component("http"),
	})

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.Portal.BaseURL).
			Str("storage", cfg.Storage.Backend).
			Msg("portal gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
