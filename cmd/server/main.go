package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"

	router "github.com/dkeye/callrelay/internal/adapters/http"
	"github.com/dkeye/callrelay/internal/adapters/rtc"
	wssignal "github.com/dkeye/callrelay/internal/adapters/signal"
	"github.com/dkeye/callrelay/internal/app"
	"github.com/dkeye/callrelay/internal/app/orch"
	"github.com/dkeye/callrelay/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("callrelay stopped")
	}
	log.Info().Msg("Server exited gracefully")
}

// setupLogger keeps the console writer in debug mode and switches to JSON lines otherwise.
func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	iceServers := rtc.ICEServersFromConfig(cfg.ICEServers)
	if err := rtc.Validate(iceServers); err != nil {
		return err
	}

	b, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	delivery, err := app.ParseDeliveryPolicy(cfg.Call.Delivery)
	if err != nil {
		return err
	}
	timeouts := app.NewTimeoutSupervisor(cfg.Call.RingTimeout)
	defer timeouts.Stop()
	history := app.NewHistoryWriter(cfg.Call.HistoryBuffer, b.sinks...)

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(delivery),
		Sessions: app.NewSessionStore(cfg.Call.MaxLifetime, cfg.Call.TombstoneTTL),
		Timeouts: timeouts,
		Bookings: b.directory,
		History:  history,
		Offline:  b.offline,
		Policy:   app.SimplePolicy{},
	}

	ctrl := wssignal.NewSignalWSController(o,
		wssignal.NewInitiateLimiter(cfg.Call.InitiateRate, cfg.Call.InitiateBurst),
		wssignal.NewTokenVerifier(cfg.Auth.JWTSecret),
		wssignal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			PongWait:   cfg.PongWait,
			WriteWait:  cfg.WriteWait,
			SendBuffer: cfg.SendBuffer,
		})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:       o,
		Signal:     ctrl,
		ICEServers: iceServers,
		History:    b.reader,
	})

	root := suture.New("callrelay", suture.Spec{EventHook: sutureHook})
	root.Add(&router.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r})
	root.Add(&orch.Sweeper{Orch: o, Interval: cfg.Call.SweepInterval})
	root.Add(history)

	err = root.Serve(ctx)
	log.Info().Msg("Shutting down")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sutureHook routes supervisor events into the zerolog logger.
func sutureHook(e suture.Event) {
	ev := log.Info()
	switch e.Type() {
	case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate, suture.EventTypeStopTimeout:
		ev = log.Warn()
	}
	ev.Str("module", "supervisor").Fields(e.Map()).Msg(e.String())
}
