package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arcade-seats/internal/broadcast"
	"arcade-seats/internal/config"
	"arcade-seats/internal/logging"
	"arcade-seats/internal/reservation"
	"arcade-seats/internal/store"
	"arcade-seats/internal/telemetry"
	httptransport "arcade-seats/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry init failed")
	}

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.EnsureDefaultRooms(ctx, cfg.Server.Games, cfg.Server.RoomCapacity, cfg.Server.TablesPerRoom); err != nil {
		log.Fatal().Err(err).Msg("ensure default rooms failed")
	}

	hub := broadcast.NewHub(256, st)
	coord := reservation.NewCoordinator(reservation.Deps{
		Rooms:    st,
		Tables:   st,
		Sessions: st,
		Log:      st,
		Events:   hub,
	})
	reaper := reservation.NewReaper(coord, cfg.Reaper)
	reaper.Start(ctx, cfg.Reaper.Interval, cfg.Reaper.PurgeInterval)

	r := httptransport.NewRouter(coord, hub, st, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
