package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"rosterhub/internal/event"
	"rosterhub/internal/event/bridge"
	"rosterhub/internal/gateway"
	"rosterhub/internal/platform/config"
	"rosterhub/internal/platform/httpserver"
	"rosterhub/internal/platform/logger"
	"rosterhub/internal/platform/metrics"
	platformredis "rosterhub/internal/platform/redis"
	"rosterhub/internal/roster"
	"rosterhub/internal/roster/handler"
	"rosterhub/internal/roster/service"
	"rosterhub/internal/roster/store"
	httptransport "rosterhub/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		rosterStore roster.Store
		txRunner    roster.TxRunner
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Error("ensure schema", "error", err.Error())
			os.Exit(1)
		}
		rosterStore = store.NewPostgres(db)
		txRunner = store.NewPostgresTx(db, m)
		log.Info("using postgres store")
	} else {
		mem := store.NewInMemory()
		rosterStore = mem
		txRunner = store.NewMemoryTx(mem)
		log.Info("using in-memory store")
	}

	if cfg.Seed {
		if err := store.Seed(ctx, rosterStore); err != nil {
			log.Error("seed activities", "error", err.Error())
			os.Exit(1)
		}
	}

	bus := event.NewBus(cfg.SubscriberQueueSize, log, m)
	engine := service.New(rosterStore, txRunner, bus, log, m)
	gw := gateway.New(bus, log, m, cfg.SendTimeout)
	h := handler.New(engine, log)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(h, gw, log))

	g, ctx := errgroup.WithContext(ctx)

	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err.Error())
			os.Exit(1)
		}
		defer client.Close()
		br := bridge.New(bus, client, log)
		g.Go(func() error {
			err := br.Run(ctx)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		})
		log.Info("redis event bridge enabled")
	}

	g.Go(func() error {
		log.Info("starting rosterhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		// Drop live subscribers first so Shutdown is not held open by
		// never-ending event streams.
		gw.Close()
		bus.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}
