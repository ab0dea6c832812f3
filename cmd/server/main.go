package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/Spok95/kitchen-quotes/internal/config"
	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/comparison"
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/products"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/domain/suppliers"
	"github.com/Spok95/kitchen-quotes/internal/domain/users"
	"github.com/Spok95/kitchen-quotes/internal/infra/db"
	httpx "github.com/Spok95/kitchen-quotes/internal/infra/http"
	"github.com/Spok95/kitchen-quotes/internal/infra/lock"
	"github.com/Spok95/kitchen-quotes/internal/infra/logger"
	"github.com/Spok95/kitchen-quotes/internal/infra/metrics"
	"github.com/Spok95/kitchen-quotes/internal/infra/notify"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	roles, err := cfg.RoleTable()
	if err != nil {
		log.Error("role table", "err", err)
		return
	}
	log.Info("role table loaded", "roles", roles.Roles())

	m := metrics.New(nil)
	quoteRepo := quotes.NewRepo(pool)
	opts := []quotes.Option{
		quotes.WithRecorder(m),
		quotes.WithSuppliers(suppliers.NewRepo(pool)),
	}

	if cfg.Redis.Enabled {
		rdb, err := lock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("redis connect failed", "err", err)
			return
		}
		defer func() { _ = rdb.Close() }()
		opts = append(opts, quotes.WithLocker(lock.New(rdb, cfg.Redis.LockTTL, log)))
		log.Info("redis approval lock enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			// без уведомлений сервис работает
			log.Warn("telegram disabled", "err", err)
		} else {
			opts = append(opts, quotes.WithNotifier(tg))
		}
	}

	catalogRepo := catalog.NewRepo(pool)
	historyRepo := history.NewRepo(pool)
	demandRepo := demand.NewRepo(pool)
	cmp := comparison.NewService(comparison.Sources{
		Quotes:   quoteRepo,
		Products: products.NewRepo(pool),
		Demands:  demandRepo,
		History:  historyRepo,
		Teams:    catalogRepo,
	}, m, log)

	router := httpx.NewRouter(httpx.Deps{
		Log:           log,
		Actors:        access.NewService(users.NewRepo(pool), roles, log),
		Comparison:    cmp,
		Quotes:        quotes.NewService(quoteRepo, log, opts...),
		Demands:       demand.NewService(demandRepo, catalogRepo, log),
		Categories:    catalogRepo,
		Metrics:       m,
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		ExposeMetrics: cfg.Metrics.Enabled,
	})

	srv := httpx.New(cfg.HTTP.Addr, router)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
