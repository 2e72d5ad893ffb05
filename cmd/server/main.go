package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sumire/lmsauth/internal/config"
	"github.com/sumire/lmsauth/internal/handler"
	"github.com/sumire/lmsauth/internal/metrics"
	"github.com/sumire/lmsauth/internal/provider"
	"github.com/sumire/lmsauth/internal/repository"
	"github.com/sumire/lmsauth/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	clients    service.ClientStore
	identities service.IdentityStore
	users      service.UserStore
	tokens     service.TokenStore
	close      func() error
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		mem := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := mem.LoadSeedFile(cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		slog.Warn("using in-memory store, data is lost on restart")
		return &stores{clients: mem, identities: mem, users: mem, tokens: mem, close: func() error { return nil }}, nil
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database connected")

	return &stores{
		clients:    repository.NewClientRepository(db),
		identities: repository.NewSocialAuthRepository(db),
		users:      repository.NewUserRepository(db),
		tokens:     repository.NewTokenRepository(db),
		close:      db.Close,
	}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := openStores(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exchanger := service.NewTokenExchanger(service.ExchangerDeps{
		Clients:    st.clients,
		Identities: st.identities,
		Users:      st.users,
		Tokens:     st.tokens,
		Providers:  provider.DefaultRegistry(cfg.FacebookUserinfoURL, cfg.GoogleUserinfoURL),
		Fetcher:    provider.NewHTTPFetcher(&http.Client{}, cfg.UserinfoTimeout),
		Issuer:     service.NewTokenIssuer(cfg.JWTSecret, cfg.SiteName),
		Metrics:    metrics.NewCollector(reg),
	}, service.ExchangeConfig{
		SingleAccessToken:   cfg.SingleAccessToken,
		PublicTokenLifetime: cfg.PublicTokenLifetime,
		KnownScopes:         cfg.KnownScopes,
	})

	e := handler.NewServer(handler.Services{
		Exchanger:  exchanger,
		Auth:       exchanger,
		Accounts:   service.NewAccountService(st.users),
		Gatherer:   reg,
		Visibility: cfg.Visibility(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.Store, "single_access_token", cfg.SingleAccessToken)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
