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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/vanity-bot/internal/directory"
	"github.com/noah-isme/vanity-bot/internal/handler"
	"github.com/noah-isme/vanity-bot/internal/service"
	"github.com/noah-isme/vanity-bot/pkg/config"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the gateway and run the intake, the sweep and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	discord, err := directory.New(directory.Config{
		Token:            cfg.Discord.Token,
		RegisterCommands: cfg.Discord.RegisterCommands,
	}, logr)
	if err != nil {
		return err
	}

	signals := service.NewSignalCache()
	engine := service.NewEngine(a.configs, a.ledger, discord, signals, a.metrics, logr, service.EngineConfig{
		Tag:           cfg.Vanity.Tag,
		Footer:        cfg.Vanity.Footer,
		IgnoreOffline: cfg.Vanity.IgnoreOffline,
	})
	intake := service.NewIntakeService(engine, signals, discord, a.metrics, logr, service.IntakeConfig{
		Workers:       cfg.Intake.Workers,
		BufferSize:    cfg.Intake.BufferSize,
		Retries:       cfg.Intake.Retries,
		RetryDelay:    cfg.Intake.RetryDelay,
		IgnoreOffline: cfg.Vanity.IgnoreOffline,
	})
	sweep := service.NewSweepService(a.configs, discord, engine, a.metrics, logr, service.SweepConfig{
		Interval:      cfg.Sweep.Interval,
		Concurrency:   cfg.Sweep.Concurrency,
		RatePerSecond: cfg.Sweep.RatePerSecond,
	})
	discord.Bind(intake, directory.NewCommandHandler(a.configs, a.ledger, logr))

	auth := service.NewAuthService(nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "vanity-bot",
	})
	a.checks["gateway"] = func(context.Context) error {
		if !discord.Ready() {
			return errors.New("gateway session not ready")
		}
		return nil
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Logger:    logr,
		Metrics:   a.metrics,
		Auth:      auth,
		Community: handler.NewCommunityHandler(a.configs, a.ledger, engine, intake),
		Events:    handler.NewEventHandler(intake),
		Ops:       handler.NewMetricsHandler(a.metrics, sweep, a.checks, intake.Pending),
		Docs:      cfg.Env != config.EnvProduction,
		Origins:   cfg.CORS.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	intake.Start(gctx)
	defer intake.Stop()

	g.Go(func() error {
		if err := discord.Open(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return discord.Close()
	})
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Sweep.Enabled {
		g.Go(func() error {
			if !waitReady(gctx, discord) {
				return nil
			}
			return sweep.Run(gctx)
		})
	}

	err = g.Wait()
	logr.Info("shutdown complete", zap.Error(err))
	return err
}

// waitReady blocks until the gateway state is populated so the first sweep
// sees presences.
func waitReady(ctx context.Context, d *directory.Discord) bool {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for !d.Ready() {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}
