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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/LeventeLantos/sms-automation/internal/api"
	"github.com/LeventeLantos/sms-automation/internal/automation"
	"github.com/LeventeLantos/sms-automation/internal/cache"
	"github.com/LeventeLantos/sms-automation/internal/config"
	"github.com/LeventeLantos/sms-automation/internal/dispatch"
	"github.com/LeventeLantos/sms-automation/internal/display"
	"github.com/LeventeLantos/sms-automation/internal/logging"
	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init("sms-automation", cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("sms-automation exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.Register(reg)

	d, mode := dispatch.Select(cfg.Dispatch)
	ctrl := automation.New(d, mode, cfg.Automation.ContentMax, cfg.Automation.LogCapacity)

	var receipts cache.ReceiptCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Redis.Address, err)
		}

		receipts = cache.NewRedisCache(rdb, cfg.Redis.TTL)
		ctrl.WithCache(receipts)
	}

	slog.Info("sms-automation starting",
		"addr", cfg.Server.Address,
		"mode", mode,
		"badge", display.ModeBadge(string(mode)),
		"redis", cfg.Redis.Enabled,
	)

	renderer := display.Renderer{ContentMax: cfg.Automation.ContentMax}
	h := api.NewHandler(ctrl, receipts, renderer)
	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           loggingMiddleware(api.Router(h, metrics)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Autostart.Enabled() {
		ac, err := autostartConfig(cfg.Autostart)
		if err == nil {
			err = ctrl.Start(ac)
		}
		if err != nil {
			return fmt.Errorf("autostart: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		ctrl.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		ctrl.Wait()
		return err
	})

	if cfg.Automation.ConsoleDisplay {
		g.Go(func() error {
			return consoleLoop(gctx, ctrl, renderer)
		})
	}

	return g.Wait()
}

func autostartConfig(a config.AutostartConfig) (model.Configuration, error) {
	unit, err := model.ParseIntervalUnit(a.Unit)
	if err != nil {
		return model.Configuration{}, err
	}
	return model.Configuration{
		Recipient: a.Phone,
		Body:      a.Message,
		Interval:  model.Interval{Magnitude: a.Interval, Unit: unit},
	}, nil
}

// consoleLoop reprints the rendered state on stdout after every change.
func consoleLoop(ctx context.Context, ctrl *automation.Controller, r display.Renderer) error {
	ch, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-ch:
			fmt.Fprint(os.Stdout, "\n")
			if err := r.Render(os.Stdout, s); err != nil {
				return err
			}
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
