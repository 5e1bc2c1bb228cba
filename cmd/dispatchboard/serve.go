package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dispatchboard/internal/api"
	"dispatchboard/internal/auth"
	"dispatchboard/internal/model"
	"dispatchboard/internal/webhooks"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := openBackends(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		dir, err := model.ParseDirection(cfg.Cluster.Direction)
		if err != nil {
			return eris.Wrap(err, "cluster direction")
		}
		th := cfg.Thresholds
		s := api.NewServer(api.Options{
			Store:        b.Store,
			Settings:     b.Settings,
			Broker:       b.Broker,
			Auth:         auth.NewVerifier(cfg.Auth),
			Thresholds:   &th,
			GridSize:     cfg.Cluster.GridSize,
			Direction:    dir,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			RateRPS:      cfg.Server.RateLimitRPS,
			RateBurst:    cfg.Server.RateLimitBurst,
			Info: map[string]any{
				"storeDriver": cfg.Store.Driver,
				"hasRedis":    cfg.Redis.URL != "",
			},
		})

		if len(cfg.Webhooks.URLs) > 0 {
			startWebhooks(ctx, b.Broker)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.Routes(),
			ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("auth", s.Auth.Mode()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// startWebhooks forwards refresh events to the configured webhook endpoints
// until ctx is done.
func startWebhooks(ctx context.Context, broker api.EventBroker) *webhooks.Worker {
	w := webhooks.NewWorker(cfg.Webhooks)
	ch := broker.Subscribe(api.TopicRefresh)
	go w.Run(ctx)
	go func() {
		defer broker.Unsubscribe(api.TopicRefresh, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				w.Enqueue(evt.Type, evt.Data)
			}
		}
	}()
	zap.L().Info("webhooks enabled", zap.Int("endpoints", len(cfg.Webhooks.URLs)))
	return w
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
