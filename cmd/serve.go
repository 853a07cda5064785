package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/branch-risk/internal/api"
	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/monitoring"
	"github.com/sells-group/branch-risk/internal/notify"
	"github.com/sells-group/branch-risk/internal/store"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard, map and CRUD API",
	Long: `Starts the HTTP API. Every write is published as a change event; the
server reloads a fresh snapshot on each event, drops cached dashboard
responses and refreshes the risk gauges exposed on /metrics. A cron
schedule also re-checks risk and sends webhook alerts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		br, err := initBroker(ctx, cfg.Notify)
		if err != nil {
			return err
		}
		defer br.Close() //nolint:errcheck

		nst := store.Notifying(st, br)
		dash := dashboard.New(nst)
		apiSrv := api.New(nst, cfg.Server)
		checker := monitoring.NewChecker(
			monitoring.NewCollector(dash),
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           apiSrv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})

		g.Go(func() error {
			err := notify.Watch(gctx, br, dash.Load, func(snap dashboard.Snapshot) {
				apiSrv.Invalidate()
				checker.Refresh(snap)
			})
			return ignoreCanceled(err)
		})

		g.Go(func() error {
			return checker.Run(gctx)
		})

		return g.Wait()
	},
}

// ignoreCanceled treats context cancellation as a clean stop.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
