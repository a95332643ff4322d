package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reposync/internal/logging"
	"reposync/internal/metrics"
	"reposync/internal/scheduler"
	"reposync/pkg/config"
	"reposync/pkg/syncer"
)

var daemonMetricsAddr string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run startup syncs and the periodic upload loop",
	Long: `Run reposync in the background.

On start, an upload and a download run when trigger_upload and trigger_download
are set. With enable_auto_sync, every configured path is uploaded each
sync_interval minutes; the interval is re-read before every wait. Failed
iterations are logged and retried after a one minute cooldown.

When metrics_addr (or --metrics-addr) is set, Prometheus metrics are served on
/metrics. SIGINT or SIGTERM stops the daemon after the running pass.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics_addr)")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore()
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	addr := daemonMetricsAddr
	if addr == "" {
		addr = cfg.MetricsAddr
	}

	var listener net.Listener
	if addr != "" {
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	recorder := metrics.NewRecorder()
	logger := logging.L()
	d := &daemon{
		store:    store,
		syncer:   syncer.New(store, syncer.WithLogger(logger), syncer.WithRecorder(recorder)),
		metrics:  recorder,
		logger:   logger,
		cooldown: scheduler.DefaultCooldown,
	}
	return d.run(ctx, listener)
}

type daemon struct {
	store    config.Store
	syncer   *syncer.Syncer
	metrics  *metrics.Recorder
	logger   *zap.Logger
	cooldown time.Duration
}

// run blocks until ctx ends. With neither auto-sync nor a metrics listener it
// returns once the startup passes are done.
func (d *daemon) run(ctx context.Context, listener net.Listener) error {
	cfg, err := d.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		d.logger.Warn("configuration is incomplete, sync passes will fail", zap.Error(err))
	}

	reporter := syncer.NewLogReporter(d.logger)

	var startup sync.WaitGroup
	if cfg.TriggerUpload {
		startup.Add(1)
		go func() {
			defer startup.Done()
			_, _ = d.syncer.Upload(ctx, "", reporter)
		}()
	}
	if cfg.TriggerDownload {
		startup.Add(1)
		go func() {
			defer startup.Done()
			_, _ = d.syncer.Download(ctx, "", reporter)
		}()
	}

	var server *http.Server
	serveErr := make(chan error, 1)
	if listener != nil {
		server = d.metricsServer()
		d.logger.Info("serving metrics", zap.String("addr", listener.Addr().String()))
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	if !cfg.EnableAutoSync {
		d.logger.Info("auto-sync disabled")
		if server == nil {
			startup.Wait()
			return nil
		}
	}

	if cfg.EnableAutoSync {
		sched := scheduler.New(d.interval, d.autoUpload,
			scheduler.WithLogger(d.logger),
			scheduler.WithCooldown(d.cooldown),
		)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("metrics server failed: %w", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	startup.Wait()
	d.logger.Info("daemon stopped")
	return err
}

// interval re-reads the configuration so edits apply to the next wait
func (d *daemon) interval() time.Duration {
	cfg, err := d.store.Load()
	if err != nil {
		d.logger.Warn("failed to reload configuration, using default interval", zap.Error(err))
		return time.Duration(config.DefaultIntervalMinutes) * time.Minute
	}
	return cfg.Interval()
}

// autoUpload runs one scheduled pass. A missing token or repository is
// already logged by the reporter and waits for the next interval, not the
// error cooldown.
func (d *daemon) autoUpload(ctx context.Context) error {
	_, err := d.syncer.Upload(ctx, "", syncer.NewLogReporter(d.logger.With(zap.Bool("auto", true))))
	if errors.Is(err, syncer.ErrConfiguration) {
		return nil
	}
	return err
}

func (d *daemon) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &http.Server{
		Handler:           logging.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
