package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/audio"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/bus"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/natsserver"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/recognizer"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/session"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/web"
)

// Runtime composes the daemon: telemetry, optional embedded bus,
// recognizer backend, capture device, session manager and the web
// dashboard, torn down in reverse order on shutdown.
type Runtime struct {
	cfg           config.Config
	logger        *slog.Logger
	metricsServer *http.Server
	ready         atomic.Bool
	wg            sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	r.startMetricsServer(metricsHandler)

	embedded, busClient, err := r.startBus()
	if err != nil {
		return err
	}

	engine, err := recognizer.New(r.cfg.Recognizer, r.cfg.Audio.SampleRate, r.logger.With(slog.String("component", "recognizer")))
	if err != nil {
		return fmt.Errorf("create recognizer engine: %w", err)
	}

	device, err := NewCaptureDevice(r.cfg, r.logger.With(slog.String("component", "capture")))
	if err != nil {
		return err
	}

	manager := session.NewManager(ctx, r.cfg, engine, device, busClient,
		r.logger.With(slog.String("component", "session")))

	var dashboard *web.Server
	if r.cfg.Web.Enabled {
		dashboard = web.NewServer(r.cfg, manager, r.logger.With(slog.String("component", "web")))
		if err := dashboard.Start(); err != nil {
			return fmt.Errorf("start dashboard: %w", err)
		}
	}

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("recognizer", r.cfg.Recognizer.Mode),
		slog.Bool("bus", busClient.Healthy()),
		slog.Bool("web", dashboard != nil))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if dashboard != nil {
		dashboard.Close(shutdownCtx)
	}
	manager.Close()
	if err := engine.Close(); err != nil {
		r.logger.Warn("engine close error", slogError(err))
	}
	busClient.Close()
	embedded.Shutdown()
	if r.metricsServer != nil {
		if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("metrics shutdown error", slogError(err))
		}
	}
	r.wg.Wait()

	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			r.logger.Warn("telemetry shutdown error", slogError(err))
		}
	}
	return nil
}

func (r *Runtime) startBus() (*natsserver.EmbeddedServer, *bus.Client, error) {
	if !r.cfg.Bus.Enabled {
		return nil, nil, nil
	}
	embedded, err := natsserver.Start(r.cfg.Bus, r.logger.With(slog.String("component", "natsserver")))
	if err != nil {
		return nil, nil, fmt.Errorf("start embedded bus: %w", err)
	}
	busCfg := r.cfg.Bus
	if embedded != nil {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	client, err := bus.Connect(busCfg, r.logger.With(slog.String("component", "bus")))
	if err != nil {
		embedded.Shutdown()
		return nil, nil, fmt.Errorf("connect bus: %w", err)
	}
	return embedded, client, nil
}

// NewCaptureDevice selects the configured capture backend. The CLI and
// the daemon share it.
func NewCaptureDevice(cfg config.Config, logger *slog.Logger) (audio.Device, error) {
	switch cfg.Audio.CaptureMode {
	case "exec":
		return audio.NewExecDevice(cfg.Audio.CaptureCommand, logger)
	case "mock":
		// A silent looping device so the process runs end to end without
		// hardware.
		silence := make([]byte, cfg.Audio.ChunkSamples*2)
		return audio.NewMockDevice(silence, true), nil
	default:
		return nil, fmt.Errorf("unknown capture mode %q", cfg.Audio.CaptureMode)
	}
}

func (r *Runtime) startMetricsServer(handler http.Handler) {
	if handler == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if r.ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	r.metricsServer = &http.Server{
		Addr:              r.cfg.Telemetry.PrometheusBind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics server failed", slogError(err))
		}
	}()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
