package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/audio"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/bus"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/protocol"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/recognizer"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/transcribe"
)

// Observer receives every transcript update the manager emits, already
// folded into the session buffer. Observers must not block.
type Observer func(t protocol.Transcript)

// Manager owns the transcription sessions of one process: at most one
// live microphone session at a time, synchronous file jobs, and the
// browser-speech side channel. Machine results accumulate in one buffer
// that survives stop and is discarded only by Clear, so a stopped
// session's transcript stays available for display and download.
type Manager struct {
	cfg    config.Config
	format audio.Format
	engine recognizer.Engine
	device audio.Device
	bus    *bus.Client
	log    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	live       *liveSession
	buf        *transcribe.Buffer
	browserBuf *transcribe.Buffer
	listening  bool
	observers  map[int]Observer
	nextObs    int

	updates metric.Int64Counter
}

type liveSession struct {
	id     string
	cancel context.CancelFunc
	source *audio.LiveSource
	done   chan struct{}
}

func NewManager(parent context.Context, cfg config.Config, engine recognizer.Engine, device audio.Device, busClient *bus.Client, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)
	m := &Manager{
		cfg: cfg,
		format: audio.Format{
			SampleRate:   cfg.Audio.SampleRate,
			Channels:     cfg.Audio.Channels,
			ChunkSamples: cfg.Audio.ChunkSamples,
		},
		engine:     engine,
		device:     device,
		bus:        busClient,
		log:        logger,
		ctx:        ctx,
		cancel:     cancel,
		buf:        transcribe.NewBuffer(),
		browserBuf: transcribe.NewBuffer(),
		observers:  make(map[int]Observer),
	}
	m.registerMetrics()
	return m
}

func (m *Manager) registerMetrics() {
	meter := otel.Meter("github.com/DivyanshuRana9418127188/Hindi-Vosk/session")

	updates, err := meter.Int64Counter("hindivosk.updates.total",
		metric.WithDescription("Transcript updates emitted, by kind"))
	if err != nil {
		m.log.Warn("metrics unavailable", slogError(err))
		return
	}
	m.updates = updates

	activeGauge, err := meter.Int64ObservableGauge("hindivosk.sessions.active",
		metric.WithDescription("Live sessions currently running"))
	if err != nil {
		return
	}
	depthGauge, err := meter.Int64ObservableGauge("hindivosk.capture.queue_depth",
		metric.WithDescription("Captured chunks waiting in the hand-off queue"))
	if err != nil {
		return
	}
	_, err = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		m.mu.Lock()
		var active, depth int64
		if m.live != nil {
			active = 1
			depth = int64(m.live.source.Depth())
		}
		m.mu.Unlock()
		obs.ObserveInt64(activeGauge, active)
		obs.ObserveInt64(depthGauge, depth)
		return nil
	}, activeGauge, depthGauge)
	if err != nil {
		m.log.Warn("metrics callback registration failed", slogError(err))
	}
}

// Subscribe registers an observer for transcript updates and returns its
// unsubscribe function.
func (m *Manager) Subscribe(obs Observer) func() {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = obs
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// StartLive claims the capture device and starts the driver loop in its
// own goroutine. At most one live session runs at a time.
func (m *Manager) StartLive() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live != nil {
		return "", transcribe.ErrAlreadyActive
	}

	id := uuid.NewString()
	sessionCtx, cancel := context.WithCancel(m.ctx)
	source, err := audio.NewLiveSource(sessionCtx, m.device, m.format, m.cfg.Audio.QueueChunks, m.log)
	if err != nil {
		cancel()
		return "", fmt.Errorf("open live source: %w", err)
	}

	session := &liveSession{id: id, cancel: cancel, source: source, done: make(chan struct{})}
	m.live = session
	tr := transcribe.NewTranscriber(m.engine, m.format, m.buf, m.log)

	m.publishSessionEvent(id, protocol.SourceLive, protocol.SessionStarted)
	m.log.Info("live session started", slog.String("session_id", id))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(session.done)
		err := transcribe.Run(sessionCtx, source, tr, m.forward(id, protocol.SourceLive), m.log)
		if err != nil {
			m.log.Warn("live session ended with error", slog.String("session_id", id), slogError(err))
		}
		_ = source.Close()
		cancel()

		m.mu.Lock()
		if m.live == session {
			m.live = nil
		}
		m.mu.Unlock()

		m.publishSessionEvent(id, protocol.SourceLive, protocol.SessionStopped)
		m.log.Info("live session stopped", slog.String("session_id", id))
	}()

	return id, nil
}

// StopLive signals the running live session and waits for its driver to
// flush the trailing final and release the device.
func (m *Manager) StopLive() error {
	m.mu.Lock()
	session := m.live
	m.mu.Unlock()
	if session == nil {
		return transcribe.ErrNotActive
	}
	session.cancel()
	<-session.done
	return nil
}

// TranscribeFile decodes path up front and feeds its chunk sequence
// synchronously, returning the buffer snapshot and the elapsed wall time.
func (m *Manager) TranscribeFile(path string) (transcribe.Snapshot, time.Duration, error) {
	started := time.Now()
	source, err := audio.NewFileSource(path, m.format, m.cfg.File.Normalize, m.log)
	if err != nil {
		return transcribe.Snapshot{}, 0, err
	}
	defer source.Close()

	id := uuid.NewString()
	tr := transcribe.NewTranscriber(m.engine, m.format, m.buf, m.log)
	m.publishSessionEvent(id, protocol.SourceFile, protocol.SessionStarted)

	err = transcribe.Run(m.ctx, source, tr, m.forward(id, protocol.SourceFile), m.log)
	m.publishSessionEvent(id, protocol.SourceFile, protocol.SessionStopped)
	elapsed := time.Since(started)
	if err != nil {
		return m.buf.Snapshot(), elapsed, err
	}

	m.log.Info("file transcribed",
		slog.String("path", path),
		slog.Duration("audio", source.Duration()),
		slog.Duration("elapsed", elapsed))
	return m.buf.Snapshot(), elapsed, nil
}

// IngestBrowserReport folds one report from the browser's speech service
// into the browser buffer. Causality is relaxed on purpose: while the
// browser is listening its transcript freely overwrites the current
// partial; the transition to not-listening commits it.
func (m *Manager) IngestBrowserReport(r protocol.BrowserReport) {
	if r.Error != "" {
		m.log.Warn("browser recognition error", slog.String("error", r.Error))
	}

	m.mu.Lock()
	wasListening := m.listening
	m.listening = r.IsListening
	m.mu.Unlock()

	var update transcribe.Update
	switch {
	case r.IsListening:
		update = transcribe.Update{Kind: transcribe.KindPartial, Text: r.Transcript}
	case wasListening:
		update = transcribe.Update{Kind: transcribe.KindFinal, Text: r.Transcript}
	default:
		return
	}
	m.browserBuf.Apply(update)
	m.emit(protocol.Transcript{
		SessionID: protocol.SourceBrowser,
		Source:    protocol.SourceBrowser,
		Text:      update.Text,
		Partial:   update.Kind == transcribe.KindPartial,
		Timestamp: time.Now().UTC(),
	})
}

// Clear discards both buffers. Idempotent; safe while stopped or idle.
func (m *Manager) Clear() {
	m.buf.Clear()
	m.browserBuf.Clear()
	m.publishSessionEvent("", protocol.SourceLive, protocol.SessionCleared)
}

func (m *Manager) Snapshot() transcribe.Snapshot        { return m.buf.Snapshot() }
func (m *Manager) BrowserSnapshot() transcribe.Snapshot { return m.browserBuf.Snapshot() }

// LiveActive reports whether a live session is currently running.
func (m *Manager) LiveActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live != nil
}

func (m *Manager) Healthy() bool {
	return m.ctx.Err() == nil
}

// Close stops any running session and waits for drivers to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// forward builds the driver's update callback: skip empties, publish the
// rest to the bus and to in-process observers.
func (m *Manager) forward(sessionID, source string) func(transcribe.Update) error {
	return func(u transcribe.Update) error {
		if u.Kind == transcribe.KindEmpty {
			return nil
		}
		if m.updates != nil {
			m.updates.Add(m.ctx, 1, metric.WithAttributes(
				attribute.String("kind", u.Kind.String()),
				attribute.String("source", source)))
		}
		m.emit(protocol.Transcript{
			SessionID: sessionID,
			Source:    source,
			Text:      u.Text,
			Partial:   u.Kind == transcribe.KindPartial,
			Timestamp: time.Now().UTC(),
		})
		return nil
	}
}

func (m *Manager) emit(t protocol.Transcript) {
	// Empty finals (a flush with nothing buffered) carry no information.
	// Empty partials still go out: they clear interim text downstream.
	if t.Text == "" && !t.Partial {
		return
	}
	subject := protocol.SubjectTranscriptFinal
	if t.Partial {
		subject = protocol.SubjectTranscriptPartial
	}
	if err := m.bus.Publish(subject, t); err != nil {
		m.log.Warn("transcript publish failed", slogError(err))
	}

	m.mu.Lock()
	observers := make([]Observer, 0, len(m.observers))
	for _, obs := range m.observers {
		observers = append(observers, obs)
	}
	m.mu.Unlock()
	for _, obs := range observers {
		obs(t)
	}
}

func (m *Manager) publishSessionEvent(sessionID, source, state string) {
	event := protocol.SessionEvent{
		SessionID: sessionID,
		Source:    source,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
	if err := m.bus.Publish(protocol.SubjectSessionState, event); err != nil {
		m.log.Warn("session event publish failed", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
