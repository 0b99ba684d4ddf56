// Package web serves the hybrid dashboard: live microphone control,
// file transcription, browser-speech ingestion and transcript download.
// Render layers only ever read buffer snapshots; every mutation goes
// through the session manager.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/artifact"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/protocol"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/session"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/transcribe"
)

//go:embed dashboard.html
var dashboardHTML embed.FS

type Server struct {
	cfg      config.Config
	manager  *session.Manager
	log      *slog.Logger
	upgrader websocket.Upgrader
	server   *http.Server
	wg       sync.WaitGroup
}

func NewServer(cfg config.Config, manager *session.Manager, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Bind, cfg.HTTP.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("web server failed", slogError(err))
		}
	}()
	s.log.Info("dashboard listening", slog.String("addr", s.server.Addr))
	return nil
}

func (s *Server) Close(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Warn("web shutdown error", slogError(err))
	}
	s.wg.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := dashboardHTML.ReadFile("dashboard.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.manager.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleDownload serves the finalized transcript as the timestamped
// plain-text artifact. An empty transcript has nothing to offer.
func (s *Server) handleDownload(w http.ResponseWriter, _ *http.Request) {
	text := s.manager.Snapshot().Finalized
	if text == "" {
		http.Error(w, "transcript is empty", http.StatusNotFound)
		return
	}
	name := artifact.Filename(time.Now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write([]byte(text))
}

// command is one message from the dashboard over the websocket.
type command struct {
	Type   string                  `json:"type"`
	Path   string                  `json:"path,omitempty"`
	Report *protocol.BrowserReport `json:"report,omitempty"`
}

type snapshotJSON struct {
	Finalized string `json:"finalized"`
	Partial   string `json:"partial"`
	Displayed string `json:"displayed"`
}

// stateMessage is the full render state pushed after every update, in
// place of the old fixed-cadence polling.
type stateMessage struct {
	Type    string       `json:"type"`
	Live    bool         `json:"live"`
	Machine snapshotJSON `json:"machine"`
	Browser snapshotJSON `json:"browser"`
	Error   string       `json:"error,omitempty"`
}

func toJSON(snap transcribe.Snapshot) snapshotJSON {
	return snapshotJSON{Finalized: snap.Finalized, Partial: snap.Partial, Displayed: snap.Displayed}
}

func (s *Server) state(errMsg string) stateMessage {
	return stateMessage{
		Type:    "state",
		Live:    s.manager.LiveActive(),
		Machine: toJSON(s.manager.Snapshot()),
		Browser: toJSON(s.manager.BrowserSnapshot()),
		Error:   errMsg,
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slogError(err))
		return
	}
	defer conn.Close()

	// Gorilla allows one writer at a time; pushes are coalesced through a
	// single-slot kick channel and all writes happen on this goroutine's
	// send path via the mutex below.
	var writeMu sync.Mutex
	send := func(msg stateMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("websocket write failed", slogError(err))
		}
	}

	kick := make(chan struct{}, 1)
	unsubscribe := s.manager.Subscribe(func(protocol.Transcript) {
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-kick:
				send(s.state(""))
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	send(s.state(""))

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		send(s.dispatch(cmd))
	}
}

func (s *Server) dispatch(cmd command) stateMessage {
	switch cmd.Type {
	case "start":
		if _, err := s.manager.StartLive(); err != nil {
			return s.state(userMessage(err))
		}
	case "stop":
		if err := s.manager.StopLive(); err != nil && !errors.Is(err, transcribe.ErrNotActive) {
			return s.state(userMessage(err))
		}
	case "clear":
		s.manager.Clear()
	case "transcribe_file":
		if cmd.Path == "" {
			return s.state("no file path given")
		}
		if _, _, err := s.manager.TranscribeFile(cmd.Path); err != nil {
			return s.state(userMessage(err))
		}
	case "browser_report":
		if cmd.Report != nil {
			s.manager.IngestBrowserReport(*cmd.Report)
		}
	default:
		return s.state(fmt.Sprintf("unknown command %q", cmd.Type))
	}
	return s.state("")
}

// userMessage keeps surfaced errors readable in the dashboard.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
