// Package server provides the control API of the keyflow daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/internal/daemon/store"
	"github.com/grovetools/keyflow/pkg/daemon"
	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/models"
)

// Backend is the part of the engine the API drives.
type Backend interface {
	Store() *store.Store
	Groups() []models.Group
	Signal(sig enginestate.Signal) (enginestate.Change, bool)
	SetState(state models.EngineState) (enginestate.Change, bool)
	RunWorkflow(idOrName string) (*models.Workflow, *dispatch.Task, error)
	Reveal(ctx context.Context, idOrName string) error
	Reload() error
	LastExecuted() (dispatch.Executed, bool)
	ListShortcuts(ctx context.Context) ([]string, error)
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger   *logrus.Entry
	server   *http.Server
	backend  Backend
	upgrader websocket.Upgrader
}

// New creates a new Server instance.
func New(logger *logrus.Entry, backend Backend) *Server {
	return &Server{
		logger:  logger,
		backend: backend,
		upgrader: websocket.Upgrader{
			// Only local clients can reach the socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/workflows", s.handleWorkflows)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/reveal", s.handleReveal)
	mux.HandleFunc("/api/reload", s.handleReload)
	mux.HandleFunc("/api/last-command", s.handleLastCommand)
	mux.HandleFunc("/api/shortcuts", s.handleShortcuts)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/recording", s.handleRecording)
	return mux
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports err with a status derived from its code.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, kferrors.HTTPStatus(err), kferrors.Flatten(err))
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// handleState returns the daemon state on GET and changes the engine state on POST.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.backend.Store().Get())

	case http.MethodPost:
		var req daemon.StateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, "invalid request body"))
			return
		}

		var (
			change  enginestate.Change
			changed bool
		)
		switch {
		case req.State != "" && req.Signal != "":
			writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, "set either state or signal"))
			return
		case req.State != "":
			if !req.State.Valid() {
				writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("unknown state '%s'", req.State)))
				return
			}
			change, changed = s.backend.SetState(req.State)
		case req.Signal != "":
			sig, ok := parseSignal(req.Signal)
			if !ok {
				writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("unknown signal '%s'", req.Signal)))
				return
			}
			change, changed = s.backend.Signal(sig)
		default:
			writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, "set either state or signal"))
			return
		}

		s.logger.WithFields(logrus.Fields{"from": change.From, "to": change.To}).Debug("State requested")
		writeJSON(w, http.StatusOK, daemon.StateChange{From: change.From, To: change.To, Changed: changed})

	default:
		methodNotAllowed(w)
	}
}

func parseSignal(s string) (enginestate.Signal, bool) {
	switch sig := enginestate.Signal(s); sig {
	case enginestate.SignalEnable, enginestate.SignalDisable, enginestate.SignalToggle,
		enginestate.SignalStartRecording, enginestate.SignalStopRecording:
		return sig, true
	}
	return "", false
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	workflows := daemon.Summarize(s.backend.Groups())
	if workflows == nil {
		workflows = []daemon.WorkflowInfo{}
	}
	writeJSON(w, http.StatusOK, workflows)
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (daemon.RunRequest, bool) {
	var req daemon.RunRequest
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Workflow == "" {
		writeError(w, kferrors.New(kferrors.ErrCodeInvalidInput, "a workflow is required"))
		return req, false
	}
	return req, true
}

// handleRun starts a workflow and returns without waiting for it.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRunRequest(w, r)
	if !ok {
		return
	}
	wf, task, err := s.backend.RunWorkflow(req.Workflow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, daemon.RunResponse{Workflow: wf.ID, Name: wf.Name, Task: task.ID()})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRunRequest(w, r)
	if !ok {
		return
	}
	if err := s.backend.Reveal(r.Context(), req.Workflow); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.backend.Reload(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLastCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	executed, ok := s.backend.LastExecuted()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, executed)
}

func (s *Server) handleShortcuts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	names, err := s.backend.ListShortcuts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// handleStream provides Server-Sent Events (SSE) for real-time updates.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	st := s.backend.Store()
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE client connected")

	// The current engine state goes first so the client has data right away.
	if data, err := json.Marshal(eventFor(store.Update{Type: store.UpdateEngineState, Payload: st.Get().EngineState})); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			event := eventFor(update)
			if event == nil {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal update")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// eventFor converts a store update to its wire form. Updates that carry
// nothing a client can use return nil.
func eventFor(u store.Update) *daemon.Event {
	switch u.Type {
	case store.UpdateEngineState, store.UpdateRecorded, store.UpdateExecuted, store.UpdateQuickRun,
		store.UpdateConfigReload, store.UpdateApplications, store.UpdateIndex,
		store.UpdateTap, store.UpdatePermission:
	default:
		return nil
	}
	data, err := json.Marshal(u.Payload)
	if err != nil {
		return nil
	}
	return &daemon.Event{Type: string(u.Type), Source: u.Source, Data: data}
}

// handleRecording streams recorded shortcuts over a websocket. With
// ?start=true the engine enters recording for the lifetime of the
// connection. A client message {"action":"stop"} or closing the socket
// ends it.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	st := s.backend.Store()
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	started := r.URL.Query().Get("start") == "true"
	if started {
		s.backend.Signal(enginestate.SignalStartRecording)
		defer s.backend.Signal(enginestate.SignalStopRecording)
	}

	// The read side only watches for stop requests and disconnects.
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for {
			var msg struct {
				Action string `json:"action"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Action == "stop" {
				return
			}
		}
	}()

	s.logger.WithField("start", started).Debug("Recording client connected")
	if event := eventFor(store.Update{Type: store.UpdateEngineState, Payload: st.Get().EngineState}); event != nil {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}

	for {
		select {
		case <-stop:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-r.Context().Done():
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			if update.Type != store.UpdateRecorded && update.Type != store.UpdateEngineState {
				continue
			}
			event := eventFor(update)
			if event == nil {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.WithError(err).Debug("Recording client write failed")
				return
			}
		}
	}
}
