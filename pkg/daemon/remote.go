package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/keytap"
)

// RemoteClient implements Client by calling the daemon's HTTP API over a Unix socket.
type RemoteClient struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteClient creates a new RemoteClient connected to the daemon socket.
func NewRemoteClient(socketPath string) (*RemoteClient, error) {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}

	return &RemoteClient{
		httpClient: client,
		socketPath: socketPath,
	}, nil
}

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

// do sends a request and decodes a JSON response into out when out is non-nil.
// Error responses are turned back into KeyflowErrors.
func (c *RemoteClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return kferrors.Wrap(err, kferrors.ErrCodeDaemonNotRunning, "failed to reach daemon")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr kferrors.KeyflowError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Status returns the daemon state.
func (c *RemoteClient) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetState requests a state change.
func (c *RemoteClient) SetState(ctx context.Context, req StateRequest) (*StateChange, error) {
	var change StateChange
	if err := c.do(ctx, http.MethodPost, "/api/state", req, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// Workflows lists the daemon's loaded workflows.
func (c *RemoteClient) Workflows(ctx context.Context) ([]WorkflowInfo, error) {
	var workflows []WorkflowInfo
	if err := c.do(ctx, http.MethodGet, "/api/workflows", nil, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

// Run starts a workflow.
func (c *RemoteClient) Run(ctx context.Context, workflow string) (*RunResponse, error) {
	var resp RunResponse
	if err := c.do(ctx, http.MethodPost, "/api/run", RunRequest{Workflow: workflow}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reveal shows the targets of a workflow's commands.
func (c *RemoteClient) Reveal(ctx context.Context, workflow string) error {
	return c.do(ctx, http.MethodPost, "/api/reveal", RunRequest{Workflow: workflow}, nil)
}

// Reload asks the daemon to re-read its groups file.
func (c *RemoteClient) Reload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reload", nil, nil)
}

// LastCommand returns the most recent notification-enabled command, or nil
// if none has run yet.
func (c *RemoteClient) LastCommand(ctx context.Context) (*dispatch.Executed, error) {
	var executed *dispatch.Executed
	if err := c.do(ctx, http.MethodGet, "/api/last-command", nil, &executed); err != nil {
		return nil, err
	}
	return executed, nil
}

// Shortcuts lists the saved Shortcuts-app shortcuts.
func (c *RemoteClient) Shortcuts(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/api/shortcuts", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// IsRunning returns true if the daemon is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// StreamEvents subscribes to real-time updates via Server-Sent Events (SSE).
// The channel is closed when the context is cancelled or the connection is lost.
func (c *RemoteClient) StreamEvents(ctx context.Context) (<-chan Event, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	// Streaming needs its own client without a timeout.
	streamTransport := &http.Transport{
		DialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
	}
	streamClient := &http.Client{Transport: streamTransport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeDaemonNotRunning, "failed to connect to stream")
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	ch := make(chan Event, 10)

	go func() {
		defer resp.Body.Close()
		defer close(ch)
		defer streamTransport.CloseIdleConnections()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, ":") || line == "" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Recording is an open recording session.
type Recording struct {
	conn   *websocket.Conn
	keys   chan keytap.Recorded
	states chan string
}

// Keys receives every recorded shortcut. It is closed when the session ends.
func (r *Recording) Keys() <-chan keytap.Recorded { return r.keys }

// States receives engine-state changes seen during the session.
func (r *Recording) States() <-chan string { return r.states }

// Record opens a recording session. When start is true the daemon enters
// recording until the session is stopped.
func (c *RemoteClient) Record(ctx context.Context, start bool) (*Recording, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
		HandshakeTimeout: 5 * time.Second,
	}

	url := "ws://unix/api/recording"
	if start {
		url += "?start=true"
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeDaemonNotRunning, "failed to open recording session")
	}

	keys := make(chan keytap.Recorded, 16)
	states := make(chan string, 4)
	go func() {
		defer close(keys)
		defer close(states)
		for {
			var event Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			switch event.Type {
			case EventRecorded:
				var rec keytap.Recorded
				if err := json.Unmarshal(event.Data, &rec); err != nil {
					continue
				}
				select {
				case keys <- rec:
				case <-ctx.Done():
					return
				}
			case EventEngineState:
				var state string
				if err := json.Unmarshal(event.Data, &state); err != nil {
					continue
				}
				select {
				case states <- state:
				default:
				}
			}
		}
	}()

	return &Recording{conn: conn, keys: keys, states: states}, nil
}

// Stop ends the session. The daemon leaves recording if the session started it.
func (r *Recording) Stop() error {
	_ = r.conn.WriteJSON(map[string]string{"action": "stop"})
	return r.conn.Close()
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure RemoteClient implements Client interface.
var _ Client = (*RemoteClient)(nil)
