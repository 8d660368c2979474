package daemon

import (
	"net"
	"os"
	"time"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/paths"
)

// New returns a Client that uses the daemon at socketPath if it answers,
// otherwise a LocalClient reading settingsPath. An empty socketPath uses the
// default socket.
//
// Callers don't need to know whether the daemon is running or not. The same
// API works in both modes.
func New(socketPath, settingsPath string) Client {
	if client, err := Connect(socketPath); err == nil {
		return client
	}
	return NewLocalClient(settingsPath)
}

// Connect returns a RemoteClient, or DAEMON_NOT_RUNNING if nothing listens
// on the socket.
func Connect(socketPath string) (*RemoteClient, error) {
	if socketPath == "" {
		socketPath = paths.SocketPath()
	}
	if _, err := os.Stat(socketPath); err != nil {
		return nil, kferrors.New(kferrors.ErrCodeDaemonNotRunning, "keyflow daemon is not running; start it with 'keyflow start'").
			WithDetail("socket", socketPath)
	}
	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeDaemonNotRunning, "keyflow daemon is not responding").
			WithDetail("socket", socketPath)
	}
	conn.Close()
	return NewRemoteClient(socketPath)
}
