package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/sockctl/internal/protocol"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// connManager owns the one physical connection to the well-known path.
// Establishment is serialized under the lock, so concurrent acquires while
// a dial is in flight never open a second connection. A destroyed
// connection is never reused; the next acquire dials fresh.
type connManager struct {
	path        string
	dialTimeout time.Duration
	limits      protocol.Limits

	onLine func([]byte)
	onDown func(error)

	mu     sync.Mutex
	state  connState
	conn   net.Conn
	closed bool
}

func newConnManager(path string, dialTimeout time.Duration, limits protocol.Limits) *connManager {
	return &connManager{
		path:        path,
		dialTimeout: dialTimeout,
		limits:      limits,
	}
}

// acquire returns the live connection, dialing one if absent. On dial
// failure no connection is stored.
func (m *connManager) acquire() (net.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClientClosed
	}
	if m.state == stateConnected {
		return m.conn, nil
	}

	m.state = stateConnecting
	conn, err := net.DialTimeout("unix", m.path, m.dialTimeout)
	if err != nil {
		m.state = stateDisconnected
		return nil, fmt.Errorf("%w: %s: %s", ErrConnectFailed, m.path, err)
	}

	m.conn = conn
	m.state = stateConnected
	log.Debug().Str("socket", m.path).Msg("connected")
	go m.readLoop(conn)
	return conn, nil
}

// readLoop reassembles inbound bytes into lines and forwards each complete
// line. Any read or framing error destroys the connection and fans the
// failure out through onDown.
func (m *connManager) readLoop(conn net.Conn) {
	buf := protocol.NewLineBuffer(m.limits)
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			lines, ferr := buf.Feed(chunk[:n])
			for _, line := range lines {
				if m.onLine != nil {
					m.onLine(line)
				}
			}
			if ferr != nil {
				m.drop(conn, ferr)
				return
			}
		}
		if err != nil {
			m.drop(conn, err)
			return
		}
	}
}

// drop destroys conn if it is still the current connection and reports the
// cause. A stale conn (already replaced) is closed silently.
func (m *connManager) drop(conn net.Conn, cause error) {
	m.mu.Lock()
	current := m.conn == conn
	if current {
		m.conn = nil
		m.state = stateDisconnected
	}
	m.mu.Unlock()

	_ = conn.Close()
	if !current {
		return
	}
	log.Debug().Str("socket", m.path).Err(cause).Msg("connection down")
	if m.onDown != nil {
		m.onDown(cause)
	}
}

// close permanently shuts the manager down. Closing the live connection
// makes its read loop run the usual failure fan-out.
func (m *connManager) close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
