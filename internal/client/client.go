package client

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/sockctl/internal/protocol"
)

// Config defines client connection and request defaults.
type Config struct {
	SocketPath     string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Limits         protocol.Limits
}

func DefaultConfig() Config {
	return Config{
		SocketPath:     "/tmp/sockctld.sock",
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
		Limits:         protocol.DefaultLimits(),
	}
}

// Client multiplexes logical requests over one shared socket connection.
// Replies are correlated by request id: the server echoes the id it was
// sent and the matching pending entry settles. Inbound lines without a
// pending id (the welcome banner, legacy acks) are logged and dropped.
type Client struct {
	cfg      Config
	instance string
	seq      atomic.Uint64
	conns    *connManager
	pending  *pendingTable
}

// New builds a client. No connection is opened until the first Send.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.SocketPath) == "" {
		cfg.SocketPath = def.SocketPath
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Limits.MaxLineBytes <= 0 {
		cfg.Limits = def.Limits
	}

	c := &Client{
		cfg:      cfg,
		instance: uuid.NewString()[:8],
		pending:  newPendingTable(),
	}
	c.conns = newConnManager(cfg.SocketPath, cfg.ConnectTimeout, cfg.Limits)
	c.conns.onLine = c.handleLine
	c.conns.onDown = c.handleDown
	return c
}

// Send issues one command and blocks until the reply, the request timeout,
// ctx cancellation, or a connection failure, whichever settles it first.
// The returned response may itself carry success=false; transport-level
// failures come back as errors instead.
func (c *Client) Send(ctx context.Context, command string, data map[string]any) (*protocol.Response, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("client: command required")
	}

	id := fmt.Sprintf("req.%s.%d", c.instance, c.seq.Add(1))
	line, err := protocol.EncodeLine(protocol.Request{
		Command:   command,
		RequestID: id,
		Data:      data,
	})
	if err != nil {
		return nil, err
	}

	conn, err := c.conns.acquire()
	if err != nil {
		return nil, err
	}

	// Register before writing so a reply racing the write cannot miss.
	ch := c.pending.add(id)
	if _, err := conn.Write(line); err != nil {
		c.pending.remove(id)
		c.conns.drop(conn, err)
		return nil, fmt.Errorf("%w: write: %s", ErrConnectionClosed, err)
	}
	log.Debug().Str("request_id", id).Str("command", command).Msg("request sent")

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case s := <-ch:
		return s.resp, s.err
	case <-timer.C:
		if !c.pending.remove(id) {
			// The reply won the race; take it.
			s := <-ch
			return s.resp, s.err
		}
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, id, c.cfg.RequestTimeout)
	case <-ctx.Done():
		if !c.pending.remove(id) {
			s := <-ch
			return s.resp, s.err
		}
		return nil, ctx.Err()
	}
}

// Pending reports the number of in-flight requests, mainly for tests.
func (c *Client) Pending() int {
	return c.pending.len()
}

// Close tears the connection down and fails every pending request with
// ErrConnectionClosed. It is the only way to abandon all in-flight
// requests at once.
func (c *Client) Close() error {
	return c.conns.close()
}

func (c *Client) handleLine(line []byte) {
	resp, err := protocol.DecodeResponse(line)
	if err != nil {
		log.Debug().Err(err).Msg("discarding unparseable line")
		return
	}
	if resp.RequestID == "" || !c.pending.settle(resp.RequestID, &resp) {
		log.Debug().Str("request_id", resp.RequestID).Msg("discarding unmatched line")
	}
}

func (c *Client) handleDown(cause error) {
	c.pending.failAll(fmt.Errorf("%w: %s", ErrConnectionClosed, cause))
}
