package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/sockctl/internal/command"
	"github.com/danmuck/sockctl/internal/observability"
	"github.com/danmuck/sockctl/internal/protocol"
)

const codeOK = "OK"

// Dispatcher runs the per-connection loop: read one line, route it through
// the registry, write one reply. Requests on one connection are processed
// strictly in arrival order; connections never share state beyond the
// registry and whatever the handlers guard themselves.
type Dispatcher struct {
	name     string
	registry *command.Registry
	limits   protocol.Limits
	active   atomic.Int64
}

func NewDispatcher(name string, registry *command.Registry, limits protocol.Limits) *Dispatcher {
	if limits.MaxLineBytes <= 0 {
		limits = protocol.DefaultLimits()
	}
	return &Dispatcher{
		name:     name,
		registry: registry,
		limits:   limits,
	}
}

// ActiveConnections reports how many connections are currently served.
func (d *Dispatcher) ActiveConnections() int64 {
	return d.active.Load()
}

// HandleConn serves one accepted connection until EOF or I/O error. A
// failure here never affects other connections or shared handler state.
func (d *Dispatcher) HandleConn(conn net.Conn) {
	defer conn.Close()

	remote := remoteName(conn)
	active := d.active.Add(1)
	observability.ConnectionOpened(d.name)
	log.Info().Str("remote", remote).Int64("active", active).Msg("client connected")
	defer func() {
		remaining := d.active.Add(-1)
		observability.ConnectionClosed(d.name)
		log.Info().Str("remote", remote).Int64("active", remaining).Msg("client disconnected")
	}()

	if err := d.writeResponse(conn, d.welcome()); err != nil {
		log.Warn().Str("remote", remote).Err(err).Msg("welcome write failed")
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), d.limits.MaxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		resp := d.DispatchLine(line)
		if err := d.writeResponse(conn, resp); err != nil {
			log.Warn().Str("remote", remote).Err(err).Msg("reply write failed")
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Str("remote", remote).Err(err).Msg("connection read failed")
	}
}

// DispatchLine maps one framed line to exactly one response envelope.
func (d *Dispatcher) DispatchLine(line []byte) protocol.Response {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		if !protocol.LooksLikeJSON(line) {
			// Legacy plain-text clients still get an acknowledgement
			// instead of an error. Suspect behavior, kept for backward
			// compatibility with pre-envelope peers.
			return protocol.NewSuccess("", map[string]any{
				"message":  "acknowledged",
				"received": strings.TrimSpace(string(line)),
			}, time.Now())
		}
		return protocol.NewError("", protocol.CodeInvalidJSON, err.Error(), time.Now())
	}

	if err := req.Validate(); err != nil {
		return protocol.NewError(req.RequestID, protocol.CodeInvalidRequest, err.Error(), time.Now())
	}

	entry, ok := d.registry.Resolve(req.Command)
	if !ok {
		return protocol.NewError(req.RequestID, protocol.CodeUnknownCommand,
			fmt.Sprintf("unknown command %q", req.Command), time.Now())
	}

	start := time.Now()
	data, err := invoke(entry, req.Data)
	code := codeOK
	if err != nil {
		code = command.CodeOf(err)
	}
	observability.RecordCommand(d.name, req.Command, code, time.Since(start))

	if err != nil {
		log.Debug().
			Str("command", req.Command).
			Str("code", code).
			Err(err).
			Msg("command failed")
		return protocol.NewError(req.RequestID, code, errorMessage(err), time.Now())
	}
	return protocol.NewSuccess(req.RequestID, data, time.Now())
}

// invoke runs one handler, converting a panic into an ordinary error so a
// misbehaving handler cannot take the connection loop down.
func invoke(entry command.Entry, data map[string]any) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("handler %s panicked: %v", entry.Name, r)
		}
	}()
	if data == nil {
		data = map[string]any{}
	}
	return entry.Handler(data)
}

func (d *Dispatcher) writeResponse(conn net.Conn, resp protocol.Response) error {
	line, err := protocol.EncodeLine(resp)
	if err != nil {
		// Handler output that cannot be serialized still yields a reply.
		fallback := protocol.NewError(resp.RequestID, protocol.CodeProcessingError,
			"response serialization failed: "+err.Error(), time.Now())
		line, err = protocol.EncodeLine(fallback)
		if err != nil {
			return err
		}
	}
	_, err = conn.Write(line)
	return err
}

func (d *Dispatcher) welcome() protocol.Response {
	return protocol.NewSuccess("", map[string]any{
		"message": "connected to " + d.name,
		"server":  d.name,
	}, time.Now())
}

func errorMessage(err error) string {
	var domain *command.Error
	if errors.As(err, &domain) {
		return domain.Message
	}
	return err.Error()
}

func remoteName(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" && addr.String() != "@" {
		return addr.String()
	}
	return conn.LocalAddr().Network()
}
