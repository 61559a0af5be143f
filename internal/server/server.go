package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Server binds the dispatcher to a unix socket at a well-known path and
// serves one goroutine per accepted connection.
type Server struct {
	name       string
	socketPath string
	dispatcher *Dispatcher
}

func NewServer(name, socketPath string, dispatcher *Dispatcher) *Server {
	return &Server{
		name:       name,
		socketPath: strings.TrimSpace(socketPath),
		dispatcher: dispatcher,
	}
}

// Serve listens until ctx is canceled. A stale socket file left by a
// previous run is removed before bind and the live one on the way out.
func (s *Server) Serve(ctx context.Context) error {
	if s.socketPath == "" {
		return fmt.Errorf("server: socket path required")
	}
	if err := removeStaleSocket(s.socketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.socketPath, err)
	}
	defer ln.Close()
	defer os.Remove(s.socketPath)
	log.Info().Str("socket", s.socketPath).Str("server", s.name).Msg("listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.dispatcher.HandleConn(conn)
	}
}

func removeStaleSocket(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("server: remove stale socket %s: %w", path, err)
}
