package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/sockctl/internal/config"
	"github.com/danmuck/sockctl/internal/protocol"
	"github.com/danmuck/sockctl/internal/testutil/testlog"
)

func startService(t *testing.T) (string, *Service, context.CancelFunc) {
	t.Helper()

	cfg := config.DefaultServerConfig()
	cfg.Name = "test-server"
	cfg.SocketPath = filepath.Join(t.TempDir(), "s.sock")

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.RunContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("service run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("service did not stop")
		}
	})

	waitForSocket(t, cfg.SocketPath)
	return cfg.SocketPath, svc, cancel
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}

func dialAndWelcome(t *testing.T, path string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	welcome, err := protocol.DecodeResponse(line)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if !welcome.Success || welcome.Data["server"] != "test-server" {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	return conn, reader
}

func readResponse(t *testing.T, reader *bufio.Reader) protocol.Response {
	t.Helper()
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	resp, err := protocol.DecodeResponse(line)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return resp
}

func TestServeRoundTrip(t *testing.T) {
	testlog.Start(t)
	path, _, _ := startService(t)
	conn, reader := dialAndWelcome(t, path)

	if _, err := conn.Write([]byte(`{"command":"ping","request_id":"req.1"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp := readResponse(t, reader)
	if !resp.Success || resp.Data["status"] != "ok" {
		t.Fatalf("unexpected ping reply: %+v", resp)
	}
	if resp.RequestID != "req.1" {
		t.Fatalf("request_id not echoed: %q", resp.RequestID)
	}
}

func TestServeRepliesInArrivalOrder(t *testing.T) {
	testlog.Start(t)
	path, _, _ := startService(t)
	conn, reader := dialAndWelcome(t, path)

	// Three requests written back to back, no awaiting between sends.
	batch := `{"command":"echo","request_id":"req.1","data":{"message":"1"}}` + "\n" +
		`{"command":"echo","request_id":"req.2","data":{"message":"2"}}` + "\n" +
		`{"command":"echo","request_id":"req.3","data":{"message":"3"}}` + "\n"
	if _, err := conn.Write([]byte(batch)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []string{"1", "2", "3"} {
		resp := readResponse(t, reader)
		if !resp.Success || resp.Data["echo"] != want {
			t.Fatalf("expected echo %q, got %+v", want, resp)
		}
	}
}

func TestServeStorageAcrossConnections(t *testing.T) {
	testlog.Start(t)
	path, svc, _ := startService(t)

	conn1, reader1 := dialAndWelcome(t, path)
	if _, err := conn1.Write([]byte(`{"command":"store","request_id":"req.1","data":{"key":"a","value":1}}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if resp := readResponse(t, reader1); !resp.Success {
		t.Fatalf("store failed: %+v", resp.Error)
	}
	conn1.Close()

	conn2, reader2 := dialAndWelcome(t, path)
	if _, err := conn2.Write([]byte(`{"command":"retrieve","request_id":"req.2","data":{"key":"a"}}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp := readResponse(t, reader2)
	if !resp.Success || resp.Data["value"] != 1.0 {
		t.Fatalf("unexpected retrieve reply: %+v", resp)
	}
	if svc.Store().Len() != 1 {
		t.Fatalf("expected one stored entry")
	}
}

func TestServeBadLinesKeepConnectionOpen(t *testing.T) {
	testlog.Start(t)
	path, _, _ := startService(t)
	conn, reader := dialAndWelcome(t, path)

	if _, err := conn.Write([]byte("{\"command\": broken\nhello there\n{\"command\":\"ping\",\"request_id\":\"req.3\"}\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readResponse(t, reader)
	if resp.Success || resp.Error.Code != protocol.CodeInvalidJSON {
		t.Fatalf("expected INVALID_JSON, got %+v", resp)
	}
	resp = readResponse(t, reader)
	if !resp.Success || resp.Data["received"] != "hello there" {
		t.Fatalf("expected plain-text ack, got %+v", resp)
	}
	resp = readResponse(t, reader)
	if !resp.Success || resp.RequestID != "req.3" {
		t.Fatalf("connection should survive bad lines, got %+v", resp)
	}
}

func TestServeRemovesStaleSocket(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "s.sock")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatalf("plant stale socket: %v", err)
	}

	cfg := config.DefaultServerConfig()
	cfg.Name = "test-server"
	cfg.SocketPath = path
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunContext(ctx) }()
	waitForSocket(t, path)

	conn, _ := dialAndWelcome(t, path)
	conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not stop")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("socket file not removed on shutdown: %v", err)
	}
}
