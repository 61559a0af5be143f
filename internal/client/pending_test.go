package client

import (
	"errors"
	"testing"

	"github.com/danmuck/sockctl/internal/protocol"
	"github.com/danmuck/sockctl/internal/testutil/testlog"
)

func TestPendingSettleDeliversOnce(t *testing.T) {
	testlog.Start(t)

	table := newPendingTable()
	ch := table.add("req.1")

	resp := &protocol.Response{Success: true, RequestID: "req.1"}
	if !table.settle("req.1", resp) {
		t.Fatalf("expected settle to win")
	}
	if table.settle("req.1", resp) {
		t.Fatalf("second settle must be a no-op")
	}
	if table.remove("req.1") {
		t.Fatalf("remove after settle must report the entry gone")
	}

	s := <-ch
	if s.err != nil || s.resp != resp {
		t.Fatalf("unexpected settlement: %+v", s)
	}
}

func TestPendingRemoveBlocksLaterSettle(t *testing.T) {
	testlog.Start(t)

	table := newPendingTable()
	table.add("req.2")

	if !table.remove("req.2") {
		t.Fatalf("expected remove to win")
	}
	if table.settle("req.2", &protocol.Response{}) {
		t.Fatalf("settle after remove must be a no-op")
	}
	if table.len() != 0 {
		t.Fatalf("table not empty: %d", table.len())
	}
}

func TestPendingSettleUnknownID(t *testing.T) {
	testlog.Start(t)

	table := newPendingTable()
	if table.settle("req.unknown", &protocol.Response{}) {
		t.Fatalf("unknown id must not settle")
	}
}

func TestPendingFailAll(t *testing.T) {
	testlog.Start(t)

	table := newPendingTable()
	ch1 := table.add("req.1")
	ch2 := table.add("req.2")

	cause := errors.New("link down")
	table.failAll(cause)

	for _, ch := range []<-chan settlement{ch1, ch2} {
		s := <-ch
		if !errors.Is(s.err, cause) || s.resp != nil {
			t.Fatalf("unexpected settlement: %+v", s)
		}
	}
	if table.len() != 0 {
		t.Fatalf("table not empty after failAll")
	}
}
