package client

import (
	"sync"

	"github.com/danmuck/sockctl/internal/protocol"
)

// settlement is the single terminal outcome of one pending request.
type settlement struct {
	resp *protocol.Response
	err  error
}

// pendingTable tracks in-flight requests by request id. Settlement and
// removal are one atomic step under the table lock, so a reply, a timeout,
// and a connection failure can race and exactly one of them wins.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]chan settlement
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[string]chan settlement)}
}

// add registers id and returns the channel its settlement arrives on.
func (t *pendingTable) add(id string) <-chan settlement {
	ch := make(chan settlement, 1)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = ch
	return ch
}

// settle resolves id with resp. Returns false if id is not pending, which
// covers unmatched replies and entries already settled or abandoned.
func (t *pendingTable) settle(id string, resp *protocol.Response) bool {
	t.mu.Lock()
	ch, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- settlement{resp: resp}
	return true
}

// remove abandons id. Returns false if a settlement won the race, in which
// case the caller must read it from the channel instead.
func (t *pendingTable) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// failAll rejects every pending entry with err. Used on connection error
// and close so no caller is left waiting on a dead connection.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]chan settlement)
	t.mu.Unlock()
	for _, ch := range entries {
		ch <- settlement{err: err}
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
