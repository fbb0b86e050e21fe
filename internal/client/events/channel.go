package events

import "sync"

// DefaultSoftLimit is the queue length above which superseded snapshots
// start to coalesce.
const DefaultSoftLimit = 16

// Channel is a single-writer, single-reader queue between one producer run
// and the UI. Send never blocks. When the reader falls behind and the
// queue is over its soft limit, a snapshot replaces the queued snapshot
// directly before it if both report the same live status. Nothing else is
// ever dropped, so ordering and transitions survive.
type Channel struct {
	mu        sync.Mutex
	queue     []Event
	limit     int
	closed    bool
	coalesced uint64
	ready     chan struct{}
}

// NewChannel returns an open Channel. A softLimit below 1 means
// DefaultSoftLimit.
func NewChannel(softLimit int) *Channel {
	if softLimit < 1 {
		softLimit = DefaultSoftLimit
	}
	return &Channel{limit: softLimit, ready: make(chan struct{}, 1)}
}

// Send enqueues e. It reports false once the channel is closed.
func (c *Channel) Send(e Event) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	n := len(c.queue)
	if n >= c.limit && e.Coalescable() {
		tail := c.queue[n-1]
		if tail.Coalescable() && tail.Snapshot.Status == e.Snapshot.Status {
			c.queue[n-1] = e
			c.coalesced++
			c.mu.Unlock()
			c.signal()
			return true
		}
	}

	c.queue = append(c.queue, e)
	c.mu.Unlock()
	c.signal()
	return true
}

// Drain returns every queued event in production order without blocking.
func (c *Channel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return nil
	}
	out := c.queue
	c.queue = nil
	return out
}

// Ready fires after at least one Send or Close since the last receive.
func (c *Channel) Ready() <-chan struct{} { return c.ready }

// Close marks the end of the producer run. Queued events stay drainable.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
}

// Done reports whether the channel is closed and fully drained.
func (c *Channel) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed && len(c.queue) == 0
}

// Coalesced is the number of snapshots replaced so far.
func (c *Channel) Coalesced() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coalesced
}

func (c *Channel) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}
