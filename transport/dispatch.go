package transport

import "github.com/trillek-sim/corebox/scheduler"

// Side distinguishes which end of a connection a Handler runs on, so
// the same (major, minor) pair can carry different payloads in each
// direction: AUTH_KEY_EXCHANGE is handled SERVER-side, AUTH_KEY_REPLY
// is handled CLIENT-side.
type Side int

const (
	SideServer Side = iota
	SideClient
)

// Handler processes one decoded frame arriving on conn.
type Handler func(conn *Conn, f *Frame) error

type dispatchKey struct {
	major byte
	minor byte
	side  Side
}

// Dispatcher routes decoded frames to registered handlers by
// (major, minor, side), queuing each onto a scheduler.Pool so handler
// execution is bound by the same concurrency cap as the rest of the
// simulation.
type Dispatcher struct {
	pool     *scheduler.Pool
	handlers map[dispatchKey]Handler
}

// NewDispatcher builds a Dispatcher that queues handler invocations
// onto pool.
func NewDispatcher(pool *scheduler.Pool) *Dispatcher {
	return &Dispatcher{pool: pool, handlers: make(map[dispatchKey]Handler)}
}

// Register binds h to frames matching (major, minor, side). A later
// Register for the same key replaces the earlier handler.
func (d *Dispatcher) Register(major, minor byte, side Side, h Handler) {
	d.handlers[dispatchKey{major, minor, side}] = h
}

// Dispatch looks up the handler for f on the given side and queues it
// onto the pool. Frames with no registered handler are dropped.
func (d *Dispatcher) Dispatch(conn *Conn, f *Frame, side Side) {
	h, ok := d.handlers[dispatchKey{f.Major, f.Minor, side}]
	if !ok {
		return
	}
	d.pool.QueueFunc(func() scheduler.Status {
		_ = h(conn, f)
		return scheduler.Stop
	}, 0)
}
