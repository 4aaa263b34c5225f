package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/trillek-sim/corebox/store"
)

// Conn binds a raw net.Conn to its authentication phase, its
// entity id once assigned, and the MAC/signature state needed to
// authenticate frames in either direction.
//
// The phase is transitioned with a compare-and-swap against the fixed
// handshake order, so exactly one of two racing transition attempts
// wins, and writes to the socket are serialized by a try-lock rather
// than a blocking mutex so a congested peer cannot stall an unrelated
// dispatch goroutine.
type Conn struct {
	raw net.Conn

	phase atomic.Int32

	id store.EntityID

	writeMu sync.Mutex

	mac       *SessionMAC
	serverSig *SessionMAC // unused for client-signed frames; kept nil

	login string
}

// NewConn wraps raw in its initial, unauthenticated phase.
func NewConn(raw net.Conn) *Conn {
	c := &Conn{raw: raw}
	c.phase.Store(int32(PhaseNone))
	return c
}

// Phase returns the connection's current handshake phase.
func (c *Conn) Phase() AuthPhase { return AuthPhase(c.phase.Load()) }

// TryAdvance attempts the phase transition from the connection's
// current phase to next. It reports whether this call won the race —
// exactly one concurrent caller for a given transition receives true,
// mirroring ConnectionData::SetAuthState.
func (c *Conn) TryAdvance(next AuthPhase) bool {
	for {
		cur := AuthPhase(c.phase.Load())
		want, err := cur.advance(next)
		if err != nil {
			return false
		}
		if c.phase.CompareAndSwap(int32(cur), int32(want)) {
			return true
		}
	}
}

// Authenticate finalizes the handshake: stores the entity id and
// session key, then transitions to PhaseAuthenticated.
//
// The fields are written before the phase transition, not after: the
// CAS inside TryAdvance is what publishes this connection as
// authenticated to other goroutines, so ID and MAC must already hold
// their final values by the time it succeeds, or a reader that
// observes the new phase could still see the pre-authentication
// zero/nil state.
func (c *Conn) Authenticate(id store.EntityID, sessionKey []byte) bool {
	c.id = id
	c.mac = NewSessionMAC(sessionKey)
	if !c.TryAdvance(PhaseAuthenticated) {
		c.id = 0
		c.mac = nil
		return false
	}
	return true
}

// ID returns the entity id assigned to this connection. Zero before
// authentication completes.
func (c *Conn) ID() store.EntityID { return c.id }

// MAC returns the session MAC bound to this connection, or nil before
// authentication.
func (c *Conn) MAC() *SessionMAC { return c.mac }

// TryLockWrite attempts to acquire exclusive access to the underlying
// socket for a write. Non-blocking: callers that lose the race should
// queue the frame rather than stall.
func (c *Conn) TryLockWrite() bool { return c.writeMu.TryLock() }

// UnlockWrite releases the write lock acquired by TryLockWrite.
func (c *Conn) UnlockWrite() { c.writeMu.Unlock() }

// Raw returns the underlying net.Conn for reads and direct writes
// once TryLockWrite has succeeded.
func (c *Conn) Raw() net.Conn { return c.raw }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }
