package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"sync"
)

// SessionMAC authenticates client-originated frames with a short,
// counter-salted HMAC: HMAC-SHA256 truncated to MACSize, keyed by the
// session key derived during the handshake, with a monotonic 16-byte
// counter folded into every tag to prevent replay. The counter rolls
// back by one on a verify failure, so a rejected frame (such as a
// duplicate delivery of the last one) does not desynchronize the
// counter for the frames that follow.
type SessionMAC struct {
	mu      sync.Mutex
	key     []byte
	counter [16]byte
}

// NewSessionMAC builds a SessionMAC over a derived session key.
func NewSessionMAC(key []byte) *SessionMAC {
	return &SessionMAC{key: append([]byte(nil), key...)}
}

func incrementCounter(c *[16]byte) {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]++
		if c[i] != 0 {
			return
		}
	}
}

func decrementCounter(c *[16]byte) {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]--
		if c[i] != 0xff {
			return
		}
	}
}

func (m *SessionMAC) tagLocked(body []byte) [MACSize]byte {
	h := hmac.New(sha256.New, m.key)
	h.Write(m.counter[:])
	h.Write(body)
	sum := h.Sum(nil)
	var out [MACSize]byte
	copy(out[:], sum[:MACSize])
	return out
}

// Sign advances the counter and returns the MAC over body.
func (m *SessionMAC) Sign(body []byte) [MACSize]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	incrementCounter(&m.counter)
	return m.tagLocked(body)
}

// Verify advances the counter and checks tag against body. On
// mismatch the counter is rolled back by one, so the next call
// verifies against the same counter position.
func (m *SessionMAC) Verify(body []byte, tag [MACSize]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	incrementCounter(&m.counter)
	want := m.tagLocked(body)
	if hmac.Equal(want[:], tag[:]) {
		return true
	}
	decrementCounter(&m.counter)
	return false
}
