package transport

import (
	"crypto/ed25519"
	"net"

	"github.com/trillek-sim/corebox/store"
)

// Session is the client-side handle to an authenticated connection:
// the raw socket, the entity id the server assigned, and the MAC used
// to sign outbound frames.
type Session struct {
	conn *Conn
	pub  []byte // server's pinned Ed25519 public key, verified during the handshake
}

// ID returns the entity id this session was assigned.
func (s *Session) ID() store.EntityID { return s.conn.ID() }

// ServerPublicKey returns the pinned Ed25519 public key the server's
// AUTH_KEY_REPLY signature was verified against.
func (s *Session) ServerPublicKey() []byte { return s.pub }

// Conn returns the underlying authenticated connection, for sending
// further frames signed with the session MAC.
func (s *Session) Conn() *Conn { return s.conn }

// Handshake drives the client side of the five-message handshake over
// an already-dialed connection: AUTH_INIT → (read) AUTH_SEND_SALT →
// AUTH_KEY_EXCHANGE → (read) AUTH_KEY_REPLY. serverPubKey is the
// preconfigured public key the caller already trusts for this server;
// AUTH_KEY_REPLY's signature is verified against it, never against a
// key read from the reply itself, so a rogue server cannot simply
// substitute its own keypair and sign its own reply.
func Handshake(raw net.Conn, login, password string, serverPubKey ed25519.PublicKey) (*Session, error) {
	conn := NewConn(raw)
	conn.login = login

	if !conn.TryAdvance(PhaseInit) {
		return nil, ErrBadHandshakeTransition
	}
	initFrame := &Frame{Major: MajorNet, Minor: MinorAuthInit, Body: []byte(login), Trailer: TrailerMAC}
	if err := sendUnauthenticated(conn, initFrame); err != nil {
		return nil, err
	}

	saltFrame, err := NewReassembler(raw, TrailerMAC, MaxUnauthenticatedFrameSize).ReadFrame()
	if err != nil {
		return nil, err
	}
	if saltFrame.Major != MajorNet || saltFrame.Minor != MinorAuthSendSalt {
		return nil, ErrBadHandshakeTransition
	}
	if !conn.TryAdvance(PhaseSendSalt) {
		return nil, ErrBadHandshakeTransition
	}
	var salt [saltSize]byte
	copy(salt[:], saltFrame.Body)

	msg, sessionKey, err := BuildKeyExchange(password, salt)
	if err != nil {
		return nil, err
	}
	exchangeFrame := &Frame{
		Major: MajorNet, Minor: MinorAuthKeyExchange,
		Body: encodeKeyExchange(msg), Trailer: TrailerMAC, MAC: msg.MAC,
	}
	if err := sendUnauthenticated(conn, exchangeFrame); err != nil {
		return nil, err
	}

	replyFrame, err := NewReassembler(raw, TrailerSignature, MaxUnauthenticatedFrameSize).ReadFrame()
	if err != nil {
		return nil, err
	}
	if replyFrame.Major != MajorNet || replyFrame.Minor != MinorAuthKeyReply {
		return nil, ErrBadHandshakeTransition
	}
	if !conn.TryAdvance(PhaseKeyExchange) {
		return nil, ErrBadHandshakeTransition
	}
	if !conn.TryAdvance(PhaseKeyReply) {
		return nil, ErrBadHandshakeTransition
	}

	if !VerifyServer(serverPubKey, replyFrame.Body, replyFrame.Signature) {
		return nil, ErrBadSignature
	}
	if !conn.Authenticate(store.EntityID(replyFrame.EntityID), sessionKey) {
		return nil, ErrBadHandshakeTransition
	}

	return &Session{conn: conn, pub: append([]byte(nil), serverPubKey...)}, nil
}
