package transport

import (
	"encoding/binary"
	"sync"

	"github.com/trillek-sim/corebox/log"
	"github.com/trillek-sim/corebox/store"
)

// CredentialStore is the server's login→Credential table, one entry
// per registered account.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewCredentialStore builds an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]Credential)}
}

// Register derives and stores a credential for login/password.
func (s *CredentialStore) Register(login, password string) error {
	c, err := DeriveCredential(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.creds[login] = c
	s.mu.Unlock()
	return nil
}

func (s *CredentialStore) lookup(login string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[login]
	return c, ok
}

// ServerSession registers the server side of the five-message
// handshake onto a Dispatcher: AUTH_INIT and AUTH_KEY_EXCHANGE, both
// handled SERVER-side.
type ServerSession struct {
	creds    *CredentialStore
	pub      []byte
	priv     []byte
	nextID   store.EntityID
	mu       sync.Mutex
	logger   *log.Logger
}

// NewServerSession wires the handshake handlers onto dispatcher. priv
// signs AUTH_KEY_REPLY.
func NewServerSession(dispatcher *Dispatcher, creds *CredentialStore, pub []byte, priv []byte, logger *log.Logger) *ServerSession {
	if logger == nil {
		logger = log.Root()
	}
	s := &ServerSession{creds: creds, pub: pub, priv: priv, logger: logger}
	dispatcher.Register(MajorNet, MinorAuthInit, SideServer, s.handleAuthInit)
	dispatcher.Register(MajorNet, MinorAuthKeyExchange, SideServer, s.handleKeyExchange)
	return s
}

func (s *ServerSession) handleAuthInit(conn *Conn, f *Frame) error {
	if !conn.TryAdvance(PhaseInit) {
		return ErrBadHandshakeTransition
	}
	login := trimNulls(f.Body)
	cred, ok := s.creds.lookup(login)
	if !ok {
		return ErrBadMAC
	}
	conn.login = login

	if !conn.TryAdvance(PhaseSendSalt) {
		return ErrBadHandshakeTransition
	}
	reply := &Frame{Major: MajorNet, Minor: MinorAuthSendSalt, Body: cred.Salt[:], Trailer: TrailerMAC}
	return sendUnauthenticated(conn, reply)
}

func (s *ServerSession) handleKeyExchange(conn *Conn, f *Frame) error {
	if conn.Phase() != PhaseSendSalt {
		return ErrBadHandshakeTransition
	}
	msg, err := decodeKeyExchange(f.Body)
	if err != nil {
		return err
	}
	msg.MAC = f.MAC
	cred, ok := s.creds.lookup(conn.login)
	if !ok {
		return ErrBadMAC
	}
	sessionKey, err := VerifyKeyExchange(cred, msg)
	if err != nil {
		return err
	}
	if !conn.TryAdvance(PhaseKeyExchange) {
		return ErrBadHandshakeTransition
	}
	if !conn.TryAdvance(PhaseKeyReply) {
		return ErrBadHandshakeTransition
	}

	id := s.allocateID()
	if !conn.Authenticate(id, sessionKey) {
		return ErrBadHandshakeTransition
	}

	var reply KeyReplyMessage
	copy(reply.PublicKey[:], s.pub)
	reply.EntityID = uint32(id)
	frame := &Frame{
		Major: MajorNet, Minor: MinorAuthKeyReply,
		Body:     encodeKeyReply(reply),
		Trailer:  TrailerSignature,
		EntityID: uint32(id),
	}
	frame.Signature = SignServer(s.priv, frame.Body)
	return sendUnauthenticated(conn, frame)
}

func (s *ServerSession) allocateID() store.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func sendUnauthenticated(conn *Conn, f *Frame) error {
	if !conn.TryLockWrite() {
		return ErrQueueClosed
	}
	defer conn.UnlockWrite()
	raw, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = conn.Raw().Write(raw)
	return err
}

func trimNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func decodeKeyExchange(body []byte) (KeyExchangeMessage, error) {
	var msg KeyExchangeMessage
	want := saltSize + aleaSize + nonce2Size + nonceSize
	if len(body) < want {
		return msg, ErrMalformedFrame
	}
	off := 0
	off += copy(msg.Salt[:], body[off:off+saltSize])
	off += copy(msg.Alea[:], body[off:off+aleaSize])
	off += copy(msg.Nonce2[:], body[off:off+nonce2Size])
	off += copy(msg.Nonce[:], body[off:off+nonceSize])
	return msg, nil
}

func encodeKeyExchange(msg KeyExchangeMessage) []byte {
	out := make([]byte, 0, saltSize+aleaSize+nonce2Size+nonceSize)
	out = append(out, msg.Salt[:]...)
	out = append(out, msg.Alea[:]...)
	out = append(out, msg.Nonce2[:]...)
	out = append(out, msg.Nonce[:]...)
	return out
}

func encodeKeyReply(msg KeyReplyMessage) []byte {
	out := make([]byte, 0, len(msg.PublicKey)+4)
	out = append(out, msg.PublicKey[:]...)
	out = binary.LittleEndian.AppendUint32(out, msg.EntityID)
	return out
}
