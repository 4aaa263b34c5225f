package transport

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize       = 8
	aleaSize       = 16
	nonce2Size     = 16
	nonceSize      = 8
	sessionKeySize = 16

	// pbkdfIterations is fixed at 1024: K = PBKDF2-HMAC-SHA256(password,
	// salt, 1024, 16).
	pbkdfIterations = 1024
)

// AuthPhase is a connection's position in the five-message handshake:
// AUTH_INIT, AUTH_SEND_SALT, AUTH_KEY_EXCHANGE, AUTH_KEY_REPLY, then
// AUTHENTICATED.
type AuthPhase int

const (
	PhaseNone AuthPhase = iota
	PhaseInit
	PhaseSendSalt
	PhaseKeyExchange
	PhaseKeyReply
	PhaseAuthenticated
)

var handshakeOrder = map[AuthPhase]AuthPhase{
	PhaseNone:        PhaseInit,
	PhaseInit:        PhaseSendSalt,
	PhaseSendSalt:    PhaseKeyExchange,
	PhaseKeyExchange: PhaseKeyReply,
	PhaseKeyReply:    PhaseAuthenticated,
}

// advance validates a phase transition against the fixed handshake
// order and returns the new phase, or ErrBadHandshakeTransition if the
// message arrived out of sequence.
func (p AuthPhase) advance(next AuthPhase) (AuthPhase, error) {
	if handshakeOrder[p] != next {
		return p, ErrBadHandshakeTransition
	}
	return next, nil
}

// Credential is the server-stored handshake key: a random salt and
// K = PBKDF2-HMAC-SHA256(password, salt, 1024, 16), the same value the
// client derives from the password it holds. Storing K instead of the
// password lets the server verify AUTH_KEY_EXCHANGE and derive the
// session key without ever holding the password itself.
type Credential struct {
	Salt [saltSize]byte
	Key  [sessionKeySize]byte
}

// DeriveCredential builds the stored handshake key for a password,
// generating a fresh random salt.
func DeriveCredential(password string) (Credential, error) {
	var c Credential
	if _, err := rand.Read(c.Salt[:]); err != nil {
		return c, err
	}
	copy(c.Key[:], deriveHandshakeKey(password, c.Salt))
	return c, nil
}

// deriveHandshakeKey computes K = PBKDF2-HMAC-SHA256(password, salt,
// 1024, 16), exactly as both sides of AUTH_KEY_EXCHANGE require.
func deriveHandshakeKey(password string, salt [saltSize]byte) []byte {
	return pbkdf2.Key([]byte(password), salt[:], pbkdfIterations, sessionKeySize, sha256.New)
}

// SendSaltMessage is AUTH_SEND_SALT's payload.
type SendSaltMessage struct {
	Salt [saltSize]byte
}

// KeyExchangeMessage is AUTH_KEY_EXCHANGE's payload: the client's
// contribution to the session key, with a MAC proving knowledge of
// the password verifier without sending the password itself.
type KeyExchangeMessage struct {
	Salt   [saltSize]byte
	Alea   [aleaSize]byte
	Nonce2 [nonce2Size]byte
	Nonce  [nonceSize]byte
	MAC    [MACSize]byte
}

// KeyReplyMessage is AUTH_KEY_REPLY's payload: the server's long-lived
// Ed25519 public key, doubling as its challenge to the client, plus
// the entity id assigned to the new connection.
type KeyReplyMessage struct {
	PublicKey [ed25519.PublicKeySize]byte
	EntityID  uint32
}

// BuildKeyExchange derives the client's half of the handshake and the
// session key it implies. The caller sends the returned message and
// keeps the session key for its SessionMAC.
func BuildKeyExchange(password string, salt [saltSize]byte) (KeyExchangeMessage, []byte, error) {
	msg := KeyExchangeMessage{Salt: salt}
	for _, b := range [][]byte{msg.Alea[:], msg.Nonce2[:], msg.Nonce[:]} {
		if _, err := rand.Read(b); err != nil {
			return msg, nil, err
		}
	}
	key := deriveHandshakeKey(password, salt)
	mac := NewSessionMAC(key)
	msg.MAC = mac.Sign(exchangeBody(msg))

	return msg, deriveSessionKey(key, msg), nil
}

func exchangeBody(msg KeyExchangeMessage) []byte {
	body := make([]byte, 0, aleaSize+nonce2Size+nonceSize)
	body = append(body, msg.Alea[:]...)
	body = append(body, msg.Nonce2[:]...)
	body = append(body, msg.Nonce[:]...)
	return body
}

// deriveSessionKey derives the per-session MAC/signature key from K
// and the handshake's alea/nonce2 contribution by keying HMAC-SHA256
// with K, the same substitution the running session MAC itself makes.
func deriveSessionKey(key []byte, msg KeyExchangeMessage) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg.Alea[:])
	h.Write(msg.Nonce2[:])
	return h.Sum(nil)[:sessionKeySize]
}

// VerifyKeyExchange checks msg's MAC against the stored credential
// and, on success, returns the session key both sides now share.
func VerifyKeyExchange(cred Credential, msg KeyExchangeMessage) ([]byte, error) {
	if subtle.ConstantTimeCompare(cred.Salt[:], msg.Salt[:]) != 1 {
		return nil, fmt.Errorf("transport: salt mismatch: %w", ErrBadMAC)
	}
	mac := NewSessionMAC(cred.Key[:])
	if !mac.Verify(exchangeBody(msg), msg.MAC) {
		return nil, ErrBadMAC
	}
	return deriveSessionKey(cred.Key[:], msg), nil
}

// GenerateServerKeyPair produces the long-lived Ed25519 key pair a
// listener uses to sign outbound authenticated frames.
func GenerateServerKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}
