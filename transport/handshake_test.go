package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandshakeDerivesMatchingSessionKeyOnBothSides(t *testing.T) {
	cred, err := DeriveCredential("hunter2")
	require.NoError(t, err)

	msg, clientKey, err := BuildKeyExchange("hunter2", cred.Salt)
	require.NoError(t, err)

	serverKey, err := VerifyKeyExchange(cred, msg)
	require.NoError(t, err)
	require.Equal(t, clientKey, serverKey)
}

func TestHandshakeRejectsWrongPassword(t *testing.T) {
	cred, err := DeriveCredential("hunter2")
	require.NoError(t, err)

	msg, _, err := BuildKeyExchange("wrong-password", cred.Salt)
	require.NoError(t, err)

	_, err = VerifyKeyExchange(cred, msg)
	require.ErrorIs(t, err, ErrBadMAC)
}

func TestHandshakeRejectsSaltMismatch(t *testing.T) {
	cred, err := DeriveCredential("hunter2")
	require.NoError(t, err)

	var wrongSalt [saltSize]byte
	copy(wrongSalt[:], "deadbeef")
	msg, _, err := BuildKeyExchange("hunter2", wrongSalt)
	require.NoError(t, err)

	_, err = VerifyKeyExchange(cred, msg)
	require.Error(t, err)
}

func TestAuthPhaseAdvanceEnforcesOrder(t *testing.T) {
	p := PhaseNone
	var err error

	p, err = p.advance(PhaseInit)
	require.NoError(t, err)
	require.Equal(t, PhaseInit, p)

	p, err = p.advance(PhaseSendSalt)
	require.NoError(t, err)

	_, err = p.advance(PhaseKeyReply)
	require.ErrorIs(t, err, ErrBadHandshakeTransition)
}

func TestGenerateServerKeyPairProducesUsableKeys(t *testing.T) {
	pub, priv, err := GenerateServerKeyPair()
	require.NoError(t, err)
	require.Len(t, pub, 32)

	sig := SignServer(priv, []byte("payload"))
	require.True(t, VerifyServer(pub, []byte("payload"), sig))
}
