package transport

import "crypto/ed25519"

// SignServer signs body with the server's long-lived private key,
// producing the trailer carried on server→client authenticated
// frames. The 32-byte Ed25519 public key matches the wire format's
// pubkey[32] field exactly, so only the trailer length constant
// changed, not the handshake's key exchange shape.
func SignServer(priv ed25519.PrivateKey, body []byte) [SignatureSize]byte {
	var out [SignatureSize]byte
	copy(out[:], ed25519.Sign(priv, body))
	return out
}

// VerifyServer checks a server signature trailer against body.
func VerifyServer(pub ed25519.PublicKey, body []byte, sig [SignatureSize]byte) bool {
	return ed25519.Verify(pub, body, sig[:])
}
