// Package transport implements the authenticated, length-delimited
// framing layer: wire encode/decode, the five-message session
// handshake, per-session MAC and signature verification, and the
// per-connection reassembly state machine.
package transport

import (
	"crypto/ed25519"
	"encoding/binary"
)

const (
	// headerSize is major(1) + minor(1) + 6 bytes of padding.
	headerSize = 8

	// MACSize is the short per-frame MAC trailer length.
	MACSize = 8

	// SignatureSize is the server-to-client authenticated trailer's
	// signature length.
	SignatureSize = ed25519.SignatureSize

	// MaxMessageSize bounds a single logical message, length field
	// excluded.
	MaxMessageSize = 65535

	// MaxUnauthenticatedFrameSize and MaxAuthenticatedFrameSize are the
	// largest length-field value a Reassembler accepts for one frame in
	// the corresponding phase. A longer frame is rejected with
	// ErrFrameOversize; it is not read across several reads.
	MaxUnauthenticatedFrameSize = 128
	MaxAuthenticatedFrameSize   = 1460

	// restrictedMajorThreshold is the boundary at or above which a
	// major code requires AUTHENTICATED.
	restrictedMajorThreshold = 8
)

// TrailerKind distinguishes the two trailer shapes the wire format
// supports.
type TrailerKind int

const (
	// TrailerMAC is an 8-byte symmetric MAC (client→server, and
	// client→client authenticated frames).
	TrailerMAC TrailerKind = iota
	// TrailerSignature is a signature plus the sender's entity id
	// (server→client authenticated frames).
	TrailerSignature
)

func trailerSize(k TrailerKind) int {
	switch k {
	case TrailerMAC:
		return MACSize
	case TrailerSignature:
		return SignatureSize + 4
	default:
		return 0
	}
}

// Frame is one decoded wire message:
// [u32 length][u8 major][u8 minor][6 bytes padding][body][trailer].
type Frame struct {
	Major byte
	Minor byte
	Body  []byte

	Trailer   TrailerKind
	MAC       [MACSize]byte
	Signature [SignatureSize]byte
	EntityID  uint32
}

// Restricted reports whether this frame's major code requires an
// AUTHENTICATED connection.
func (f *Frame) Restricted() bool { return f.Major >= restrictedMajorThreshold }

// Encode serializes f, little-endian length prefix included. The
// length field excludes itself.
func (f *Frame) Encode() ([]byte, error) {
	bodyLen := headerSize + len(f.Body) + trailerSize(f.Trailer)
	if bodyLen > MaxMessageSize {
		return nil, ErrFrameOversize
	}
	buf := make([]byte, 4+bodyLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(bodyLen))
	buf[4] = f.Major
	buf[5] = f.Minor
	// buf[6:12] is the 6-byte padding, left zero.

	offset := 4 + headerSize
	offset += copy(buf[offset:], f.Body)

	switch f.Trailer {
	case TrailerMAC:
		copy(buf[offset:], f.MAC[:])
	case TrailerSignature:
		offset += copy(buf[offset:], f.Signature[:])
		binary.LittleEndian.PutUint32(buf[offset:], f.EntityID)
	}
	return buf, nil
}

// DecodeBody parses a frame body (everything after the u32 length
// prefix, which the caller has already read and used to size raw).
// trailerKind must be known from the connection's direction and
// authentication phase before decoding.
func DecodeBody(raw []byte, trailerKind TrailerKind) (*Frame, error) {
	minLen := headerSize + trailerSize(trailerKind)
	if len(raw) < minLen {
		return nil, ErrMalformedFrame
	}
	f := &Frame{Major: raw[0], Minor: raw[1], Trailer: trailerKind}

	bodyEnd := len(raw) - trailerSize(trailerKind)
	f.Body = append([]byte(nil), raw[headerSize:bodyEnd]...)

	switch trailerKind {
	case TrailerMAC:
		copy(f.MAC[:], raw[bodyEnd:])
	case TrailerSignature:
		copy(f.Signature[:], raw[bodyEnd:bodyEnd+SignatureSize])
		f.EntityID = binary.LittleEndian.Uint32(raw[bodyEnd+SignatureSize:])
	}
	return f, nil
}
