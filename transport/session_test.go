package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trillek-sim/corebox/scheduler"
)

// serveOneHandshake runs a minimal server-side read loop over serverConn,
// dispatching each frame through d, until the connection reaches
// PhaseAuthenticated or an error occurs.
func serveOneHandshake(t *testing.T, serverConn net.Conn, conn *Conn, d *Dispatcher) {
	t.Helper()
	for i := 0; i < 2 && conn.Phase() != PhaseAuthenticated; i++ {
		f, err := NewReassembler(serverConn, TrailerMAC, MaxUnauthenticatedFrameSize).ReadFrame()
		require.NoError(t, err)
		d.handlers[dispatchKey{f.Major, f.Minor, SideServer}](conn, f)
	}
}

func TestHandshakeEndToEndOverPipe(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	pool := scheduler.New(1, 1, nil, nil)
	pool.Start(context.Background())
	defer pool.Stop()

	dispatcher := NewDispatcher(pool)
	creds := NewCredentialStore()
	require.NoError(t, creds.Register("alice", "hunter2"))

	pub, priv, err := GenerateServerKeyPair()
	require.NoError(t, err)
	NewServerSession(dispatcher, creds, pub, priv, nil)

	serverConn := NewConn(server)
	done := make(chan error, 1)
	go func() {
		sess, err := Handshake(client, "alice", "hunter2", pub)
		if err != nil {
			done <- err
			return
		}
		_ = sess
		done <- nil
	}()

	serveOneHandshake(t, server, serverConn, dispatcher)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake did not complete")
	}
	require.Equal(t, PhaseAuthenticated, serverConn.Phase())
}

func TestHandshakeRejectsUnpinnedServerKey(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	pool := scheduler.New(1, 1, nil, nil)
	pool.Start(context.Background())
	defer pool.Stop()

	dispatcher := NewDispatcher(pool)
	creds := NewCredentialStore()
	require.NoError(t, creds.Register("alice", "hunter2"))

	_, priv, err := GenerateServerKeyPair()
	require.NoError(t, err)
	NewServerSession(dispatcher, creds, nil, priv, nil)

	// wrongPub is not the key the server actually signs with, standing
	// in for an attacker's pinned key or a stale/mismatched pin.
	wrongPub, _, err := GenerateServerKeyPair()
	require.NoError(t, err)

	serverConn := NewConn(server)
	done := make(chan error, 1)
	go func() {
		_, err := Handshake(client, "alice", "hunter2", wrongPub)
		done <- err
	}()

	serveOneHandshake(t, server, serverConn, dispatcher)

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrBadSignature)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake did not complete")
	}
}
