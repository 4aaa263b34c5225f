// Command simclient is a reference client: it dials a simd server,
// completes the authentication handshake, and reports the entity id
// it was assigned.
package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/trillek-sim/corebox/transport"
)

func main() {
	app := &cli.App{
		Name:  "simclient",
		Usage: "connect to a simd server and authenticate",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "address", Value: "127.0.0.1:27015", Usage: "server address"},
			&cli.StringFlag{Name: "login", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{
				Name:     "server-pubkey",
				Required: true,
				Usage:    "hex-encoded Ed25519 public key pinned for this server, verified against AUTH_KEY_REPLY's signature",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	pub, err := parseServerPubKey(c.String("server-pubkey"))
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", c.String("address"))
	if err != nil {
		return fmt.Errorf("simclient: dial: %w", err)
	}
	defer conn.Close()

	session, err := transport.Handshake(conn, c.String("login"), c.String("password"), pub)
	if err != nil {
		return fmt.Errorf("simclient: handshake: %w", err)
	}

	fmt.Printf("authenticated as entity %d\n", session.ID())
	return nil
}

func parseServerPubKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("simclient: --server-pubkey: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("simclient: --server-pubkey: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
