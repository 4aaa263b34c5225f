package transport

import (
	"context"
	"net"

	"golang.org/x/time/rate"

	"github.com/trillek-sim/corebox/log"
)

// Listener accepts connections and drives each one's read loop,
// feeding decoded frames to a Dispatcher.
type Listener struct {
	ln         net.Listener
	dispatcher *Dispatcher
	logger     *log.Logger

	// perConnLimit and perConnBurst configure the per-connection
	// limiter bounding how many frames per second a single connection
	// may submit before AUTHENTICATED, a defense against a
	// slow-loris-style flood during the handshake.
	perConnLimit rate.Limit
	perConnBurst int
}

// NewListener wraps an already-bound net.Listener.
func NewListener(ln net.Listener, dispatcher *Dispatcher, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Root()
	}
	return &Listener{
		ln:           ln,
		dispatcher:   dispatcher,
		logger:       logger,
		perConnLimit: rate.Limit(50),
		perConnBurst: 10,
	}
}

// Serve accepts connections until ctx is canceled or the listener is
// closed.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		raw, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go l.serveConn(ctx, raw)
	}
}

func (l *Listener) serveConn(ctx context.Context, raw net.Conn) {
	conn := NewConn(raw)
	limiter := rate.NewLimiter(l.perConnLimit, l.perConnBurst)
	defer conn.Close()

	for {
		if conn.Phase() != PhaseAuthenticated {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		// Client-originated frames always carry a MAC trailer, both
		// before and after authentication; only server-originated
		// frames switch to a signature trailer once AUTHENTICATED.
		maxBody := MaxUnauthenticatedFrameSize
		if conn.Phase() == PhaseAuthenticated {
			maxBody = MaxAuthenticatedFrameSize
		}

		f, err := NewReassembler(raw, TrailerMAC, maxBody).ReadFrame()
		if err != nil {
			l.logger.Debug("transport: connection closed", "err", err)
			return
		}
		l.dispatcher.Dispatch(conn, f, SideServer)
	}
}
