// Package server implements the rentory TCP server: a connection acceptor
// that spawns one worker goroutine per client, a per-connection session
// state machine, and the command dispatcher that bridges protocol lines to
// record store operations.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rentory/rentory/internal/logger"
	"github.com/rentory/rentory/internal/ratelimiter"
	"github.com/rentory/rentory/pkg/store"
)

// Config carries the server-level settings.
type Config struct {
	// Port is the TCP port to listen on. Port 0 picks a free port (used by
	// tests); Addr() reports the bound address.
	Port int

	// ShutdownTimeout bounds the grace period between the listener closing
	// and outstanding connection workers being forcibly terminated.
	ShutdownTimeout time.Duration

	// CommandRate is the sustained commands-per-second budget of each
	// connection, with CommandBurst headroom on top. Zero means unlimited.
	CommandRate  uint
	CommandBurst uint
}

// RentalServer accepts client connections and serves the rentory line
// protocol against a shared record store.
//
// Workers never share session state; the store is the only shared object and
// carries its own synchronization. There are no read or write deadlines on
// client connections: a slow or hung client parks its own worker and nothing
// else.
type RentalServer struct {
	config   Config
	store    store.Store
	listener net.Listener

	mu    sync.Mutex
	conns map[*conn]struct{}
	wg    sync.WaitGroup
}

// New creates a server for the given store. The store must already be open;
// the server does not close it.
func New(config Config, st store.Store) *RentalServer {
	if st == nil {
		panic("store cannot be nil")
	}
	return &RentalServer{
		config: config,
		store:  st,
		conns:  make(map[*conn]struct{}),
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *RentalServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve listens and accepts connections until ctx is cancelled, then shuts
// down gracefully: the listener closes immediately, outstanding workers get
// ShutdownTimeout to finish, and stragglers have their connections forcibly
// closed. Returns nil on a clean shutdown.
func (s *RentalServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.listener = listener
	logger.Info("Rental server listening on %s", listener.Addr())

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.shutdown()
				return nil
			default:
				logger.Debug("Error accepting connection: %v", err)
				continue
			}
		}

		c := s.newConn(tcpConn)
		s.track(c)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			c.serve(ctx)
		}()
	}
}

// Stop closes the listener, causing Serve to begin shutdown.
func (s *RentalServer) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *RentalServer) newConn(tcpConn net.Conn) *conn {
	return &conn{
		server:  s,
		conn:    tcpConn,
		limiter: ratelimiter.New(s.config.CommandRate, s.config.CommandBurst),
	}
}

func (s *RentalServer) track(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *RentalServer) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// shutdown waits for outstanding workers up to the configured grace period,
// then force-closes whatever connections remain so their blocked reads
// unblock and the workers exit.
func (s *RentalServer) shutdown() {
	grace := s.config.ShutdownTimeout
	if grace <= 0 {
		grace = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All connections closed gracefully")
		return
	case <-time.After(grace):
	}

	s.mu.Lock()
	remaining := len(s.conns)
	for c := range s.conns {
		c.conn.Close()
	}
	s.mu.Unlock()

	logger.Warn("Shutdown grace period elapsed, closed %d lingering connection(s)", remaining)
	<-done
}
