package server

import (
	"bufio"
	"context"
	"net"
	"strings"

	"github.com/rentory/rentory/internal/logger"
	"github.com/rentory/rentory/internal/ratelimiter"
	"github.com/rentory/rentory/pkg/protocol"
)

// conn is one client connection and its worker state. The session lives and
// dies with the connection.
type conn struct {
	server  *RentalServer
	conn    net.Conn
	limiter *ratelimiter.RateLimiter
	session session
}

// serve runs the connection's read-dispatch-reply loop until logout,
// disconnect, or server shutdown. Shutdown is delivered by the server
// closing the underlying connection, which unblocks the next read.
func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()
	logger.Debug("Client connected from %s", c.conn.RemoteAddr())

	if err := c.writeLines(protocol.OK("CONNECTED")); err != nil {
		logger.Debug("Error greeting %s: %v", c.conn.RemoteAddr(), err)
		return
	}

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Throttle rather than reject a too-fast client
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		req := protocol.ParseRequest(line)
		replies, closing := c.server.dispatch(ctx, &c.session, req)
		if err := c.writeLines(replies...); err != nil {
			logger.Debug("Error writing reply to %s: %v", c.conn.RemoteAddr(), err)
			return
		}
		if closing {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug("Client read error from %s: %v", c.conn.RemoteAddr(), err)
	}
	logger.Debug("Client disconnected from %s", c.conn.RemoteAddr())
}

// writeLines sends newline-terminated reply lines in one write.
func (c *conn) writeLines(lines ...string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := c.conn.Write([]byte(b.String()))
	return err
}
