package attach_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/VaitoSoi/docker-go/attach"
	"github.com/VaitoSoi/docker-go/duplex"
	"github.com/VaitoSoi/docker-go/output"
	"github.com/VaitoSoi/docker-go/stdstream"
	"github.com/stretchr/testify/require"
)

// sessionConn is the attach socket fake: the test feeds engine output
// through feed and inspects what the session wrote to stdin.
type sessionConn struct {
	readEnd *io.PipeReader
	feed    *io.PipeWriter

	mu          sync.Mutex
	written     bytes.Buffer
	closeWrites int
}

func newSessionConn() *sessionConn {
	readEnd, feed := io.Pipe()
	return &sessionConn{readEnd: readEnd, feed: feed}
}

func (c *sessionConn) Read(p []byte) (int, error) { return c.readEnd.Read(p) }

func (c *sessionConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *sessionConn) Close() error {
	c.readEnd.Close()
	c.feed.Close()
	return nil
}

func (c *sessionConn) CloseWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeWrites++
	return nil
}

func (c *sessionConn) stdinBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

func framed(selector byte, payload string) []byte {
	return append(stdstream.AppendHeader(nil, stdstream.StreamType(selector), len(payload)), payload...)
}

func TestInteractive(t *testing.T) {
	t.Run("relays both directions", func(t *testing.T) {
		conn := newSessionConn()
		stream := duplex.New(context.Background(), conn)
		defer stream.Close()

		stdinR, stdinW := io.Pipe()
		var localOut bytes.Buffer
		w := output.NewCustomWriter(io.Discard, io.Discard)

		finished := make(chan error, 1)
		go func() {
			finished <- attach.Interactive(context.Background(), stream, stdinR, &localOut, w)
		}()

		stdinW.Write([]byte("typed input"))
		stdinW.Close()
		require.Eventually(t, func() bool {
			return bytes.Equal(conn.stdinBytes(), []byte("typed input"))
		}, 5*time.Second, 10*time.Millisecond, "stdin never reached the socket")

		conn.feed.Write(framed(1, "container says hi"))
		conn.feed.Close()

		require.NoError(t, <-finished)
		require.Equal(t, "container says hi", localOut.String())
	})

	t.Run("end of input half-closes the session", func(t *testing.T) {
		conn := newSessionConn()
		stream := duplex.New(context.Background(), conn)
		defer stream.Close()

		stdinR, stdinW := io.Pipe()
		finished := make(chan error, 1)
		go func() {
			finished <- attach.Interactive(context.Background(), stream, stdinR, &bytes.Buffer{}, output.NewCustomWriter(io.Discard, io.Discard))
		}()

		stdinW.Close()
		require.Eventually(t, func() bool {
			conn.mu.Lock()
			defer conn.mu.Unlock()
			return conn.closeWrites == 1
		}, 5*time.Second, 10*time.Millisecond, "input EOF never half-closed the session")

		// The read side keeps flowing after the half-close.
		conn.feed.Close()
		require.NoError(t, <-finished)
	})

	t.Run("returns when output ends even if input never does", func(t *testing.T) {
		conn := newSessionConn()
		stream := duplex.New(context.Background(), conn)
		defer stream.Close()

		// Input that never produces bytes and never closes on its own.
		stdinR, _ := io.Pipe()

		go func() {
			conn.feed.Write(framed(2, "done"))
			conn.feed.Close()
		}()

		finished := make(chan error, 1)
		go func() {
			finished <- attach.Interactive(context.Background(), stream, stdinR, &bytes.Buffer{}, output.NewCustomWriter(io.Discard, io.Discard))
		}()

		select {
		case err := <-finished:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Interactive did not return after the session output ended")
		}
	})
}
