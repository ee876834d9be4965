package duplex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/VaitoSoi/docker-go/stdstream"
)

// ErrClosed is returned by Write and CloseWrite once the session has
// reached a terminal state or the write side has been half-closed.
var ErrClosed = errors.New("connection closed")

// State describes where a session is in its lifecycle.
type State int

const (
	// Open means both directions are usable.
	Open State = iota

	// HalfClosedWrite means the caller signaled end of input; the read
	// side may still receive output until the peer ends its side.
	HalfClosedWrite

	// HalfClosedRead means the peer ended its output; the write side
	// remains usable until the caller closes it.
	HalfClosedRead

	// Closed means both directions have ended. Terminal.
	Closed

	// Errored means a transport fault tore the session down. Terminal.
	Errored
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfClosedWrite:
		return "half-closed-write"
	case HalfClosedRead:
		return "half-closed-read"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return "invalid"
	}
}

// CloseWriter is implemented by connections that can shut down just
// their send direction, as *net.TCPConn and *net.UnixConn do.
type CloseWriter interface {
	CloseWrite() error
}

const defaultReadBufferSize = 32 * 1024

// Stream adapts a container attach/exec socket into a duplex byte
// stream. Construct one with New; the zero value is not usable.
//
// The connection is owned exclusively by the Stream. No other component
// may read, write, or close it while the session is live.
type Stream struct {
	conn io.ReadWriteCloser

	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	raw          bool
	maxFrameSize uint32

	mu              sync.Mutex
	state           State
	err             error
	sinkErr         error
	writable        bool
	frameHandlers   []func(stdstream.Frame)
	channelHandlers map[stdstream.StreamType][]func([]byte)

	done chan struct{}
}

// New wraps conn in a duplex session and starts its reader. By default
// the session is full duplex and demultiplexes the engine's framing;
// pass ReadOnly for sessions opened without stdin and RawTTY for
// sessions created with a pseudo-terminal, whose output is unframed.
//
// Cancelling ctx force-closes the socket and moves the session to the
// errored state; it is the library-level form of racing Done against an
// external timer.
func New(ctx context.Context, conn io.ReadWriteCloser, opts ...Option) *Stream {
	pipeReader, pipeWriter := io.Pipe()
	s := &Stream{
		conn:            conn,
		pipeReader:      pipeReader,
		pipeWriter:      pipeWriter,
		state:           Open,
		writable:        true,
		channelHandlers: make(map[stdstream.StreamType][]func([]byte)),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run(ctx)
	return s
}

// Read returns the demultiplexed payload bytes of all channels in the
// order their frames arrived on the wire. It reaches io.EOF exactly
// when the socket ends cleanly, and returns the terminal error after a
// transport fault. Delivery pauses while the caller is not reading and
// resumes without loss; nothing is dropped.
func (s *Stream) Read(p []byte) (int, error) {
	return s.pipeReader.Read(p)
}

// Write forwards p to the socket unframed. On a read-only session every
// write succeeds trivially without transmitting anything. Once the
// write side is closed, Write fails with ErrClosed; a transport fault
// during the write tears the session down.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	if !s.writable {
		s.mu.Unlock()
		return len(p), nil
	}
	switch s.state {
	case HalfClosedWrite, Closed, Errored:
		s.mu.Unlock()
		return 0, ErrClosed
	}
	s.mu.Unlock()

	n, err := s.conn.Write(p)
	if err != nil {
		s.fail(err)
		return n, fmt.Errorf("write container stdin: %w", err)
	}
	return n, nil
}

// CloseWrite half-closes the send direction: the peer sees end of
// input while the read side keeps receiving output. Returns ErrClosed
// if the session already reached a terminal state.
func (s *Stream) CloseWrite() error {
	s.mu.Lock()
	switch s.state {
	case Closed, Errored:
		s.mu.Unlock()
		return ErrClosed
	case HalfClosedWrite:
		s.mu.Unlock()
		return nil
	}
	bothDirectionsDone := s.state == HalfClosedRead
	if bothDirectionsDone {
		s.state = Closed
	} else {
		s.state = HalfClosedWrite
	}
	writable := s.writable
	s.mu.Unlock()

	if bothDirectionsDone {
		err := s.conn.Close()
		close(s.done)
		return err
	}
	if closeWriter, ok := s.conn.(CloseWriter); ok && writable {
		return closeWriter.CloseWrite()
	}
	return nil
}

// Close tears down both directions. It is idempotent: closing a
// session already in a terminal state is a no-op.
func (s *Stream) Close() error {
	s.mu.Lock()
	switch s.state {
	case Closed, Errored:
		s.mu.Unlock()
		return nil
	}
	s.state = Closed
	s.mu.Unlock()

	err := s.conn.Close()
	s.pipeWriter.Close()
	s.pipeReader.Close()
	close(s.done)
	return err
}

// OnFrame registers a callback observing every demultiplexed frame in
// wire order, in addition to the merged bytes Read delivers. Callbacks
// run on the session's reader goroutine; a slow callback delays the
// stream the same way a slow Read does. Never fired on raw sessions.
func (s *Stream) OnFrame(fn func(stdstream.Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameHandlers = append(s.frameHandlers, fn)
}

// OnChannel registers a callback receiving the payload of every frame
// on one stream, for callers that want stdout and stderr separated
// instead of the merged sequence. Never fired on raw sessions.
func (s *Stream) OnChannel(streamType stdstream.StreamType, fn func(payload []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelHandlers[streamType] = append(s.channelHandlers[streamType], fn)
}

// State reports where the session is in its lifecycle.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error after a transport fault, nil
// otherwise. The error is surfaced once the session reaches Errored
// and never changes afterwards.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the session reaches a terminal state. Callers
// wanting a timeout race it against their own timer and force-close.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// run is the session's single event loop: it drains the socket in
// chunks and feeds the demultiplexer (or, for raw sessions, the merged
// pipe directly) until the transport ends or fails. Exactly one run
// goroutine exists per session, so Feed is never invoked concurrently.
func (s *Stream) run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		s.fail(context.Cause(ctx))
	})
	defer stop()

	var demux *stdstream.Demuxer
	if !s.raw {
		demux = stdstream.NewDemuxer(stdstream.WithMaxFrameSize(s.maxFrameSize))
		demux.OnFrame(s.handleFrame)
	}

	buffer := make([]byte, defaultReadBufferSize)
	for {
		n, readErr := s.conn.Read(buffer)
		if n > 0 {
			var deliverErr error
			if demux != nil {
				deliverErr = demux.Feed(buffer[:n])
			} else {
				_, deliverErr = s.pipeWriter.Write(buffer[:n])
			}
			if deliverErr == nil {
				deliverErr = s.takeSinkErr()
			}
			if deliverErr != nil {
				s.fail(deliverErr)
				return
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.end()
			} else {
				s.fail(readErr)
			}
			return
		}
	}
}

// handleFrame fans one parse event out to the two consumers: the
// merged byte pipe behind Read, then the channel-tagged callbacks. The
// pipe write blocks until the caller reads, which is where backpressure
// holds the stream.
func (s *Stream) handleFrame(frame stdstream.Frame) {
	if _, err := s.pipeWriter.Write(frame.Payload); err != nil {
		s.mu.Lock()
		if s.sinkErr == nil {
			s.sinkErr = err
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	frameHandlers := slices.Clone(s.frameHandlers)
	channelHandlers := slices.Clone(s.channelHandlers[frame.Type])
	s.mu.Unlock()

	for _, fn := range frameHandlers {
		fn(frame)
	}
	for _, fn := range channelHandlers {
		fn(frame.Payload)
	}
}

func (s *Stream) takeSinkErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinkErr
}

// end handles a clean end of stream from the peer. Read drains the
// remaining buffered bytes and then reports io.EOF.
func (s *Stream) end() {
	s.mu.Lock()
	var bothDirectionsDone bool
	switch s.state {
	case Open:
		s.state = HalfClosedRead
	case HalfClosedWrite:
		s.state = Closed
		bothDirectionsDone = true
	}
	s.mu.Unlock()

	s.pipeWriter.Close()
	if bothDirectionsDone {
		s.conn.Close()
		close(s.done)
	}
}

// fail moves the session to Errored exactly once, attempting a
// best-effort shutdown of the socket before the error is reported. If
// the socket is already closed the shutdown is a no-op.
func (s *Stream) fail(err error) {
	s.mu.Lock()
	switch s.state {
	case Closed, Errored:
		s.mu.Unlock()
		return
	}
	s.state = Errored
	s.err = err
	s.mu.Unlock()

	s.conn.Close()
	s.pipeWriter.CloseWithError(err)
	close(s.done)
}
