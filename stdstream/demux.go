package stdstream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrFrameTooLarge is returned by Feed when a frame header claims a
// payload larger than the configured maximum. The session carrying the
// stream should be torn down; the reassembly buffer is no longer
// meaningful once a header has been rejected.
var ErrFrameTooLarge = errors.New("frame payload exceeds maximum size")

// Demuxer reconstructs complete frames from a multiplexed stream
// delivered in arbitrarily sized chunks. A chunk may contain zero, one,
// many, or a fraction of a frame; the demuxer buffers trailing bytes
// until the rest of the record arrives. Feeding the same stream through
// any sequence of chunk boundaries yields the same frames in the same
// order.
//
// Feed must only be called from a single goroutine. The demuxer itself
// never blocks: frames are dispatched synchronously to the registered
// callbacks during Feed.
type Demuxer struct {
	buffer       []byte
	maxFrameSize uint32

	frameHandlers   []func(Frame)
	channelHandlers map[StreamType][]func([]byte)
}

// Option configures a Demuxer.
type Option func(*Demuxer)

// WithMaxFrameSize bounds the payload length the demuxer will accept.
// The wire format itself places no bound on the length field, so a
// corrupt or adversarial header can otherwise force the reassembly
// buffer to grow without limit while the demuxer waits for a payload
// that never completes. Zero (the default) preserves the unbounded
// behavior.
func WithMaxFrameSize(n uint32) Option {
	return func(d *Demuxer) {
		d.maxFrameSize = n
	}
}

// NewDemuxer creates a Demuxer with an empty reassembly buffer.
func NewDemuxer(opts ...Option) *Demuxer {
	d := &Demuxer{
		channelHandlers: make(map[StreamType][]func([]byte)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnFrame registers a callback invoked for every frame, on every
// channel, in the exact order the frames' bytes were received on the
// wire. This is the merged, channel-agnostic view of the stream.
func (d *Demuxer) OnFrame(fn func(Frame)) {
	d.frameHandlers = append(d.frameHandlers, fn)
}

// OnChannel registers a callback invoked with the payload of every
// frame on the given stream. Callers that want stdout and stderr
// separated subscribe per channel instead of consuming the merged view.
// Both views observe the same parse events; registering on a channel
// does not remove frames from OnFrame callbacks.
func (d *Demuxer) OnChannel(streamType StreamType, fn func(payload []byte)) {
	d.channelHandlers[streamType] = append(d.channelHandlers[streamType], fn)
}

// Feed appends chunk to the reassembly buffer and extracts every
// complete frame now available, dispatching each to the registered
// callbacks. Partial frames are never forwarded; zero-length payloads
// are still emitted as frames. The only failure is a rejected length
// field when a maximum frame size is configured.
func (d *Demuxer) Feed(chunk []byte) error {
	d.buffer = append(d.buffer, chunk...)
	for len(d.buffer) >= headerLength {
		payloadLength := binary.BigEndian.Uint32(d.buffer[4:8])
		if d.maxFrameSize > 0 && payloadLength > d.maxFrameSize {
			return fmt.Errorf("frame payload of %d bytes (maximum %d): %w", payloadLength, d.maxFrameSize, ErrFrameTooLarge)
		}
		frameLength := headerLength + int(payloadLength)
		if len(d.buffer) < frameLength {
			break
		}

		payload := make([]byte, payloadLength)
		copy(payload, d.buffer[headerLength:frameLength])
		frame := Frame{Type: streamTypeOf(d.buffer[0]), Payload: payload}

		// Drop the consumed record before dispatching so a callback
		// observing Buffered sees only unresolved bytes.
		d.buffer = d.buffer[:copy(d.buffer, d.buffer[frameLength:])]
		d.dispatch(frame)
	}
	return nil
}

// Buffered reports how many received bytes are waiting for the rest of
// a record. A non-zero value after the stream ends means it was cut off
// mid-frame.
func (d *Demuxer) Buffered() int {
	return len(d.buffer)
}

func (d *Demuxer) dispatch(frame Frame) {
	for _, fn := range d.frameHandlers {
		fn(frame)
	}
	for _, fn := range d.channelHandlers[frame.Type] {
		fn(frame.Payload)
	}
}
