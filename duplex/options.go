package duplex

// Option configures a Stream at construction.
type Option func(*Stream)

// ReadOnly suppresses the write side: every Write succeeds trivially
// without transmitting anything, even after the session ends. Used for
// log and exec sessions opened without stdin attached, where callers
// may still call Write defensively.
var ReadOnly Option = func(s *Stream) {
	s.writable = false
}

// RawTTY disables demultiplexing. Sessions created with a
// pseudo-terminal carry a single unframed stream, so output bytes pass
// through to Read untouched and no channel callbacks fire. Only the
// caller knows whether its session has a TTY; the library never
// guesses.
var RawTTY Option = func(s *Stream) {
	s.raw = true
}

// WithMaxFrameSize bounds the frame payload length the session will
// accept; a header claiming more fails the session. Zero, the default,
// keeps the protocol's unbounded behavior. See
// stdstream.WithMaxFrameSize.
func WithMaxFrameSize(n uint32) Option {
	return func(s *Stream) {
		s.maxFrameSize = n
	}
}
