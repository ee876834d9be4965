// Package stdstream implements the engine's multiplexed standard-stream
// wire format, used by attach, exec, and logs sessions opened without a
// pseudo-terminal.
//
// The engine carries a container's stdout and stderr (and the echo of its
// stdin) over a single byte-oriented connection as a sequence of
// length-prefixed records:
//
//	[8]byte{STREAM_TYPE, 0, 0, 0, SIZE1, SIZE2, SIZE3, SIZE4}[]byte{OUTPUT}
//
// STREAM_TYPE is 0 for stdin, 1 for stdout, and 2 for stderr. SIZE1..SIZE4
// are a big-endian uint32 giving the length of OUTPUT. Bytes 1-3 of the
// header are reserved and ignored on read. Sessions opened with a TTY use
// no framing at all; this package does not apply to them.
//
// Demuxer is the push-style core: raw chunks of any size go in through
// Feed, complete frames come out through registered callbacks. Copy is the
// pull-style convenience for draining a whole stream from an io.Reader
// into separate stdout/stderr writers.
package stdstream
