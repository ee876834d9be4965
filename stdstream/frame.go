package stdstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// StreamType identifies the logical stream a frame belongs to.
type StreamType byte

const (
	// Stdin marks frames echoing bytes written to the container's stdin.
	Stdin StreamType = 0

	// Stdout marks frames carrying the container's standard output.
	Stdout StreamType = 1

	// Stderr marks frames carrying the container's standard error.
	Stderr StreamType = 2

	// Unknown tags frames whose selector byte is outside the range the
	// engine defines. The protocol treats them as a generic category
	// rather than a parse failure: any byte pattern parses.
	Unknown StreamType = 0xFF
)

// headerLength is the fixed size of a frame header: 1 selector byte,
// 3 reserved bytes, 4 length bytes.
const headerLength = 8

// streamTypeOf maps a raw wire selector onto a StreamType.
func streamTypeOf(selector byte) StreamType {
	switch StreamType(selector) {
	case Stdin, Stdout, Stderr:
		return StreamType(selector)
	default:
		return Unknown
	}
}

// String returns the conventional name of the stream.
func (t StreamType) String() string {
	switch t {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Frame is one demultiplexed record: the stream it belongs to and its
// payload. Frames are ephemeral; the demuxer constructs one per record,
// hands it to the registered callbacks, and never retains it.
type Frame struct {
	Type    StreamType
	Payload []byte
}

// AppendHeader appends an 8-byte frame header for a payload of the given
// length to dst and returns the extended slice. The reserved bytes are
// written as zero.
func AppendHeader(dst []byte, streamType StreamType, payloadLength int) []byte {
	var header [headerLength]byte
	header[0] = byte(streamType)
	binary.BigEndian.PutUint32(header[4:8], uint32(payloadLength))
	return append(dst, header[:]...)
}

// WriteFrame writes a single framed record to w: the 8-byte header
// followed by the payload. It is the producing side of the format the
// Demuxer consumes, used by tests and by peers that speak the protocol.
func WriteFrame(w io.Writer, streamType StreamType, payload []byte) error {
	if _, err := w.Write(AppendHeader(nil, streamType, len(payload))); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}
