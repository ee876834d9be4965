package stdstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Copy demultiplexes the stream read from src until EOF, writing stdout
// payloads to dstout and stderr payloads to dsterr. Stdin-echo frames
// and frames with an unrecognized selector also go to dstout, so the
// combined output preserves the order the peer wrote on the wire.
//
// Copy returns the number of payload bytes written. It returns nil when
// src ends cleanly on a record boundary and io.ErrUnexpectedEOF when it
// ends mid-record.
func Copy(dstout, dsterr io.Writer, src io.Reader) (int64, error) {
	var written int64
	var header [headerLength]byte
	for {
		if _, err := io.ReadFull(src, header[:]); err != nil {
			if err == io.EOF {
				return written, nil
			}
			return written, fmt.Errorf("read frame header: %w", err)
		}

		dst := dstout
		if streamTypeOf(header[0]) == Stderr {
			dst = dsterr
		}

		payloadLength := int64(binary.BigEndian.Uint32(header[4:8]))
		n, err := io.CopyN(dst, src, payloadLength)
		written += n
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return written, fmt.Errorf("copy frame payload: %w", err)
		}
	}
}
