package stdstream_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/VaitoSoi/docker-go/stdstream"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	t.Run("separates stdout and stderr", func(t *testing.T) {
		src := bytes.NewReader(append(record(1, "to stdout"), record(2, "to stderr")...))

		var stdout, stderr bytes.Buffer
		written, err := stdstream.Copy(&stdout, &stderr, src)
		require.NoError(t, err)
		require.Equal(t, int64(len("to stdout")+len("to stderr")), written)
		require.Equal(t, "to stdout", stdout.String())
		require.Equal(t, "to stderr", stderr.String())
	})

	t.Run("stdin echo and unknown frames go to stdout", func(t *testing.T) {
		input := append(record(0, "echo "), record(9, "weird ")...)
		input = append(input, record(1, "out")...)

		var stdout, stderr bytes.Buffer
		_, err := stdstream.Copy(&stdout, &stderr, bytes.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, "echo weird out", stdout.String())
		require.Empty(t, stderr.String())
	})

	t.Run("zero-length frames are consumed", func(t *testing.T) {
		input := append(record(1, ""), record(2, "")...)

		var stdout, stderr bytes.Buffer
		written, err := stdstream.Copy(&stdout, &stderr, bytes.NewReader(input))
		require.NoError(t, err)
		require.Zero(t, written)
	})

	t.Run("clean EOF on a record boundary returns nil", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		written, err := stdstream.Copy(&stdout, &stderr, bytes.NewReader(nil))
		require.NoError(t, err)
		require.Zero(t, written)
	})

	t.Run("truncated header reports unexpected EOF", func(t *testing.T) {
		src := bytes.NewReader(record(1, "hello")[:5])
		var stdout, stderr bytes.Buffer
		_, err := stdstream.Copy(&stdout, &stderr, src)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("truncated payload reports unexpected EOF", func(t *testing.T) {
		input := record(2, "stderr output")
		src := bytes.NewReader(input[:len(input)-3])

		var stdout, stderr bytes.Buffer
		written, err := stdstream.Copy(&stdout, &stderr, src)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		// The bytes that did arrive were delivered before the failure.
		require.Equal(t, int64(len("stderr output")-3), written)
		require.Equal(t, "stderr out", stderr.String())
	})
}
