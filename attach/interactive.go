package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/docker/cli/cli/streams"
	"github.com/moby/term"
	"golang.org/x/sync/errgroup"

	"github.com/VaitoSoi/docker-go/duplex"
	"github.com/VaitoSoi/docker-go/internal"
	"github.com/VaitoSoi/docker-go/output"
)

// Interactive relays a live session to the local terminal: bytes read
// from in are written to the session's stdin, and the session's output
// is written to out. When in or out is nil the process's standard
// streams are used, and if they are terminals they are put into raw
// mode for the duration and restored on return.
//
// Reaching end of input half-closes the session's write side; the read
// side keeps flowing until the peer ends it. Interactive returns when
// the session's output ends, for any reason; closing the session
// afterwards remains the caller's responsibility. Forwarding problems
// that do not end the session are reported through w.
func Interactive(ctx context.Context, stream *duplex.Stream, in io.ReadCloser, out io.Writer, w output.Writer) error {
	if in == nil || out == nil {
		stdin, stdout, _ := term.StdStreams()
		if in == nil {
			in = stdin
		}
		if out == nil {
			out = stdout
		}
	}
	input := streams.NewIn(in)
	localOut := streams.NewOut(out)

	restore := sync.OnceFunc(func() {
		input.RestoreTerminal()
		localOut.RestoreTerminal()
	})

	cleanup := internal.NewCleanupManager(w)
	cleanup.Add("terminal", func() error {
		restore()
		return nil
	})
	defer cleanup.Execute()

	if err := input.SetRawTerminal(); err != nil {
		return fmt.Errorf("set stdin to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
	}
	if err := localOut.SetRawTerminal(); err != nil {
		return fmt.Errorf("set stdout to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Session output to the local terminal. When it ends, close the
	// input stream so the stdin copy below unblocks.
	g.Go(func() error {
		defer restore()
		_, err := io.Copy(localOut, stream)
		input.Close()
		if gctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			w.Warningf("output forwarding error: %v", err)
		}
		return nil
	})

	// Local input to the session's stdin.
	g.Go(func() error {
		defer restore()
		_, err := io.Copy(stream, input)
		if closeErr := stream.CloseWrite(); closeErr != nil && !errors.Is(closeErr, duplex.ErrClosed) {
			w.Warningf("half-close input: %v", closeErr)
		}
		if gctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, duplex.ErrClosed) {
			w.Warningf("stdin forwarding error: %v", err)
		}
		return nil
	})

	return g.Wait()
}
