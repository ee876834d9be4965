package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/VaitoSoi/docker-go/attach"
	"github.com/VaitoSoi/docker-go/internal"
	"github.com/VaitoSoi/docker-go/output"
	"github.com/VaitoSoi/docker-go/stdstream"
)

// Channel labels for the frame listing.
var (
	stdinLabel   = color.New(color.FgCyan).SprintFunc()
	stdoutLabel  = color.New(color.FgGreen).SprintFunc()
	stderrLabel  = color.New(color.FgRed).SprintFunc()
	unknownLabel = color.New(color.FgYellow).SprintFunc()
)

func main() {
	if err := run(os.Args[1:], os.Stdin, output.NewStandardWriter()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, w output.Writer) error {
	flags := flag.NewFlagSet("streamview", flag.ContinueOnError)
	host := flags.String("host", "", "engine endpoint to read from, e.g. unix:///var/run/docker.sock (default: stdin)")
	maxFrame := flags.Uint("max-frame", 0, "reject frames whose payload exceeds this many bytes (0 = unlimited)")
	timeout := flags.Duration("timeout", 10*time.Second, "dial timeout when -host is set")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cleanupMgr := internal.NewCleanupManager(w)
	defer cleanupMgr.Execute()

	src := stdin
	if *host != "" {
		network, address, err := attach.ParseHost(*host)
		if err != nil {
			return fmt.Errorf("failed to parse host %q: %w", *host, err)
		}
		conn, err := attach.DialTimeout(network, address, *timeout)
		if err != nil {
			return fmt.Errorf("failed to connect to %q: %w\nCheck that the engine is running and the endpoint is reachable", *host, err)
		}
		cleanupMgr.Add("connection", conn.Close)
		src = conn
	}

	var opts []stdstream.Option
	if *maxFrame > 0 {
		opts = append(opts, stdstream.WithMaxFrameSize(uint32(*maxFrame)))
	}
	demux := stdstream.NewDemuxer(opts...)
	demux.OnFrame(func(frame stdstream.Frame) {
		w.Printf("%s %4d bytes  %s\n", label(frame.Type), len(frame.Payload), frame.Payload)
	})

	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if feedErr := demux.Feed(buf[:n]); feedErr != nil {
				return fmt.Errorf("failed to parse stream: %w", feedErr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}

	if buffered := demux.Buffered(); buffered > 0 {
		w.Warningf("stream ended mid-record: %d trailing bytes discarded", buffered)
	}
	return nil
}

func label(t stdstream.StreamType) string {
	switch t {
	case stdstream.Stdin:
		return stdinLabel(t.String())
	case stdstream.Stdout:
		return stdoutLabel(t.String())
	case stdstream.Stderr:
		return stderrLabel(t.String())
	default:
		return unknownLabel(t.String())
	}
}
