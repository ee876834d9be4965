// Package duplex presents an attach or exec socket as a single
// bidirectional byte stream.
//
// A Stream owns its connection exclusively: one reader goroutine drains
// the socket, demultiplexes the engine's framed output (see package
// stdstream), and makes the payload bytes available in wire order
// through Read. Callers that want stdout and stderr separated subscribe
// per channel with OnChannel; both views observe the same parse events.
// The write side forwards bytes to the socket unframed, because the
// engine expects raw stdin bytes, and reports completion only once the
// transport has accepted them.
//
// Backpressure lives at the Read handoff: delivery pauses while the
// caller is not reading and resumes without loss. That means the merged
// bytes must be drained for the session to make progress even when a
// caller only cares about the per-channel callbacks; io.Copy(io.Discard,
// stream) suffices.
//
// A session moves through open → (half-closed-write | half-closed-read)
// → closed, with errored reachable from any non-terminal state on a
// transport fault. No transition leaves a terminal state. There is no
// protocol-level timeout: a caller wanting one races Done against its
// own timer and force-closes, or cancels the context passed to New.
package duplex
