// Package attach provides the session-boundary helpers around a duplex
// container stream: dialing the engine socket, parsing host references,
// and relaying a live session to the local terminal.
//
// How the raw attach/exec socket is obtained from the engine's REST
// surface is deliberately out of scope; these helpers start where a
// connection already exists or where the caller knows the socket
// address.
package attach
