// Package output provides the writer abstraction the library logs
// through. Callers control where and how messages are written instead
// of library code reaching for global state like fmt.Print or
// log.Fatal.
package output
