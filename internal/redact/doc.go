// Package redact scrubs credentials out of text that is about to leave the
// process through an error, a log line or an HTTP response.
//
// Oracle endpoints sometimes echo the request headers or the offending key
// in their error bodies. Provider errors pass those bodies through [Body]
// before wrapping them.
package redact
