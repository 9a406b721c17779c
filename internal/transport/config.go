// Package transport holds the shared HTTP transport settings for calls from
// the bridge to its backend. It has no dependencies so any package can read it.
package transport

import "time"

// Config holds HTTP transport settings for backend traffic.
//
// The backend is usually a local agent server whose replies arrive only after
// the whole agent turn completes, so there is no response header timeout: the
// inbound request context is the only bound unless backend.timeout is set.
var Config = struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ResponseHeaderTimeout time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	// HTTP/2 specific settings, used when the backend is reached over TLS
	H2ReadIdleTimeout time.Duration
	H2PingTimeout     time.Duration
}{
	MaxIdleConns:        32,
	MaxIdleConnsPerHost: 8,
	MaxConnsPerHost:     0,

	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 0,
	DialTimeout:           10 * time.Second,
	KeepAlive:             30 * time.Second,

	H2ReadIdleTimeout: 30 * time.Second,
	H2PingTimeout:     15 * time.Second,
}
