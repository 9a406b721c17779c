// Package resilience provides the outbound HTTP transport and the optional
// retry and circuit breaker policies wrapped around backend calls.
package resilience

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nghyane/oc-bridge/internal/transport"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

var (
	sharedTransport     *http.Transport
	sharedTransportOnce sync.Once
)

// SharedTransport returns the singleton transport for direct backend calls.
func SharedTransport() *http.Transport {
	sharedTransportOnce.Do(func() {
		sharedTransport = newBaseTransport()
		sharedTransport.DialContext = newDialer().DialContext
	})
	return sharedTransport
}

func newDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   transport.Config.DialTimeout,
		KeepAlive: transport.Config.KeepAlive,
	}
}

// newBaseTransport creates a transport without DialContext; callers set it.
func newBaseTransport() *http.Transport {
	t := &http.Transport{
		MaxIdleConns:          transport.Config.MaxIdleConns,
		MaxIdleConnsPerHost:   transport.Config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       transport.Config.MaxConnsPerHost,
		IdleConnTimeout:       transport.Config.IdleConnTimeout,
		TLSHandshakeTimeout:   transport.Config.TLSHandshakeTimeout,
		ExpectContinueTimeout: transport.Config.ExpectContinueTimeout,
		ResponseHeaderTimeout: transport.Config.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		// The backend client negotiates and decodes encodings itself.
		DisableCompression: true,
	}
	if h2, err := http2.ConfigureTransports(t); err == nil {
		h2.ReadIdleTimeout = transport.Config.H2ReadIdleTimeout
		h2.PingTimeout = transport.Config.H2PingTimeout
	}
	return t
}

// proxyTransport builds a transport that goes through proxyURL.
// Supported schemes: http, https, socks5.
func proxyTransport(proxyURL *url.URL) (*http.Transport, error) {
	t := newBaseTransport()
	switch proxyURL.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(proxyURL)
		t.DialContext = newDialer().DialContext
	case "socks5":
		var auth *proxy.Auth
		if proxyURL.User != nil {
			password, _ := proxyURL.User.Password()
			auth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, newDialer())
		if err != nil {
			return nil, err
		}
		t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
	return t, nil
}

// NewHTTPClient returns a client using the shared transport, or a dedicated
// proxy transport when proxyURL is set. timeout 0 means no client timeout.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Transport: SharedTransport(), Timeout: timeout}, nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	t, err := proxyTransport(parsed)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: t, Timeout: timeout}, nil
}
