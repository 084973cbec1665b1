// Package transport builds the HTTP clients used to reach store APIs.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// DefaultUserAgent identifies the service to store operators.
const DefaultUserAgent = "autoparse/1.0"

// Options configures NewClient.
type Options struct {
	// Timeout bounds dialing and each whole request.
	Timeout time.Duration

	// Fingerprint selects the Chrome TLS fingerprint transport. When false
	// the standard library transport is used.
	Fingerprint bool

	// UserAgent is sent on every request. Empty means DefaultUserAgent.
	UserAgent string
}

// NewClient returns an HTTP client for talking to a shop's REST API.
func NewClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	var base http.RoundTripper
	if opts.Fingerprint {
		base = NewChromeTransport(opts.Timeout)
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{Timeout: opts.Timeout}).DialContext
		base = t
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{next: base, userAgent: opts.UserAgent},
	}
}

// userAgentTransport sets User-Agent unless the request already carries one.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}

// =============================================================================
// TLS FINGERPRINT TRANSPORT
// =============================================================================
//
// Shared WordPress hosts commonly sit behind a CDN or WAF that scores clients
// by their TLS fingerprint. Go's default ClientHello scores badly and the
// REST API then answers with challenge pages or 403s.
//
// This transport presents a Chrome ClientHello through uTLS:
//
//   1. uTLS with HelloChrome_Auto builds the handshake
//   2. ALPN offers h2 and http/1.1
//   3. http2.Transport frames the request when h2 is negotiated
//
// Requests without a body that fail on h2 are retried once over HTTP/1.1.
// =============================================================================

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint to upstream servers.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
	}

	h1Transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2:   false,
		TLSHandshakeTimeout: timeout,
	}

	return &chromeTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Plain http never negotiates ALPN.
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody {
		return nil, err
	}
	return t.h1.RoundTrip(req)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", host, err)
	}

	return tlsConn, nil
}
