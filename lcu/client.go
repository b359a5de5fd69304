package lcu

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"
)

const (
	// RequestTimeout bounds every call against the local service. There is no
	// per-call override.
	RequestTimeout = 10 * time.Second
	// DefaultUserAgent identifies this client to the local service.
	DefaultUserAgent = "uggo-lol-client/0.5.1"

	dialTimeout     = 5 * time.Second
	maxResponseBody = 16 << 20
	maxErrorBody    = 8 << 10
)

var relaxedTrustOnce sync.Once

// Client is an authenticated session against the local client API. It is
// immutable after construction and safe for concurrent use. A Client is bound
// to one client launch; when the game client restarts, discard it and build a
// new one from fresh Credentials.
type Client struct {
	baseURL   string
	http      *http.Client
	transport *http.Transport
	logger    *log.Logger
}

type clientOptions struct {
	logger    *log.Logger
	userAgent string
}

// Option customises NewClient.
type Option func(*clientOptions)

// WithLogger logs method, endpoint, status, and latency of each call. Headers
// and credentials are never logged.
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// NewClient builds a session for creds. The returned client owns its own
// transport: the relaxed certificate handling it needs for the local
// service's self-signed certificate never touches http.DefaultTransport, and
// its dialer refuses every address except creds.HostPort().
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	options := clientOptions{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&options)
	}

	protocol := strings.ToLower(creds.Protocol)
	if protocol != "http" && protocol != "https" {
		return nil, &BuildError{Reason: fmt.Sprintf("unsupported protocol %q", creds.Protocol)}
	}
	if creds.Port == 0 {
		return nil, &BuildError{Reason: "port is zero"}
	}
	if creds.Address == "" {
		return nil, &BuildError{Reason: "address is empty"}
	}
	endpoint := creds.HostPort()
	if !httpguts.ValidHostHeader(endpoint) {
		return nil, &BuildError{Reason: fmt.Sprintf("invalid address %q", creds.Address)}
	}
	if !httpguts.ValidHeaderFieldValue(options.userAgent) {
		return nil, &BuildError{Reason: "invalid user agent"}
	}
	authorization := "Basic " + creds.AuthToken()

	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if addr != endpoint {
				return nil, fmt.Errorf("%w: %s", ErrForeignHost, addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: dialTimeout,
	}
	if protocol == "https" {
		pin := &certificatePin{}
		transport.TLSClientConfig = &tls.Config{
			// The local service presents a self-signed certificate generated per
			// launch. Chain verification is replaced by pinning the first
			// certificate this session sees.
			InsecureSkipVerify: true,
			VerifyConnection:   pin.verify,
			MinVersion:         tls.VersionTLS12,
		}
		warnRelaxedTrust(options.logger)
	}

	return &Client{
		baseURL: protocol + "://" + endpoint,
		http: &http.Client{
			Timeout: RequestTimeout,
			Transport: &authTransport{
				base:          transport,
				authorization: authorization,
				userAgent:     options.userAgent,
			},
		},
		transport: transport,
		logger:    options.logger,
	}, nil
}

// BaseURL returns protocol://127.0.0.1:port.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close drops pooled connections. The client must not be used afterwards.
func (c *Client) Close() {
	if c != nil && c.transport != nil {
		c.transport.CloseIdleConnections()
	}
}

// Get issues GET endpoint and decodes a 2xx JSON body into T.
func Get[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}

// Post sends body as JSON to endpoint and decodes a 2xx JSON body into R.
func Post[T, R any](ctx context.Context, c *Client, endpoint string, body T) (R, error) {
	var out R
	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encode %s body: %w", endpoint, err)
	}
	err = c.do(ctx, http.MethodPost, endpoint, payload, &out)
	return out, err
}

// Delete issues DELETE endpoint. The response body is discarded.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logf("%s %s failed after %s: %v", method, endpoint, time.Since(start).Round(time.Millisecond), err)
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.logf("%s %s -> %d (%s)", method, endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Code:     resp.StatusCode,
			Method:   method,
			Endpoint: endpoint,
			Body:     readErrorBody(resp.Body),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodeError{Endpoint: endpoint, Err: ErrEmptyBody}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf("lcu: "+format, args...)
	}
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// authTransport attaches the session headers to a clone of each request so
// callers' requests are never mutated.
type authTransport struct {
	base          http.RoundTripper
	authorization string
	userAgent     string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", t.authorization)
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// certificatePin accepts the first leaf certificate presented and rejects any
// other one for the rest of the session.
type certificatePin struct {
	mu     sync.Mutex
	sum    [sha256.Size]byte
	pinned bool
}

func (p *certificatePin) verify(state tls.ConnectionState) error {
	if len(state.PeerCertificates) == 0 {
		return errors.New("local service presented no certificate")
	}
	sum := sha256.Sum256(state.PeerCertificates[0].Raw)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pinned {
		p.sum = sum
		p.pinned = true
		return nil
	}
	if p.sum != sum {
		return ErrCertificateChanged
	}
	return nil
}

// warnRelaxedTrust logs once per process that certificate verification is
// relaxed for the local service.
func warnRelaxedTrust(logger *log.Logger) {
	relaxedTrustOnce.Do(func() {
		msg := "[TLS] certificate chain verification is disabled for the local League client endpoint only"
		if logger != nil {
			logger.Print(msg)
			return
		}
		log.Print(msg)
	})
}
