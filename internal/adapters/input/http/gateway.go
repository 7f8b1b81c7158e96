package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/domain/rewrite"
	"led-gateway/internal/metrics"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const copyBufferSize = 32 * 1024

// Gateway forwards every request to one upstream origin after stripping the
// configured prefix from the path. It keeps no state between requests.
type Gateway struct {
	cfg     model.GatewayConfig
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Gateway
}

func NewGateway(cfg model.GatewayConfig, client *http.Client, logger *slog.Logger, m *metrics.Gateway) *Gateway {
	return &Gateway{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// NewUpstreamClient returns the client used for outbound calls. It follows
// redirects, never decompresses bodies, and bounds the wait for response
// headers; there is no overall timeout so long bodies can stream.
func NewUpstreamClient(dialTimeout, responseHeaderTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   dialTimeout,
			ExpectContinueTimeout: time.Second,
			ResponseHeaderTimeout: responseHeaderTimeout,
			DisableCompression:    true,
		},
	}
}

func (g *Gateway) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w := &trackingWriter{ResponseWriter: rw}
	log := g.logger.With("request_id", uuid.NewString())

	g.metrics.InFlight.Inc()
	defer g.metrics.InFlight.Dec()

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		log.Error("Gateway panic", "panic", p, "stack", string(debug.Stack()))
		if w.wroteHeader {
			panic(http.ErrAbortHandler)
		}
		g.fail(w, r.Method, start, fmt.Errorf("internal error: %v", p))
	}()

	target, err := rewrite.Resolve(g.cfg.Upstream, g.cfg.Prefix, r.URL)
	if err != nil {
		log.Error("Proxy error", "method", r.Method, "path", r.URL.Path, "error", err)
		g.fail(w, r.Method, start, err)
		return
	}

	log.Info("Proxying request", "method", r.Method, "path", r.URL.Path, "target", target.String())

	out, err := g.outbound(r, target)
	if err != nil {
		log.Error("Proxy error", "method", r.Method, "target", target.String(), "error", err)
		g.fail(w, r.Method, start, err)
		return
	}

	resp, err := g.client.Do(out)
	if err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			log.Warn("Caller went away, upstream call abandoned", "method", r.Method, "target", target.String())
		} else {
			log.Error("Proxy error", "method", r.Method, "target", target.String(), "error", err)
		}
		g.fail(w, r.Method, start, err)
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug("Failed to close upstream body", "error", err)
		}
	}()

	g.metrics.Observe(r.Method, metrics.OutcomeRelayed, time.Since(start))
	if err := g.relay(w, resp); err != nil {
		log.Warn("Relay interrupted", "status", resp.StatusCode, "error", err)
		return
	}
	log.Debug("Request relayed", "status", resp.StatusCode, "duration", time.Since(start))
}

// outbound builds the upstream request. The inbound body is handed over as
// is, so it is streamed rather than buffered.
func (g *Gateway) outbound(r *http.Request, target *url.URL) (*http.Request, error) {
	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength
	if body == nil {
		out.ContentLength = 0
	}

	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	if !g.cfg.ForwardHopHeaders {
		removeHopHeaders(out.Header)
	}
	if _, ok := out.Header["User-Agent"]; !ok {
		// Suppress Go's default User-Agent.
		out.Header.Set("User-Agent", "")
	}
	return out, nil
}

func (g *Gateway) relay(w http.ResponseWriter, resp *http.Response) error {
	h := w.Header()
	copyHeader(h, resp.Header)
	if !g.cfg.ForwardHopHeaders {
		removeHopHeaders(h)
	}
	w.WriteHeader(resp.StatusCode)

	rc := http.NewResponseController(w)
	buf := make([]byte, copyBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return ferr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}

	for k, vv := range resp.Trailer {
		for _, v := range vv {
			h.Add(http.TrailerPrefix+k, v)
		}
	}
	return nil
}

func (g *Gateway) fail(w http.ResponseWriter, method string, start time.Time, err error) {
	g.metrics.Observe(method, metrics.OutcomeFailed, time.Since(start))
	h := w.Header()
	for k := range h {
		delete(h, k)
	}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "Proxy error occurred: %v", err)
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
