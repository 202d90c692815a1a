// Package ingress implements the round-robin proxy that fronts multiple
// gateway processes, each reachable over its own Unix-domain-socket.
package ingress

import (
	"context"
	"net"
	"net/http"
	"net/http/httputil"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// unixAddr strips the ":port" net/http.Transport appends to a bare host
// (req.URL.Host carries no port for a Unix-domain-socket path) so the
// dialer receives the original socket path.
func unixAddr(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Proxy forwards every accepted HTTP request to one backend chosen by an
// atomic fetch-and-increment counter modulo the backend count. It holds no
// other state.
type Proxy struct {
	backends []string
	counter  uint64
	log      *logrus.Entry
	handler  http.Handler
}

func New(backends []string, log *logrus.Entry) *Proxy {
	p := &Proxy{backends: backends, log: log}
	p.handler = &httputil.ReverseProxy{
		Director:     p.direct,
		Transport:    newTransport(),
		ErrorHandler: p.onError,
	}
	return p
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 2 * time.Second}
	return &http.Transport{
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", unixAddr(addr))
		},
		MaxIdleConns:        2048,
		MaxIdleConnsPerHost: 2048,
		IdleConnTimeout:     2 * time.Second,
		WriteBufferSize:     16 * 1024,
		ReadBufferSize:      16 * 1024,
	}
}

// next returns the backend socket path selected by round robin.
func (p *Proxy) next() string {
	idx := atomic.AddUint64(&p.counter, 1) - 1
	return p.backends[idx%uint64(len(p.backends))]
}

// direct rewrites the request to target the chosen backend, preserving the
// path and query exactly as received. URL.Host carries the backend's socket
// path; the transport's DialContext strips the port net/http appends to a
// bare host and dials that path directly.
func (p *Proxy) direct(req *http.Request) {
	backend := p.next()
	req.URL.Scheme = "http"
	req.URL.Host = backend
}

func (p *Proxy) onError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.WithError(err).Warn("ingress: backend request failed")
	w.WriteHeader(http.StatusBadGateway)
}

// ServeHTTP lets Proxy itself act as the http.Handler passed to the
// listening server.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Run listens on a TCP port (nodelay on, SO_REUSEADDR/SO_REUSEPORT applied
// via the listen config) and serves HTTP until ctx is canceled.
func (p *Proxy) Run(ctx context.Context, port int) error {
	lc := net.ListenConfig{Control: reusePortControl}
	listener, err := lc.Listen(ctx, "tcp", portAddr(port))
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: p}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	p.log.WithField("port", port).Info("ingress: listening")
	if err := srv.Serve(tcpKeepAliveListener{listener.(*net.TCPListener)}); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := ln.TCPListener.AcceptTCP()
	if err != nil {
		return nil, err
	}
	conn.SetNoDelay(true)
	conn.SetKeepAlive(true)
	return conn, nil
}
