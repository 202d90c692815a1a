package gateway

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
)

// ErrPublishFailed is returned by Publish on any I/O failure; callers
// surface it as 429 to the HTTP client.
var ErrPublishFailed = errors.New("gateway: publish failed")

// Publisher maintains a small bounded pool of persistent connections to the
// worker's receive socket. Pool-size accounting is a plain atomic counter,
// incremented after a connection enters the pool channel and decremented
// after one leaves it; the channel's capacity of max keeps occupancy from
// ever exceeding max.
type Publisher struct {
	path string
	max  int
	pool chan net.Conn
	size int64
	log  *logrus.Entry
}

// NewPublisher pre-populates up to config.PublisherPrePopulate connections,
// best-effort, before returning.
func NewPublisher(path string, max int, log *logrus.Entry) *Publisher {
	p := &Publisher{
		path: path,
		max:  max,
		pool: make(chan net.Conn, max),
		log:  log,
	}
	for i := 0; i < config.PublisherPrePopulate && i < max; i++ {
		conn, err := net.DialTimeout("unix", path, config.PublisherPrePopulateTimeout)
		if err != nil {
			p.log.WithError(err).Warn("gateway: publisher pre-population dial failed")
			continue
		}
		p.release(conn)
	}
	return p
}

// Publish acquires a connection (from the pool, or by dialing), writes the
// newline-terminated payload, and flushes. On error the connection is torn
// down, the pool size decremented, and a replacement dialed asynchronously.
func (p *Publisher) Publish(payload []byte) error {
	conn, err := p.acquire()
	if err != nil {
		return ErrPublishFailed
	}

	framed := append(append([]byte(nil), payload...), '\n')
	if _, err := conn.Write(framed); err != nil {
		p.discard(conn)
		return ErrPublishFailed
	}

	p.release(conn)
	return nil
}

func (p *Publisher) acquire() (net.Conn, error) {
	select {
	case conn := <-p.pool:
		atomic.AddInt64(&p.size, -1)
		return conn, nil
	default:
	}
	return net.DialTimeout("unix", p.path, config.PublisherDialTimeout)
}

func (p *Publisher) release(conn net.Conn) {
	if atomic.LoadInt64(&p.size) >= int64(p.max) {
		conn.Close()
		return
	}
	select {
	case p.pool <- conn:
		atomic.AddInt64(&p.size, 1)
	default:
		conn.Close()
	}
}

func (p *Publisher) discard(conn net.Conn) {
	conn.Close()
	go p.replace()
}

func (p *Publisher) replace() {
	conn, err := net.DialTimeout("unix", p.path, config.PublisherDialTimeout)
	if err != nil {
		p.log.WithError(err).Warn("gateway: publisher replacement dial failed")
		return
	}
	p.release(conn)
}
