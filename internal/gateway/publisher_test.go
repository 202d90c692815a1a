package gateway

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEchoListener(t *testing.T, path string) chan string {
	t.Helper()
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	received := make(chan string, 16)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					received <- scanner.Text()
				}
			}()
		}
	}()
	t.Cleanup(func() { listener.Close() })
	return received
}

func TestPublisher_PublishDeliversFrame(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "publish.sock")
	received := startEchoListener(t, sock)

	p := NewPublisher(sock, 4, logrus.New().WithField("test", true))
	require.NoError(t, p.Publish([]byte(`{"amount":"1.00"}`)))

	assert.Equal(t, `{"amount":"1.00"}`, <-received)
}

func TestPublisher_PoolNeverExceedsMax(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "publish.sock")
	startEchoListener(t, sock)

	const max = 3
	p := NewPublisher(sock, max, logrus.New().WithField("test", true))

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Publish([]byte("x")))
	}
	assert.LessOrEqual(t, len(p.pool), max)
}

func TestPublisher_PublishFailsWhenNoListener(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "nobody-listening.sock")
	p := NewPublisher(sock, 4, logrus.New().WithField("test", true))
	assert.ErrorIs(t, p.Publish([]byte("x")), ErrPublishFailed)
}
