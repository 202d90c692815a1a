package receiver

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"rinha-backend-golang/internal/models"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	msgs []models.PaymentMessage
	err  error
}

func (s *recordingSubmitter) Submit(msg models.PaymentMessage) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestReceiver_SubmitsWellFormedFramesAndDropsMalformed(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "receiver.sock")
	sub := &recordingSubmitter{}
	log := logrus.New().WithField("test", true)

	r := New(sock, sub, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)
	waitForSocket(t, sock)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"amount":"10.00","correlationId":"00000000-0000-0000-0000-000000000001"}` + "\n"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)
	_, err = conn.Write([]byte(`{"amount":"5.00","correlationId":"00000000-0000-0000-0000-000000000002"}` + "\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sub.count() == 2 }, time.Second, time.Millisecond)
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("receiver socket %s never came up", path)
}
