package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"rinha-backend-golang/internal/models"
)

func newTestStore(capacity int) *Store {
	return &Store{
		ch:  make(chan models.Payment, capacity),
		log: logrus.New().WithField("test", true),
	}
}

func TestPush_NonBlockingDropsOnOverflow(t *testing.T) {
	s := newTestStore(1)

	s.Push(models.Payment{CorrelationID: uuid.New()})
	s.Push(models.Payment{CorrelationID: uuid.New()}) // dropped, channel full

	assert.Len(t, s.ch, 1)
}

func TestDrain_CollectsEverythingQueuedWithoutBlocking(t *testing.T) {
	s := newTestStore(4)
	for i := 0; i < 3; i++ {
		s.Push(models.Payment{CorrelationID: uuid.New()})
	}

	var buf []models.Payment
	s.drain(&buf)

	assert.Len(t, buf, 3)
	assert.Len(t, s.ch, 0)
}
