package ingress

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNext_DistributesEvenlyAcrossBackends(t *testing.T) {
	backends := []string{"a.sock", "b.sock", "c.sock"}
	p := New(backends, logrus.New().WithField("test", true))

	counts := make(map[string]int)
	const total = 300
	for i := 0; i < total; i++ {
		counts[p.next()]++
	}

	for _, b := range backends {
		assert.Equal(t, total/len(backends), counts[b])
	}
}

func TestNext_HandlesUnevenDistributionWithinOne(t *testing.T) {
	backends := []string{"a.sock", "b.sock"}
	p := New(backends, logrus.New().WithField("test", true))

	counts := make(map[string]int)
	const total = 1001
	for i := 0; i < total; i++ {
		counts[p.next()]++
	}

	for _, b := range backends {
		assert.InDelta(t, total/len(backends), counts[b], 1)
	}
}
