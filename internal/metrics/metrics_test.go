package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector() *Collector {
	return New(prometheus.NewRegistry())
}

func TestSuccessRateIsExact(t *testing.T) {
	c := newTestCollector()

	for i := 0; i < 7; i++ {
		c.Record("raw.preview", true, "", 10*time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		c.Record("raw.preview", false, "ExternalToolFailure", 5*time.Millisecond)
	}

	snap := c.Summary()
	assert.Equal(t, int64(10), snap.TotalRequests)
	assert.Equal(t, int64(7), snap.SuccessfulRequests)
	assert.Equal(t, int64(3), snap.FailedRequests)
	assert.Equal(t, 0.7, snap.SuccessRate, "success rate must be exactly successes/total")
	assert.Equal(t, int64(3), snap.FailuresByKind["ExternalToolFailure"])
}

func TestEmptyCollector(t *testing.T) {
	snap := newTestCollector().Summary()
	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.SuccessRate)
	assert.Zero(t, snap.LatencyMs.P50)
	assert.Empty(t, snap.Operations)
}

func TestPerOperationCounters(t *testing.T) {
	c := newTestCollector()
	c.Record("raw.preview", true, "", time.Millisecond)
	c.Record("raw.preview", false, "ValidationError", time.Millisecond)
	c.Record("media.metadata", true, "", time.Millisecond)

	snap := c.Summary()
	require.Contains(t, snap.Operations, "raw.preview")
	require.Contains(t, snap.Operations, "media.metadata")
	assert.Equal(t, OpStats{Total: 2, Successes: 1}, snap.Operations["raw.preview"])
	assert.Equal(t, OpStats{Total: 1, Successes: 1}, snap.Operations["media.metadata"])
}

func TestPercentilesAreMonotonic(t *testing.T) {
	c := newTestCollector()
	for i := 1; i <= 500; i++ {
		c.Record("op", true, "", time.Duration(i)*time.Millisecond)
	}

	lat := c.Summary().LatencyMs
	assert.Greater(t, lat.P50, 0.0)
	assert.LessOrEqual(t, lat.P50, lat.P95)
	assert.LessOrEqual(t, lat.P95, lat.P99)
	// Below reservoir capacity the sample is exact
	assert.InDelta(t, 251, lat.P50, 1.0)
	assert.InDelta(t, 476, lat.P95, 1.0)
}

func TestConcurrentRecord(t *testing.T) {
	c := newTestCollector()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				c.Record("op", i%2 == 0, "InternalError", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Summary()
	assert.Equal(t, int64(2000), snap.TotalRequests)
	assert.Equal(t, int64(1000), snap.SuccessfulRequests)
	assert.Equal(t, int64(1000), snap.FailedRequests)
	assert.Equal(t, 0.5, snap.SuccessRate)
}

func TestFailuresByKindIgnoresEmptyKind(t *testing.T) {
	c := newTestCollector()
	c.Record("op", false, "", time.Millisecond)

	snap := c.Summary()
	assert.Equal(t, int64(1), snap.FailedRequests)
	assert.Empty(t, snap.FailuresByKind)
}
