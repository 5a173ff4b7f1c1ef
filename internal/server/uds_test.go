package server

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media-preproc/internal/metrics"
	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	collector := metrics.New(prometheus.NewRegistry())
	r := router.New(collector)
	require.NoError(t, r.Register(router.Registration{
		Name: "media.echo",
		Handler: func(_ context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			return map[string]string{"echo": string(input)}, nil
		},
	}))

	socketPath := filepath.Join(t.TempDir(), "preproc.sock")
	srv := NewUDSServer(socketPath, r, "test", 2)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := srv.Serve(ctx); err != nil {
			t.Errorf("serve failed: %v", err)
		}
	}()

	// Wait for the listener to come up
	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	return socketPath
}

func roundTrip(t *testing.T, conn net.Conn, req mediaproc.Request) mediaproc.Outcome {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, writeFrame(conn, payload))

	frame, err := readFrame(conn)
	require.NoError(t, err)

	var outcome mediaproc.Outcome
	require.NoError(t, json.Unmarshal(frame, &outcome))
	return outcome
}

func TestUDSServerDispatch(t *testing.T) {
	socketPath := startTestServer(t)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	outcome := roundTrip(t, conn, mediaproc.Request{
		Op:    "media.echo",
		Input: json.RawMessage(`{"path":"/a.cr2"}`),
	})
	assert.True(t, outcome.OK)
	assert.Contains(t, string(outcome.Output), "/a.cr2")
}

func TestUDSServerHealthBypassesRouting(t *testing.T) {
	socketPath := startTestServer(t)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	for _, op := range []string{"health", "health.check"} {
		outcome := roundTrip(t, conn, mediaproc.Request{Op: op})
		require.True(t, outcome.OK)

		var body map[string]any
		require.NoError(t, json.Unmarshal(outcome.Output, &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "test", body["version"])
	}
}

func TestUDSServerMultipleRequestsPerConnection(t *testing.T) {
	socketPath := startTestServer(t)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 5; i++ {
		outcome := roundTrip(t, conn, mediaproc.Request{Op: "media.echo", Input: json.RawMessage(`{}`)})
		assert.True(t, outcome.OK)
	}
}

func TestUDSServerRejectsMalformedJSON(t *testing.T) {
	socketPath := startTestServer(t)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, []byte("{not json")))
	frame, err := readFrame(conn)
	require.NoError(t, err)

	var outcome mediaproc.Outcome
	require.NoError(t, json.Unmarshal(frame, &outcome))
	assert.False(t, outcome.OK)

	var out mediaproc.ErrorOutput
	require.NoError(t, json.Unmarshal(outcome.Output, &out))
	assert.Equal(t, mediaproc.KindValidationError, out.Kind)
}

func TestToWirePropagatesCost(t *testing.T) {
	cost := 2.0
	outcome := toWire(router.Result{
		OK:      true,
		Output:  map[string]string{"tier": "FastDecode"},
		Latency: 250 * time.Millisecond,
		Cost:    &cost,
	})
	assert.True(t, outcome.OK)
	assert.Equal(t, int64(250), outcome.LatencyMs)
	require.NotNil(t, outcome.Cost)
	assert.Equal(t, 2.0, *outcome.Cost)
}
