package card

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media-preproc/internal/backend"
	"github.com/tendant/simple-media-preproc/internal/metrics"
	"github.com/tendant/simple-media-preproc/internal/router"
)

func noopHandler(_ context.Context, _ json.RawMessage, _ map[string]string) (any, error) {
	return "ok", nil
}

func TestBuildIncludesLateRegistrations(t *testing.T) {
	r := router.New(metrics.New(prometheus.NewRegistry()))
	require.NoError(t, r.Register(router.Registration{
		Name:        "raw.preview",
		Description: "Generate a preview from a RAW photo",
		Idempotent:  true,
		Handler:     noopHandler,
	}))

	selector := backend.NewSelector(nil)
	b := NewBuilder("media-preproc", "1.0.0", "test card", []string{"media"}, r, selector)

	// Introspection operations register after the builder exists but before
	// the first Build; the card must include them.
	require.NoError(t, r.Register(router.Registration{
		Name:        "media.capabilities",
		Description: "Describe this service",
		Idempotent:  true,
		Handler:     noopHandler,
	}))

	card := b.Build()
	assert.Equal(t, "media-preproc", card.Name)
	assert.Equal(t, "1.0.0", card.Version)

	names := make([]string, 0, len(card.Functions))
	for _, f := range card.Functions {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"raw.preview", "media.capabilities"}, names)
}

func TestBuildIsStableAcrossCalls(t *testing.T) {
	r := router.New(metrics.New(prometheus.NewRegistry()))
	require.NoError(t, r.Register(router.Registration{Name: "op.a", Handler: noopHandler}))

	b := NewBuilder("svc", "0.1.0", "", nil, r, backend.NewSelector(nil))
	first := b.Build()

	// Registrations after the first Build do not change the published card
	require.NoError(t, r.Register(router.Registration{Name: "op.b", Handler: noopHandler}))
	second := b.Build()

	assert.Len(t, first.Functions, 1)
	assert.Len(t, second.Functions, 1)
}

func TestBuildReportsProbeWinner(t *testing.T) {
	r := router.New(metrics.New(prometheus.NewRegistry()))
	selector := backend.NewSelector([]backend.Candidate{
		{Backend: backend.Vulkan, Probe: func() error { return nil }},
	})

	card := NewBuilder("svc", "0.1.0", "", nil, r, selector).Build()
	assert.Equal(t, "vulkan", card.Backend.Active)
	assert.Equal(t, backend.Vulkan.Info(), card.Backend.Info)
}

func TestSideEffectsNeverNull(t *testing.T) {
	r := router.New(metrics.New(prometheus.NewRegistry()))
	require.NoError(t, r.Register(router.Registration{Name: "op.pure", Handler: noopHandler}))

	card := NewBuilder("svc", "0.1.0", "", nil, r, backend.NewSelector(nil)).Build()
	require.Len(t, card.Functions, 1)
	require.NotNil(t, card.Functions[0].SideEffects)

	// The wire form must say [] rather than null
	raw, err := json.Marshal(card.Functions[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"side_effects":[]`)
}
