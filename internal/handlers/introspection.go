package handlers

import (
	"context"
	"encoding/json"

	"github.com/tendant/simple-media-preproc/internal/card"
	"github.com/tendant/simple-media-preproc/internal/metrics"
	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// RegisterIntrospection adds the discovery and metrics operations. It runs
// after RegisterAll so the capability card covers the full registration table.
func RegisterIntrospection(r *router.Router, builder *card.Builder, collector *metrics.Collector) error {
	if err := r.Register(router.Registration{
		Name:        mediaproc.OpCapabilities,
		Description: "Return the service capability card with all operations and the active backend",
		Tags:        []string{"metadata", "discovery"},
		Idempotent:  true,
		InputSchema: emptySchema(),
		Handler: func(_ context.Context, _ json.RawMessage, _ map[string]string) (any, error) {
			return builder.Build(), nil
		},
	}); err != nil {
		return err
	}

	return r.Register(router.Registration{
		Name:        mediaproc.OpMetrics,
		Description: "Return a point-in-time snapshot of request counters and latency percentiles",
		Tags:        []string{"metadata", "observability"},
		Idempotent:  true,
		InputSchema: emptySchema(),
		Handler: func(_ context.Context, _ json.RawMessage, _ map[string]string) (any, error) {
			return collector.Summary(), nil
		},
	})
}
