package preview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBatchKeepsInputOrder(t *testing.T) {
	dec := &fakeDecoder{embedded: testImage(64, 64)}
	p := New(dec, referenceResizer())

	paths := []string{"/p/a.cr2", "/p/b.cr2", "/p/c.cr2", "/p/d.cr2", "/p/e.cr2"}
	results := p.ExtractBatch(context.Background(), paths, DefaultOptions(), 2)

	require.Len(t, results, len(paths))
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
		require.NoError(t, res.Err)
		assert.Equal(t, TierEmbeddedPreview, res.Result.SourceTier)
	}
}

func TestExtractBatchFailuresDoNotAbort(t *testing.T) {
	// Every tier fails, so every entry gets its own NoUsablePreviewError
	dec := &fakeDecoder{}
	dec.embeddedErr = assert.AnError
	dec.reducedErr = assert.AnError
	dec.fullErr = assert.AnError
	p := New(dec, referenceResizer())

	results := p.ExtractBatch(context.Background(), []string{"/p/a.cr2", "/p/b.cr2"}, DefaultOptions(), 0)

	require.Len(t, results, 2)
	for _, res := range results {
		require.Error(t, res.Err)
		var nup *NoUsablePreviewError
		assert.ErrorAs(t, res.Err, &nup)
	}
}

func TestExtractBatchEmptyInput(t *testing.T) {
	p := New(&fakeDecoder{}, referenceResizer())
	assert.Empty(t, p.ExtractBatch(context.Background(), nil, DefaultOptions(), 4))
}
