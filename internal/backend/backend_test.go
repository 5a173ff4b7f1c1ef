package backend

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(b Backend) Candidate {
	return Candidate{Backend: b, Probe: func() error { return errors.New("not present") }}
}

func TestSelectFallsThroughToReference(t *testing.T) {
	s := NewSelector([]Candidate{failing(CUDA), failing(ROCm), failing(Vulkan)})
	assert.Equal(t, Reference, s.Select())
}

func TestSelectPicksFirstUsable(t *testing.T) {
	s := NewSelector([]Candidate{
		failing(CUDA),
		{Backend: ROCm, Probe: func() error { return nil }},
		{Backend: Vulkan, Probe: func() error { t.Fatal("probe after the winner must not run"); return nil }},
	})
	assert.Equal(t, ROCm, s.Select())
}

func TestSelectProbesOnce(t *testing.T) {
	probed := 0
	s := NewSelector([]Candidate{
		{Backend: CUDA, Probe: func() error { probed++; return errors.New("no driver") }},
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Select()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, probed, "hardware probing must run exactly once")
	assert.Equal(t, 1, s.ProbeCount())
	assert.Equal(t, Reference, s.Select())
	assert.Equal(t, 1, s.ProbeCount(), "repeat Select must reuse the cached winner")
}

func TestResetForcesReprobe(t *testing.T) {
	probed := 0
	s := NewSelector([]Candidate{
		{Backend: Vulkan, Probe: func() error { probed++; return nil }},
	})

	require.Equal(t, Vulkan, s.Select())
	s.Reset()
	require.Equal(t, Vulkan, s.Select())
	assert.Equal(t, 2, probed)
	assert.Equal(t, 2, s.ProbeCount())
}

func TestDefaultCandidates(t *testing.T) {
	t.Run("full order", func(t *testing.T) {
		cands := DefaultCandidates(nil)
		require.Len(t, cands, 4)
		assert.Equal(t, CUDA, cands[0].Backend)
		assert.Equal(t, ROCm, cands[1].Backend)
		assert.Equal(t, Vulkan, cands[2].Backend)
		assert.Equal(t, Reference, cands[3].Backend)
	})

	t.Run("disabled entries skipped", func(t *testing.T) {
		cands := DefaultCandidates(map[Backend]bool{CUDA: true, Vulkan: true})
		require.Len(t, cands, 2)
		assert.Equal(t, ROCm, cands[0].Backend)
		assert.Equal(t, Reference, cands[1].Backend)
	})

	t.Run("reference cannot be disabled", func(t *testing.T) {
		cands := DefaultCandidates(map[Backend]bool{
			CUDA: true, ROCm: true, Vulkan: true, Reference: true,
		})
		require.Len(t, cands, 1)
		assert.Equal(t, Reference, cands[0].Backend)
		assert.NoError(t, cands[0].Probe())
	})
}

func TestNewSelectorAppendsReference(t *testing.T) {
	s := NewSelector(nil)
	assert.Equal(t, Reference, s.Select())
}

func TestResizerReportsEffectiveBackend(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 300))

	t.Run("gpu winner delegates to reference", func(t *testing.T) {
		s := NewSelector([]Candidate{{Backend: CUDA, Probe: func() error { return nil }}})
		r := NewResizer(s)

		out, used := r.Resize(src, 100, 75)
		assert.Equal(t, Reference, used, "the substitution must be visible to callers")
		assert.Equal(t, 100, out.Bounds().Dx())
		assert.Equal(t, 75, out.Bounds().Dy())
	})

	t.Run("fit preserves aspect ratio", func(t *testing.T) {
		r := NewResizer(NewSelector(nil))

		out, used := r.FitWithin(src, 200)
		assert.Equal(t, Reference, used)
		assert.Equal(t, 200, out.Bounds().Dx())
		assert.Equal(t, 150, out.Bounds().Dy())
	})

	t.Run("within bounds passes through", func(t *testing.T) {
		r := NewResizer(NewSelector(nil))

		out, _ := r.FitWithin(src, 2048)
		assert.Same(t, image.Image(src), out)
	})

	t.Run("zero max disables bounding", func(t *testing.T) {
		r := NewResizer(NewSelector(nil))

		out, _ := r.FitWithin(src, 0)
		assert.Equal(t, 400, out.Bounds().Dx())
	})
}
