// Package backend selects the acceleration backend used for compute-heavy
// transforms. Candidates are probed once, in a fixed preference order, and the
// winner is cached for the life of the process. The Reference (CPU) backend
// never fails to initialize, so selection is total.
package backend

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"

	"github.com/tendant/simple-media-preproc/internal/cascade"
)

// Backend identifies one acceleration family
type Backend string

const (
	CUDA      Backend = "cuda"
	ROCm      Backend = "rocm"
	Vulkan    Backend = "vulkan"
	Reference Backend = "reference"
)

// Info returns a human-readable identifier for the backend
func (b Backend) Info() string {
	switch b {
	case CUDA:
		return "NVIDIA CUDA (dedicated GPU)"
	case ROCm:
		return "AMD ROCm (dedicated GPU)"
	case Vulkan:
		return "Vulkan (generic compute)"
	default:
		return "Reference (CPU, Lanczos)"
	}
}

// Probe attempts to initialize one backend; nil means the backend is usable
type Probe func() error

// Candidate pairs a backend with its probe
type Candidate struct {
	Backend Backend
	Probe   Probe
}

// Selector probes candidates once and caches the winner
type Selector struct {
	candidates []Candidate

	once   sync.Once
	mu     sync.Mutex
	active Backend
	probes int
}

// NewSelector creates a selector over an explicit candidate list. The
// Reference terminal candidate is appended automatically if absent.
func NewSelector(candidates []Candidate) *Selector {
	hasReference := false
	for _, c := range candidates {
		if c.Backend == Reference {
			hasReference = true
		}
	}
	if !hasReference {
		candidates = append(candidates, Candidate{Backend: Reference, Probe: func() error { return nil }})
	}
	return &Selector{candidates: candidates}
}

// DefaultCandidates returns the standard probe order: CUDA, ROCm, Vulkan,
// Reference. Entries named in disabled are skipped, which is how acceleration
// feature flags reach the probe.
func DefaultCandidates(disabled map[Backend]bool) []Candidate {
	all := []Candidate{
		{Backend: CUDA, Probe: probeCUDA},
		{Backend: ROCm, Probe: probeROCm},
		{Backend: Vulkan, Probe: probeVulkan},
		{Backend: Reference, Probe: func() error { return nil }},
	}

	var enabled []Candidate
	for _, c := range all {
		if c.Backend != Reference && disabled[c.Backend] {
			continue
		}
		enabled = append(enabled, c)
	}
	return enabled
}

// Select returns the active backend, probing candidates on first use only.
// Selection never fails: the Reference candidate always initializes.
func (s *Selector) Select() Backend {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.probes++

		candidates := make([]cascade.Candidate[Backend], 0, len(s.candidates))
		for _, c := range s.candidates {
			c := c
			candidates = append(candidates, cascade.Candidate[Backend]{
				Name: string(c.Backend),
				Attempt: func() cascade.Result[Backend] {
					if err := c.Probe(); err != nil {
						return cascade.Fail[Backend](err)
					}
					return cascade.Ok(c.Backend)
				},
			})
		}

		// Reference cannot fail, so cascade.Run always succeeds here
		winner, _, _, err := cascade.Run(candidates)
		if err != nil {
			winner = Reference
		}
		s.active = winner
		log.Printf("backend: selected %s (%s)", winner, winner.Info())
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ProbeCount reports how many times hardware probing actually ran
func (s *Selector) ProbeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}

// Reset discards the cached selection so the next Select probes again.
// Intended for tests and explicit hardware re-detection.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.once = sync.Once{}
	s.active = ""
}

func probeCUDA() error {
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return nil
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return nil
	}
	return fmt.Errorf("no NVIDIA driver detected")
}

func probeROCm() error {
	if _, err := os.Stat("/sys/module/amdgpu"); err == nil {
		return nil
	}
	if _, err := exec.LookPath("rocm-smi"); err == nil {
		return nil
	}
	return fmt.Errorf("no ROCm runtime detected")
}

func probeVulkan() error {
	if _, err := exec.LookPath("vulkaninfo"); err == nil {
		return nil
	}
	for _, p := range []string{"/usr/lib/x86_64-linux-gnu/libvulkan.so.1", "/usr/lib/libvulkan.so.1"} {
		if _, err := os.Stat(p); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no Vulkan loader detected")
}
