package mediaproc

import "encoding/json"

// Request represents one operation invocation sent to the service
type Request struct {
	Op      string            `json:"op"`
	Input   json.RawMessage   `json:"input"`
	Context map[string]string `json:"context,omitempty"`
}

// Outcome represents the uniform response shape for every request
type Outcome struct {
	OK        bool            `json:"ok"`
	Output    json.RawMessage `json:"output"`
	LatencyMs int64           `json:"latency_ms"`
	Cost      *float64        `json:"cost,omitempty"`
}

// Operation name constants
const (
	OpRawPreview         = "raw.preview"
	OpRawPreviewBatch    = "raw.preview_batch"
	OpRawMetadata        = "raw.metadata"
	OpMediaMetadata      = "media.metadata"
	OpImagePreprocess    = "image.preprocess"
	OpAudioPreprocess    = "audio.preprocess"
	OpVideoExtractFrames = "video.extract_frames"
	OpCapabilities       = "media.capabilities"
	OpMetrics            = "media.metrics"
)

// Error kind constants used in error outputs
const (
	KindUnsupportedOperation = "UnsupportedOperation"
	KindValidationError      = "ValidationError"
	KindNoUsablePreview      = "NoUsablePreview"
	KindExternalToolFailure  = "ExternalToolFailure"
	KindInternalError        = "InternalError"
)

// ErrorOutput is the structured error payload placed in Outcome.Output when OK is false
type ErrorOutput struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Op     string            `json:"op,omitempty"`
	Field  string            `json:"field,omitempty"`
	Detail map[string]string `json:"detail,omitempty"`
}
