// Package mediameta extracts metadata from any media file through an ordered
// backend chain: exiftool (richest), then ffprobe, then a plain extension
// sniff that always succeeds. A missing tool is a decline, not a failure.
package mediameta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-media-preproc/internal/cascade"
)

// Info is universal media metadata plus the backend that produced it
type Info struct {
	SourceFile string         `json:"source_file"`
	MimeType   string         `json:"mime_type"`
	FileType   string         `json:"file_type"`
	FileSize   int64          `json:"file_size"`
	Backend    string         `json:"backend"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Extractor runs the metadata backend chain
type Extractor struct {
	exiftool string
	ffprobe  string
}

// New creates an extractor with the standard tool names
func New() *Extractor {
	return &Extractor{exiftool: "exiftool", ffprobe: "ffprobe"}
}

// Extract reads metadata for path. The terminal sniff backend cannot fail, so
// Extract only errors when the file itself is missing.
func (e *Extractor) Extract(ctx context.Context, path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source not readable: %w", err)
	}
	size := stat.Size()

	candidates := []cascade.Candidate[*Info]{
		{Name: "exiftool", Attempt: func() cascade.Result[*Info] { return e.viaExiftool(ctx, path, size) }},
		{Name: "ffprobe", Attempt: func() cascade.Result[*Info] { return e.viaFfprobe(ctx, path, size) }},
		{Name: "sniff", Attempt: func() cascade.Result[*Info] { return cascade.Ok(sniff(path, size)) }},
	}

	info, winner, _, err := cascade.Run(candidates)
	if err != nil {
		// Unreachable: sniff always succeeds
		return sniff(path, size), nil
	}
	info.Backend = winner
	return info, nil
}

func (e *Extractor) viaExiftool(ctx context.Context, path string, size int64) cascade.Result[*Info] {
	if _, err := exec.LookPath(e.exiftool); err != nil {
		return cascade.Decline[*Info]()
	}

	out, err := runTool(ctx, e.exiftool, "-j", "-n", path)
	if err != nil {
		return cascade.Fail[*Info](err)
	}

	var records []map[string]any
	if err := json.Unmarshal(out, &records); err != nil || len(records) == 0 {
		return cascade.Fail[*Info](fmt.Errorf("exiftool output not parseable: %v", err))
	}

	fields := records[0]
	info := sniff(path, size)
	if mime, ok := fields["MIMEType"].(string); ok {
		info.MimeType = mime
	}
	if ft, ok := fields["FileType"].(string); ok {
		info.FileType = ft
	}
	info.Fields = fields
	return cascade.Ok(info)
}

func (e *Extractor) viaFfprobe(ctx context.Context, path string, size int64) cascade.Result[*Info] {
	if _, err := exec.LookPath(e.ffprobe); err != nil {
		return cascade.Decline[*Info]()
	}

	out, err := runTool(ctx, e.ffprobe, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return cascade.Fail[*Info](err)
	}

	var probed map[string]any
	if err := json.Unmarshal(out, &probed); err != nil {
		return cascade.Fail[*Info](fmt.Errorf("ffprobe output not parseable: %w", err))
	}

	info := sniff(path, size)
	info.Fields = probed
	return cascade.Ok(info)
}

func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("%s failed: %s", name, diag)
	}
	return stdout.Bytes(), nil
}

// sniff is the terminal backend: extension-based MIME detection only
func sniff(path string, size int64) *Info {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return &Info{
		SourceFile: path,
		MimeType:   mimeByExtension(ext),
		FileType:   strings.ToUpper(ext),
		FileSize:   size,
	}
}

func mimeByExtension(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "tif", "tiff":
		return "image/tiff"
	case "heic":
		return "image/heic"
	case "avif":
		return "image/avif"
	case "cr2", "cr3", "nef", "arw", "dng", "raf", "orf", "rw2":
		return "image/x-raw"
	case "mp4":
		return "video/mp4"
	case "mov":
		return "video/quicktime"
	case "mkv":
		return "video/x-matroska"
	case "webm":
		return "video/webm"
	case "avi":
		return "video/x-msvideo"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "aac":
		return "audio/aac"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
