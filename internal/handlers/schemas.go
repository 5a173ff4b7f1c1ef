package handlers

import "github.com/tendant/simple-media-preproc/internal/schema"

func floatPtr(v float64) *float64 { return &v }

func rawPreviewSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"input_path":        {Type: "string", Description: "Path to the RAW photo"},
			"quality":           {Type: "integer", Description: "Encode quality (default 92)", Minimum: floatPtr(1), Maximum: floatPtr(100)},
			"max_dimension":     {Type: "integer", Description: "Longer-side bound in pixels (default 2048)", Minimum: floatPtr(1)},
			"format":            {Type: "string", Description: "Output format (default jpg)", Enum: []string{"jpg", "jpeg", "png"}},
			"force_full_decode": {Type: "boolean", Description: "Skip cheaper tiers, decode at maximum quality"},
		},
		Required: []string{"input_path"},
	}
}

func rawPreviewBatchSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"input_paths":       {Type: "array", Description: "Paths to the RAW photos"},
			"quality":           {Type: "integer", Description: "Encode quality (default 92)", Minimum: floatPtr(1), Maximum: floatPtr(100)},
			"max_dimension":     {Type: "integer", Description: "Longer-side bound in pixels (default 2048)", Minimum: floatPtr(1)},
			"format":            {Type: "string", Description: "Output format (default jpg)", Enum: []string{"jpg", "jpeg", "png"}},
			"force_full_decode": {Type: "boolean", Description: "Skip cheaper tiers, decode at maximum quality"},
		},
		Required: []string{"input_paths"},
	}
}

func pathSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"input_path": {Type: "string", Description: "Path to the source file"},
		},
		Required: []string{"input_path"},
	}
}

func imagePreprocessSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"input_path":  {Type: "string", Description: "Path to the input image"},
			"output_path": {Type: "string", Description: "Path to the output image"},
			"width":       {Type: "integer", Description: "Target width (default 336)", Minimum: floatPtr(1)},
			"height":      {Type: "integer", Description: "Target height (default 336)", Minimum: floatPtr(1)},
			"quality":     {Type: "integer", Description: "Quality for lossy formats (default 90)", Minimum: floatPtr(1), Maximum: floatPtr(100)},
			"format":      {Type: "string", Description: "Output format (default jpg)", Enum: []string{"jpg", "jpeg", "png", "gif", "tif", "tiff", "bmp"}},
		},
		Required: []string{"input_path", "output_path"},
	}
}

func audioPreprocessSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"input_path":  {Type: "string", Description: "Path to the input audio file"},
			"output_path": {Type: "string", Description: "Path to the output audio file"},
			"sample_rate": {Type: "integer", Description: "Target sample rate (default 48000)", Minimum: floatPtr(1)},
			"channels":    {Type: "integer", Description: "Number of channels (default 1)", Minimum: floatPtr(1)},
		},
		Required: []string{"input_path", "output_path"},
	}
}

func videoExtractFramesSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]schema.Property{
			"video_path": {Type: "string", Description: "Path to the video file"},
			"output_dir": {Type: "string", Description: "Directory for extracted frames"},
			"fps":        {Type: "integer", Description: "Frames per second to extract (default 1)", Minimum: floatPtr(1)},
			"width":      {Type: "integer", Description: "Frame width (default 336)", Minimum: floatPtr(1)},
			"height":     {Type: "integer", Description: "Frame height (default 336)", Minimum: floatPtr(1)},
			"max_frames": {Type: "integer", Description: "Maximum number of frames", Minimum: floatPtr(1)},
		},
		Required: []string{"video_path", "output_dir"},
	}
}

func emptySchema() *schema.Schema {
	return &schema.Schema{Type: "object"}
}
