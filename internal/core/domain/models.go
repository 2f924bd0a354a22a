package domain

import "fmt"

// FormatClass selects the kind of artifact a download produces.
type FormatClass string

const (
	FormatVideo FormatClass = "video"
	FormatAudio FormatClass = "audio"
)

// Valid reports whether the class is one of the supported values.
func (c FormatClass) Valid() bool {
	return c == FormatVideo || c == FormatAudio
}

// Rendition is one downloadable quality option for a source. FileSize
// is the human-readable rendering, not the raw byte count.
type Rendition struct {
	Height   int    `json:"height"`
	FileSize string `json:"filesize"`
	FormatID string `json:"format_id"`
}

// VideoMetadata describes a probed source. Renditions are sorted by
// height descending and carry pairwise-distinct heights.
type VideoMetadata struct {
	Title      string      `json:"title"`
	Duration   int         `json:"duration"`
	Thumbnail  string      `json:"thumbnail"`
	Renditions []Rendition `json:"formats"`
}

// DownloadRequest is a caller's instruction to produce one artifact.
// Height is only consulted for video requests.
type DownloadRequest struct {
	URL    string      `json:"url"`
	Class  FormatClass `json:"type"`
	Height int         `json:"resolution"`
}

// Validate checks the fields a caller controls.
func (r DownloadRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if !r.Class.Valid() {
		return fmt.Errorf("%w: unknown format type %q", ErrInvalidInput, string(r.Class))
	}
	if r.Class == FormatVideo && r.Height <= 0 {
		return fmt.Errorf("%w: a positive resolution is required for video", ErrInvalidInput)
	}
	return nil
}

// DownloadResult reports a finished download. Filename is the
// sanitized basename the artifact is served back under.
type DownloadResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
}
