package ports

import (
	"context"

	"tubegrab/internal/core/domain"
)

// RawFormat is one entry of the extractor's format catalog. Filesize
// is a pointer because catalogs routinely carry a null size, which
// must stay distinguishable from zero bytes.
type RawFormat struct {
	FormatID string
	Ext      string
	VCodec   string
	ACodec   string
	Height   int
	Filesize *int64
}

// RawMediaInfo is the extractor's untranslated view of a source.
type RawMediaInfo struct {
	Title     string
	Duration  float64
	Thumbnail string
	Formats   []RawFormat
}

// FetchResult reports the artifact a fetch produced.
type FetchResult struct {
	// Filepath is the produced file's path as reported by the
	// extraction tool, template-expanded and post-processed.
	Filepath string
}

// PostprocessExtractAudio converts the downloaded stream to an
// audio-only file.
const PostprocessExtractAudio = "ExtractAudio"

// Postprocessor describes one post-download transformation step.
type Postprocessor struct {
	Kind    string
	Codec   string
	Quality string
}

// ExtractOptions carries everything the extraction service accepts
// for a probe or fetch. Zero values mean "omit".
type ExtractOptions struct {
	Quiet          bool
	CookiesFile    string
	Format         string
	OutputTemplate string
	MergeFormat    string
	Postprocessors []Postprocessor
	OnProgress     ProgressObserver
}

// Extractor is the boundary to the external media-extraction service.
// Implementations return *domain.ExtractionError for failures the tool
// itself reports; any other error is treated as an internal fault.
type Extractor interface {
	// Probe retrieves metadata and the format catalog without
	// transferring media bytes.
	Probe(ctx context.Context, url string, opts ExtractOptions) (*RawMediaInfo, error)

	// Fetch downloads the source per opts and reports the produced
	// file. Progress events go to opts.OnProgress when set.
	Fetch(ctx context.Context, url string, opts ExtractOptions) (*FetchResult, error)
}

// Progress statuses reported during a fetch.
const (
	StatusDownloading = "downloading"
	StatusFinished    = "finished"
)

// ProgressEvent is one observation of an in-flight fetch.
type ProgressEvent struct {
	Filename string
	Status   string
	Percent  float64
}

// ProgressObserver receives fetch progress. Calls are synchronous with
// the fetch, so implementations should return quickly.
type ProgressObserver interface {
	OnProgress(ev ProgressEvent)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(ev ProgressEvent)

func (f ProgressFunc) OnProgress(ev ProgressEvent) { f(ev) }

// MetadataCache stores resolved metadata keyed by source URL. Both
// operations are best-effort; implementations swallow backend errors.
type MetadataCache interface {
	// Lookup returns the cached metadata for source, if present.
	Lookup(ctx context.Context, source string) (*domain.VideoMetadata, bool)

	// Store caches the metadata for source.
	Store(ctx context.Context, source string, meta *domain.VideoMetadata)
}

// MediaService is the inbound port the HTTP layer drives.
type MediaService interface {
	// Resolve probes a source and returns its rendition catalog.
	Resolve(ctx context.Context, source string) (*domain.VideoMetadata, error)

	// Download synchronously produces one artifact for the request.
	// obs may be nil.
	Download(ctx context.Context, req domain.DownloadRequest, obs ProgressObserver) (*domain.DownloadResult, error)
}
