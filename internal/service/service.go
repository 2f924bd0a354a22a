package service

import (
	"log"

	"tubegrab/internal/core/ports"
	"tubegrab/internal/credential"
)

// Service implements the media operations behind the HTTP API:
// rendition resolution and synchronous downloads.
type Service struct {
	extractor   ports.Extractor
	gate        *credential.Gate
	cache       ports.MetadataCache
	downloadDir string
	logger      *log.Logger
}

// New creates a Service. cache may be nil to disable probe caching.
func New(
	extractor ports.Extractor,
	gate *credential.Gate,
	cache ports.MetadataCache,
	downloadDir string,
	logger *log.Logger,
) *Service {
	return &Service{
		extractor:   extractor,
		gate:        gate,
		cache:       cache,
		downloadDir: downloadDir,
		logger:      logger,
	}
}
