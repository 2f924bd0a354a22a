package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tubegrab/internal/core/domain"
	"tubegrab/internal/core/ports"
	"tubegrab/internal/sanitize"
)

const (
	audioCodec   = "mp3"
	audioQuality = "192"
)

// Download runs one synchronous fetch for the request and reports the
// artifact's filename. Unlike probes, downloads always require the
// cookie bundle; the gate is checked before the extractor is touched.
func (s *Service) Download(ctx context.Context, req domain.DownloadRequest, obs ports.ProgressObserver) (*domain.DownloadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.gate.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}

	opts := ports.ExtractOptions{
		CookiesFile:    s.gate.FilePath(),
		OutputTemplate: filepath.Join(s.downloadDir, "%(title)s.%(ext)s"),
		OnProgress:     obs,
	}
	switch req.Class {
	case domain.FormatVideo:
		opts.Format = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", req.Height)
		opts.MergeFormat = "mp4"
	case domain.FormatAudio:
		opts.Format = "bestaudio/best"
		opts.Postprocessors = []ports.Postprocessor{{
			Kind:    ports.PostprocessExtractAudio,
			Codec:   audioCodec,
			Quality: audioQuality,
		}}
	}

	res, err := s.extractor.Fetch(ctx, req.URL, opts)
	if err != nil {
		return nil, s.classifyFetchErr(err, req.URL)
	}

	path := res.Filepath
	if req.Class == domain.FormatAudio {
		// The extract-audio step produces an mp3 whatever extension the
		// tool reports for the fetched stream.
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	return &domain.DownloadResult{
		Filename: sanitize.Name(stem) + ext,
		Success:  true,
	}, nil
}

// classifyFetchErr surfaces tool-reported failures as-is. The
// credential precondition already ran, so no sign-in remapping
// happens here.
func (s *Service) classifyFetchErr(err error, source string) error {
	var exErr *domain.ExtractionError
	if errors.As(err, &exErr) {
		return exErr
	}
	s.logger.Printf("unexpected fetch failure for %s: %v", source, err)
	return domain.ErrInternal
}
