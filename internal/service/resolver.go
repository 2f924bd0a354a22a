package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tubegrab/internal/core/domain"
	"tubegrab/internal/core/ports"
	"tubegrab/internal/sizefmt"
)

// botChallenge is the phrase yt-dlp embeds when YouTube interposes its
// sign-in checkpoint instead of serving the format catalog.
const botChallenge = "Sign in to confirm you're not a bot"

// Resolve probes the source and returns its filtered, deduplicated
// rendition catalog, highest first. Probing works without a cookie
// bundle, but sources behind a sign-in wall will fail until the
// operator provides one.
func (s *Service) Resolve(ctx context.Context, source string) (*domain.VideoMetadata, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		if meta, ok := s.cache.Lookup(ctx, source); ok {
			return meta, nil
		}
	}

	opts := ports.ExtractOptions{Quiet: true}
	if s.gate.Authenticated() {
		opts.CookiesFile = s.gate.FilePath()
	}

	raw, err := s.extractor.Probe(ctx, source, opts)
	if err != nil {
		return nil, s.classifyProbeErr(err, source)
	}

	meta := &domain.VideoMetadata{
		Title:      raw.Title,
		Duration:   int(raw.Duration),
		Thumbnail:  raw.Thumbnail,
		Renditions: collectRenditions(raw.Formats),
	}

	if s.cache != nil {
		s.cache.Store(ctx, source, meta)
	}
	return meta, nil
}

// collectRenditions keeps mp4 entries that carry a video track and a
// positive height, one entry per height. The first entry seen at a
// height wins; later ones are dropped even when larger.
func collectRenditions(formats []ports.RawFormat) []domain.Rendition {
	seen := make(map[int]bool)
	renditions := make([]domain.Rendition, 0, len(formats))
	for _, f := range formats {
		if f.Ext != "mp4" || f.VCodec == "" || f.VCodec == "none" || f.Height <= 0 || seen[f.Height] {
			continue
		}
		seen[f.Height] = true

		renditions = append(renditions, domain.Rendition{
			Height:   f.Height,
			FileSize: sizefmt.Size(f.Filesize),
			FormatID: f.FormatID,
		})
	}
	sort.SliceStable(renditions, func(i, j int) bool {
		return renditions[i].Height > renditions[j].Height
	})
	return renditions
}

// classifyProbeErr maps extractor failures onto the service error
// kinds. A sign-in checkpoint inside a tool failure becomes an
// authentication error; anything the tool did not report itself is
// logged and masked.
func (s *Service) classifyProbeErr(err error, source string) error {
	var exErr *domain.ExtractionError
	if errors.As(err, &exErr) {
		if strings.Contains(exErr.Message, botChallenge) {
			return domain.ErrAuthenticationRequired
		}
		return exErr
	}
	s.logger.Printf("unexpected probe failure for %s: %v", source, err)
	return domain.ErrInternal
}
