package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"tubegrab/internal/core/domain"
	"tubegrab/internal/core/ports"
)

const (
	// DefaultBinary is used when no explicit path is configured.
	DefaultBinary = "yt-dlp"

	defaultProbeTimeout = 45 * time.Second
	defaultFetchTimeout = 10 * time.Minute
)

// Extractor implements ports.Extractor by driving the local yt-dlp
// binary.
type Extractor struct {
	binaryPath   string
	probeTimeout time.Duration
	fetchTimeout time.Duration
}

// New creates an Extractor around the given binary path. Zero or
// negative timeouts fall back to the defaults.
func New(binaryPath string, probeTimeout, fetchTimeout time.Duration) *Extractor {
	if binaryPath == "" {
		binaryPath = DefaultBinary
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Extractor{
		binaryPath:   binaryPath,
		probeTimeout: probeTimeout,
		fetchTimeout: fetchTimeout,
	}
}

// mediaInfo mirrors the fields of yt-dlp's --dump-single-json output
// this service consumes.
type mediaInfo struct {
	Title     string        `json:"title"`
	Duration  float64       `json:"duration"`
	Thumbnail string        `json:"thumbnail"`
	Formats   []mediaFormat `json:"formats"`
}

type mediaFormat struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Height   int    `json:"height"`
	Filesize *int64 `json:"filesize"`
}

// Probe runs a metadata-only extraction and parses the format catalog.
func (e *Extractor) Probe(ctx context.Context, url string, opts ports.ExtractOptions) (*ports.RawMediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binaryPath, probeArgs(url, opts)...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, toolError(ctx, err, stderr.String())
	}

	var info mediaInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	raw := &ports.RawMediaInfo{
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
		Formats:   make([]ports.RawFormat, 0, len(info.Formats)),
	}
	for _, f := range info.Formats {
		raw.Formats = append(raw.Formats, ports.RawFormat{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			VCodec:   f.VCodec,
			ACodec:   f.ACodec,
			Height:   f.Height,
			Filesize: f.Filesize,
		})
	}
	return raw, nil
}

// Fetch downloads the source per opts, relaying progress lines to the
// observer and returning the path yt-dlp prints for the finished
// artifact.
func (e *Extractor) Fetch(ctx context.Context, url string, opts ports.ExtractOptions) (*ports.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binaryPath, fetchArgs(url, opts)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start yt-dlp: %w", err)
	}

	var finalPath string
	parser := &progressParser{}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ev, ok := parser.parse(line); ok {
			if opts.OnProgress != nil {
				opts.OnProgress.OnProgress(ev)
			}
			continue
		}
		if !strings.HasPrefix(line, "[") {
			// --print after_move:filepath emits the artifact path on a
			// bare line once the file is in place.
			finalPath = line
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		return nil, toolError(ctx, err, stderr.String())
	}
	if scanErr != nil {
		return nil, fmt.Errorf("read yt-dlp output: %w", scanErr)
	}
	if finalPath == "" {
		return nil, fmt.Errorf("yt-dlp reported no output path")
	}
	return &ports.FetchResult{Filepath: finalPath}, nil
}

// probeArgs builds the argument list for a metadata-only run.
func probeArgs(url string, opts ports.ExtractOptions) []string {
	args := []string{"--dump-single-json", "--skip-download"}
	args = append(args, commonArgs(opts)...)
	return append(args, url)
}

// fetchArgs builds the argument list for a download run.
func fetchArgs(url string, opts ports.ExtractOptions) []string {
	args := commonArgs(opts)
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}
	for _, pp := range opts.Postprocessors {
		if pp.Kind != ports.PostprocessExtractAudio {
			continue
		}
		args = append(args, "-x")
		if pp.Codec != "" {
			args = append(args, "--audio-format", pp.Codec)
		}
		if pp.Quality != "" {
			args = append(args, "--audio-quality", pp.Quality)
		}
	}
	args = append(args,
		"--newline",
		"--progress",
		"--no-simulate",
		"--print", "after_move:filepath",
	)
	return append(args, url)
}

func commonArgs(opts ports.ExtractOptions) []string {
	var args []string
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.CookiesFile != "" {
		args = append(args, "--cookies", opts.CookiesFile)
	}
	return args
}

// toolError classifies a failed run. A non-zero exit means yt-dlp
// itself rejected the job and its stderr carries the authoritative
// message; a dead context or spawn failure is an infrastructure fault.
func toolError(ctx context.Context, err error, stderr string) error {
	if ctx.Err() != nil {
		return fmt.Errorf("yt-dlp did not finish: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := lastErrorLine(stderr)
		if msg == "" {
			msg = strings.TrimSpace(stderr)
		}
		if msg == "" {
			msg = err.Error()
		}
		return &domain.ExtractionError{Message: msg}
	}
	return fmt.Errorf("run yt-dlp: %w", err)
}

// lastErrorLine picks the final "ERROR:" line from stderr, which is
// the message yt-dlp considers fatal; warnings precede it.
func lastErrorLine(stderr string) string {
	var last string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			last = line
		}
	}
	return last
}
