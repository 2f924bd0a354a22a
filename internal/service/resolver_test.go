package service

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"tubegrab/internal/core/domain"
	"tubegrab/internal/core/ports"
	"tubegrab/internal/credential"
)

// fakeExtractor scripts Probe/Fetch responses and records the calls it
// receives.
type fakeExtractor struct {
	probeInfo *ports.RawMediaInfo
	probeErr  error
	fetchRes  *ports.FetchResult
	fetchErr  error

	probeCalls int
	fetchCalls int
	lastURL    string
	lastOpts   ports.ExtractOptions
}

func (f *fakeExtractor) Probe(ctx context.Context, url string, opts ports.ExtractOptions) (*ports.RawMediaInfo, error) {
	f.probeCalls++
	f.lastURL = url
	f.lastOpts = opts
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probeInfo, nil
}

func (f *fakeExtractor) Fetch(ctx context.Context, url string, opts ports.ExtractOptions) (*ports.FetchResult, error) {
	f.fetchCalls++
	f.lastURL = url
	f.lastOpts = opts
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchRes, nil
}

// fakeCache is an in-memory ports.MetadataCache.
type fakeCache struct {
	data   map[string]*domain.VideoMetadata
	stores int
}

func (c *fakeCache) Lookup(ctx context.Context, source string) (*domain.VideoMetadata, bool) {
	meta, ok := c.data[source]
	return meta, ok
}

func (c *fakeCache) Store(ctx context.Context, source string, meta *domain.VideoMetadata) {
	c.stores++
	c.data[source] = meta
}

// testService builds a Service around ex with a real gate in a temp
// dir. When authenticated is true a non-empty cookie file is written.
func testService(t *testing.T, ex ports.Extractor, authenticated bool) *Service {
	t.Helper()
	svc, _ := testServiceWithCookies(t, ex, authenticated)
	return svc
}

func testServiceWithCookies(t *testing.T, ex ports.Extractor, authenticated bool) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	cookies := filepath.Join(dir, "cookies.txt")
	if authenticated {
		if err := os.WriteFile(cookies, []byte("session"), 0644); err != nil {
			t.Fatalf("write cookies: %v", err)
		}
	}
	gate := credential.NewGate(cookies)
	logger := log.New(io.Discard, "", 0)
	return New(ex, gate, nil, "downloads", logger), cookies
}

func intp(n int64) *int64 { return &n }

func TestResolve_FiltersAndRanks(t *testing.T) {
	ex := &fakeExtractor{probeInfo: &ports.RawMediaInfo{
		Title:     "Test Video",
		Duration:  213.0,
		Thumbnail: "https://i.example.com/t.jpg",
		Formats: []ports.RawFormat{
			{FormatID: "302", Ext: "webm", VCodec: "vp9", Height: 720},
			{FormatID: "140", Ext: "mp4", VCodec: "none", ACodec: "mp4a", Height: 480},
			{FormatID: "598", Ext: "mp4", VCodec: "avc1", Height: 0},
			{FormatID: "136", Ext: "mp4", VCodec: "avc1", Height: 720, Filesize: intp(2048)},
			{FormatID: "137", Ext: "mp4", VCodec: "avc1", Height: 1080},
			{FormatID: "134", Ext: "mp4", VCodec: "avc1", Height: 360, Filesize: intp(3 * 1024 * 1024)},
			{FormatID: "133", Ext: "mp4", VCodec: "avc1", Height: 240, Filesize: intp(0)},
		},
	}}
	svc := testService(t, ex, false)

	meta, err := svc.Resolve(context.Background(), "https://example.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if meta.Title != "Test Video" || meta.Duration != 213 || meta.Thumbnail == "" {
		t.Errorf("metadata not carried over: %+v", meta)
	}

	want := []domain.Rendition{
		{Height: 1080, FileSize: "Unknown size", FormatID: "137"},
		{Height: 720, FileSize: "2.00 KB", FormatID: "136"},
		{Height: 360, FileSize: "3.00 MB", FormatID: "134"},
		{Height: 240, FileSize: "0.00 B", FormatID: "133"},
	}
	if len(meta.Renditions) != len(want) {
		t.Fatalf("got %d renditions, want %d: %+v", len(meta.Renditions), len(want), meta.Renditions)
	}
	for i, r := range meta.Renditions {
		if r != want[i] {
			t.Errorf("rendition %d = %+v, want %+v", i, r, want[i])
		}
	}
}

func TestResolve_FirstSeenWinsPerHeight(t *testing.T) {
	ex := &fakeExtractor{probeInfo: &ports.RawMediaInfo{
		Formats: []ports.RawFormat{
			{FormatID: "first", Ext: "mp4", VCodec: "avc1", Height: 720, Filesize: intp(100)},
			{FormatID: "second", Ext: "mp4", VCodec: "avc1", Height: 720, Filesize: intp(999999)},
		},
	}}
	svc := testService(t, ex, false)

	meta, err := svc.Resolve(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(meta.Renditions) != 1 {
		t.Fatalf("got %d renditions, want 1", len(meta.Renditions))
	}
	if meta.Renditions[0].FormatID != "first" {
		t.Errorf("kept %q, want the first-seen entry", meta.Renditions[0].FormatID)
	}
}

func TestResolve_DefaultsMissingFields(t *testing.T) {
	ex := &fakeExtractor{probeInfo: &ports.RawMediaInfo{}}
	svc := testService(t, ex, false)

	meta, err := svc.Resolve(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Title != "" || meta.Duration != 0 || meta.Thumbnail != "" {
		t.Errorf("expected zero defaults, got %+v", meta)
	}
	if meta.Renditions == nil || len(meta.Renditions) != 0 {
		t.Errorf("expected an empty rendition list, got %#v", meta.Renditions)
	}
}

func TestResolve_EmptySource(t *testing.T) {
	ex := &fakeExtractor{}
	svc := testService(t, ex, false)

	_, err := svc.Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
	if ex.probeCalls != 0 {
		t.Errorf("extractor probed %d times for an empty source", ex.probeCalls)
	}
}

func TestResolve_CookieAttachedOnlyWhenGateOpen(t *testing.T) {
	ex := &fakeExtractor{probeInfo: &ports.RawMediaInfo{}}
	svc, cookies := testServiceWithCookies(t, ex, true)

	if _, err := svc.Resolve(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ex.lastOpts.Quiet {
		t.Error("probe options should be quiet")
	}
	if ex.lastOpts.CookiesFile != cookies {
		t.Errorf("cookie file = %q, want %q", ex.lastOpts.CookiesFile, cookies)
	}

	ex2 := &fakeExtractor{probeInfo: &ports.RawMediaInfo{}}
	svc2 := testService(t, ex2, false)
	if _, err := svc2.Resolve(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ex2.lastOpts.CookiesFile != "" {
		t.Errorf("cookie file attached without a credential: %q", ex2.lastOpts.CookiesFile)
	}
}

func TestResolve_BotChallengeBecomesAuthRequired(t *testing.T) {
	ex := &fakeExtractor{probeErr: &domain.ExtractionError{
		Message: "ERROR: [youtube] abc: Sign in to confirm you're not a bot. Use --cookies for authentication",
	}}
	svc := testService(t, ex, false)

	_, err := svc.Resolve(context.Background(), "https://example.com/v")
	if !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("got %v, want ErrAuthenticationRequired", err)
	}
	var exErr *domain.ExtractionError
	if errors.As(err, &exErr) {
		t.Error("sign-in challenge should not surface as an extraction error")
	}
}

func TestResolve_ExtractionFailureSurfacesMessage(t *testing.T) {
	ex := &fakeExtractor{probeErr: &domain.ExtractionError{
		Message: "ERROR: Unsupported URL: https://example.com/v",
	}}
	svc := testService(t, ex, false)

	_, err := svc.Resolve(context.Background(), "https://example.com/v")
	var exErr *domain.ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("got %v, want an extraction error", err)
	}
	if exErr.Message != "ERROR: Unsupported URL: https://example.com/v" {
		t.Errorf("message mangled: %q", exErr.Message)
	}
}

func TestResolve_UnexpectedFailureIsOpaque(t *testing.T) {
	ex := &fakeExtractor{probeErr: errors.New(`exec: "yt-dlp": executable file not found in $PATH`)}
	svc := testService(t, ex, false)

	_, err := svc.Resolve(context.Background(), "https://example.com/v")
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("got %v, want ErrInternal", err)
	}
	if err.Error() != domain.ErrInternal.Error() {
		t.Errorf("internal detail leaked: %q", err.Error())
	}
}

func TestResolve_CacheHitSkipsProbe(t *testing.T) {
	cached := &domain.VideoMetadata{Title: "Cached", Renditions: []domain.Rendition{}}
	cache := &fakeCache{data: map[string]*domain.VideoMetadata{
		"https://example.com/v": cached,
	}}
	ex := &fakeExtractor{}
	gate := credential.NewGate(filepath.Join(t.TempDir(), "cookies.txt"))
	svc := New(ex, gate, cache, "downloads", log.New(io.Discard, "", 0))

	meta, err := svc.Resolve(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta != cached {
		t.Error("expected the cached metadata")
	}
	if ex.probeCalls != 0 {
		t.Errorf("extractor probed %d times despite a cache hit", ex.probeCalls)
	}
}

func TestResolve_StoresSuccessfulProbes(t *testing.T) {
	cache := &fakeCache{data: map[string]*domain.VideoMetadata{}}
	ex := &fakeExtractor{probeInfo: &ports.RawMediaInfo{Title: "Fresh"}}
	gate := credential.NewGate(filepath.Join(t.TempDir(), "cookies.txt"))
	svc := New(ex, gate, cache, "downloads", log.New(io.Discard, "", 0))

	if _, err := svc.Resolve(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cache.stores != 1 {
		t.Errorf("cache stored %d times, want 1", cache.stores)
	}
	if _, ok := cache.data["https://example.com/v"]; !ok {
		t.Error("resolved metadata missing from the cache")
	}
}

func TestResolve_FailedProbesAreNotCached(t *testing.T) {
	cache := &fakeCache{data: map[string]*domain.VideoMetadata{}}
	ex := &fakeExtractor{probeErr: &domain.ExtractionError{Message: "ERROR: no deal"}}
	gate := credential.NewGate(filepath.Join(t.TempDir(), "cookies.txt"))
	svc := New(ex, gate, cache, "downloads", log.New(io.Discard, "", 0))

	if _, err := svc.Resolve(context.Background(), "https://example.com/v"); err == nil {
		t.Fatal("expected an error")
	}
	if cache.stores != 0 {
		t.Errorf("cache stored %d times for a failed probe", cache.stores)
	}
}
