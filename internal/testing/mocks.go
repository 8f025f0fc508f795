package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// MockCatalog is a test double for services.Catalog keyed by lowercased search text.
type MockCatalog struct {
	Tracks   map[string][]models.CatalogRecord
	Artists  map[string][]models.CatalogRecord
	Keywords map[string][]models.CatalogRecord
	Err      error

	mu    sync.Mutex
	Calls []string
}

func (m *MockCatalog) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockCatalog) find(table map[string][]models.CatalogRecord, key string) ([]models.CatalogRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	records := table[strings.ToLower(strings.TrimSpace(key))]
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", shared.ErrLookupFailed, key)
	}
	return records, nil
}

func (m *MockCatalog) SearchTrack(_ context.Context, name string) ([]models.CatalogRecord, error) {
	m.record("track:" + name)
	return m.find(m.Tracks, name)
}

func (m *MockCatalog) SearchArtist(_ context.Context, name string) ([]models.CatalogRecord, error) {
	m.record("artist:" + name)
	return m.find(m.Artists, name)
}

func (m *MockCatalog) Search(_ context.Context, text string) ([]models.CatalogRecord, error) {
	m.record("search:" + text)
	return m.find(m.Keywords, text)
}

func (m *MockCatalog) Name() string { return "mock catalog" }

// MockPlatform is a test double for services.VideoPlatform.
//
// Download writes a small placeholder file named after the video into the target dir.
type MockPlatform struct {
	Results     map[string][]models.VideoCandidate
	Titles      map[string]string
	Durations   map[string]time.Duration
	Meta        map[string]map[string]string
	Playlists   map[string][]models.VideoCandidate
	SearchErr   error
	DownloadErr error

	mu        sync.Mutex
	Downloads []string
}

func (m *MockPlatform) Search(_ context.Context, query string, limit int) ([]models.VideoCandidate, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	results := m.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockPlatform) Title(_ context.Context, url string) (string, error) {
	title, ok := m.Titles[url]
	if !ok {
		return "", fmt.Errorf("%w: no title for %s", shared.ErrServiceUnavailable, url)
	}
	return title, nil
}

func (m *MockPlatform) Duration(_ context.Context, url string) (time.Duration, error) {
	d, ok := m.Durations[url]
	if !ok {
		return 0, fmt.Errorf("%w: no duration for %s", shared.ErrServiceUnavailable, url)
	}
	return d, nil
}

func (m *MockPlatform) Metadata(_ context.Context, url string) (map[string]string, error) {
	meta, ok := m.Meta[url]
	if !ok {
		return nil, fmt.Errorf("%w: no metadata for %s", shared.ErrServiceUnavailable, url)
	}
	return meta, nil
}

func (m *MockPlatform) PlaylistVideos(_ context.Context, url string) ([]models.VideoCandidate, error) {
	videos, ok := m.Playlists[url]
	if !ok {
		return nil, fmt.Errorf("%w: unknown playlist %s", shared.ErrServiceUnavailable, url)
	}
	return videos, nil
}

func (m *MockPlatform) Download(_ context.Context, url, dir string) (string, error) {
	if m.DownloadErr != nil {
		return "", m.DownloadErr
	}

	m.mu.Lock()
	m.Downloads = append(m.Downloads, url)
	m.mu.Unlock()

	id, ok := shared.VideoID(url)
	if !ok {
		return "", fmt.Errorf("%w: bad url %s", shared.ErrDownloadFailed, url)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, id+".webm")
	if err := os.WriteFile(path, []byte("webm:"+id), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (m *MockPlatform) Name() string { return "mock platform" }

// MockSelector returns a fixed index and records the options it was shown.
type MockSelector struct {
	Index   int
	Err     error
	Title   string
	Options []string
}

func (m *MockSelector) Select(title string, options []string) (int, error) {
	m.Title = title
	m.Options = options
	return m.Index, m.Err
}

// MockPrompter answers prompts by label.
type MockPrompter struct {
	Answers map[string]string
	Err     error
	Asked   []string
}

func (m *MockPrompter) Prompt(label, _ string) (string, error) {
	m.Asked = append(m.Asked, label)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answers[label], nil
}

// MockTranscoder copies the input to the output instead of running ffmpeg.
type MockTranscoder struct {
	Err error
}

func (m *MockTranscoder) Convert(_ context.Context, in, out string, onProgress func(float64)) error {
	if m.Err != nil {
		return m.Err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return os.WriteFile(out, data, 0644)
}

// MockCoverSource serves fixed bytes.
type MockCoverSource struct {
	Data []byte
	Err  error

	mu   sync.Mutex
	URLs []string
}

func (m *MockCoverSource) Fetch(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.URLs = append(m.URLs, url)
	return m.Data, m.Err
}
