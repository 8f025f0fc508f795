package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxCoverBytes = 10 << 20

// CoverURL rewrites a catalog artwork URL to request a res x res image.
//
// Catalog artwork URLs end in a size segment such as "100x100bb.jpg"; it is replaced with
// "{res}x{res}bb.jpg". Video thumbnails are returned unchanged.
func CoverURL(artworkURL string, res int) string {
	if artworkURL == "" || res <= 0 {
		return artworkURL
	}
	if strings.Contains(artworkURL, "youtube.com") || strings.Contains(artworkURL, "ytimg.com") {
		return artworkURL
	}

	idx := strings.LastIndex(artworkURL, "/")
	if idx < 0 {
		return artworkURL
	}
	return fmt.Sprintf("%s/%dx%dbb.jpg", artworkURL[:idx], res, res)
}

// CoverFetcher downloads cover images.
type CoverFetcher struct {
	client *http.Client
}

// NewCoverFetcher creates a fetcher. A nil client gets a 30 second timeout.
func NewCoverFetcher(client *http.Client) *CoverFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CoverFetcher{client: client}
}

// Fetch downloads an image from the given URL and returns the raw bytes.
func (f *CoverFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
