// iTunes Search API [Catalog] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultITunesBaseURL = "https://itunes.apple.com"
	defaultITunesLimit   = 50
	albumLookupBatch     = 20
)

// ITunesResult is one entry of an iTunes Search or Lookup response.
//
// Lookup responses mix wrapper types: the first entry describes the looked-up
// collection or artist and the rest are its tracks.
type ITunesResult struct {
	WrapperType      string `json:"wrapperType"`
	Kind             string `json:"kind"`
	ArtistID         int64  `json:"artistId"`
	CollectionID     int64  `json:"collectionId"`
	TrackID          int64  `json:"trackId"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	TrackName        string `json:"trackName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackNumber      int    `json:"trackNumber"`
	TrackCount       int    `json:"trackCount"`
	DiscNumber       int    `json:"discNumber"`
	DiscCount        int    `json:"discCount"`
	ReleaseDate      string `json:"releaseDate"`
	ArtworkURL100    string `json:"artworkUrl100"`
	TrackTimeMillis  int64  `json:"trackTimeMillis"`
}

// ITunesResponse is the envelope of every iTunes Search API response.
type ITunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []ITunesResult `json:"results"`
}

// Record converts a song result to a [models.CatalogRecord].
func (r ITunesResult) Record() models.CatalogRecord {
	return models.CatalogRecord{
		TrackID:     r.TrackID,
		Track:       r.TrackName,
		Artist:      r.ArtistName,
		Album:       r.CollectionName,
		Genre:       r.PrimaryGenreName,
		TrackNumber: r.TrackNumber,
		TrackCount:  r.TrackCount,
		DiscNumber:  r.DiscNumber,
		DiscCount:   r.DiscCount,
		ReleaseDate: r.ReleaseDate,
		ArtworkURL:  r.ArtworkURL100,
		Duration:    time.Duration(r.TrackTimeMillis) * time.Millisecond,
	}
}

func (r ITunesResult) isSong() bool {
	return r.WrapperType == "track" && (r.Kind == "" || r.Kind == "song")
}

// ITunesService implements [Catalog] against the iTunes Search API.
type ITunesService struct {
	baseURL    string
	country    string
	limit      int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewITunesService creates a catalog client from config. A nil client uses [http.DefaultClient].
//
// A non-positive requests-per-minute disables pacing.
func NewITunesService(cfg shared.CatalogConfig, client *http.Client) *ITunesService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultITunesBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultITunesLimit
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &ITunesService{
		baseURL:    baseURL,
		country:    cfg.Country,
		limit:      limit,
		limiter:    limiter,
		httpClient: client,
	}
}

// Name returns the service name.
func (s *ITunesService) Name() string {
	return "iTunes"
}

// doRequest waits for the rate limiter, performs a GET against endpoint and decodes the envelope.
func (s *ITunesService) doRequest(ctx context.Context, endpoint string, params url.Values) (*ITunesResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	if s.country != "" {
		params.Set("country", s.country)
	}
	apiURL := s.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.ErrorMessage != "" {
			return nil, fmt.Errorf("%w: iTunes API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: iTunes API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result ITunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func (s *ITunesService) search(ctx context.Context, term, entity string) ([]ITunesResult, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", entity)
	params.Set("limit", strconv.Itoa(s.limit))

	resp, err := s.doRequest(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (s *ITunesService) lookup(ctx context.Context, ids []int64, entity string) ([]ITunesResult, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("id", strings.Join(strIDs, ","))
	params.Set("entity", entity)
	params.Set("limit", "200")

	resp, err := s.doRequest(ctx, "/lookup", params)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchTrack searches songs by track name.
//
// Calls GET /search?entity=song.
func (s *ITunesService) SearchTrack(ctx context.Context, name string) ([]models.CatalogRecord, error) {
	results, err := s.search(ctx, name, "song")
	if err != nil {
		return nil, err
	}
	return songRecords(results, "track "+strconv.Quote(name))
}

// Search performs a free-text song search.
func (s *ITunesService) Search(ctx context.Context, text string) ([]models.CatalogRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty search text", shared.ErrLookupFailed)
	}
	results, err := s.search(ctx, text, "song")
	if err != nil {
		return nil, err
	}
	return songRecords(results, "keywords "+strconv.Quote(text))
}

// SearchArtist resolves the best matching artist and flattens the songs of all its albums.
//
// Calls GET /search?entity=musicArtist, then GET /lookup?entity=album for the artist,
// then GET /lookup?entity=song for the albums in batches.
func (s *ITunesService) SearchArtist(ctx context.Context, name string) ([]models.CatalogRecord, error) {
	artists, err := s.search(ctx, name, "musicArtist")
	if err != nil {
		return nil, err
	}

	var artistID int64
	for _, a := range artists {
		if a.ArtistID == 0 {
			continue
		}
		if artistID == 0 || strings.EqualFold(a.ArtistName, name) {
			artistID = a.ArtistID
		}
		if strings.EqualFold(a.ArtistName, name) {
			break
		}
	}
	if artistID == 0 {
		return nil, fmt.Errorf("%w: no artist matching %q", shared.ErrLookupFailed, name)
	}

	albums, err := s.lookup(ctx, []int64{artistID}, "album")
	if err != nil {
		return nil, err
	}

	var albumIDs []int64
	for _, a := range albums {
		if a.WrapperType == "collection" && a.CollectionID != 0 {
			albumIDs = append(albumIDs, a.CollectionID)
		}
	}

	var songs []ITunesResult
	for start := 0; start < len(albumIDs); start += albumLookupBatch {
		end := min(start+albumLookupBatch, len(albumIDs))
		batch, err := s.lookup(ctx, albumIDs[start:end], "song")
		if err != nil {
			return nil, err
		}
		songs = append(songs, batch...)
	}

	return songRecords(songs, "artist "+strconv.Quote(name))
}

// songRecords keeps song entries, dedupes by track id and reports [shared.ErrLookupFailed] when nothing is left.
func songRecords(results []ITunesResult, what string) ([]models.CatalogRecord, error) {
	seen := make(map[int64]bool)
	records := make([]models.CatalogRecord, 0, len(results))
	for _, r := range results {
		if !r.isSong() || (r.TrackID != 0 && seen[r.TrackID]) {
			continue
		}
		seen[r.TrackID] = true
		records = append(records, r.Record())
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no catalog results for %s", shared.ErrLookupFailed, what)
	}
	return records, nil
}
