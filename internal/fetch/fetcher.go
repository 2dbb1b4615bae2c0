package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRangeNotSupported indicates the source answered a ranged request with a
// full-body 200 instead of partial content.
var ErrRangeNotSupported = errors.New("source does not support range requests")

// Fetcher pulls bounded byte ranges from a remote media URL over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				DisableCompression:  true, // raw bytes for range requests
			},
		},
		userAgent: userAgent,
	}
}

// FetchRange downloads the inclusive byte range [start, end]. Returns the
// payload plus the length the source reported for it; the caller treats the
// reported length as authoritative.
func (f *Fetcher) FetchRange(ctx context.Context, url string, start, end int64) ([]byte, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// expected
	case http.StatusOK:
		return nil, 0, ErrRangeNotSupported
	default:
		// Drain a little so the connection can be reused, then fail.
		io.CopyN(io.Discard, resp.Body, 512)
		return nil, 0, fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}

	reported := resp.ContentLength
	if reported < 0 {
		reported = int64(len(payload))
	}
	return payload, reported, nil
}

// Length asks the source for the object's total size via HEAD. Used when the
// resolver's metadata does not carry a filesize.
func (f *Fetcher) Length(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.ContentLength < 0 {
		return 0, errors.New("source did not report a content length")
	}
	return resp.ContentLength, nil
}
