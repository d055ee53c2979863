package boundary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBoundaryBytes caps remote downloads; national boundary sets are a few tens of MB.
const maxBoundaryBytes = 64 << 20

type fetcher struct {
	httpClient *http.Client
}

func newFetcher(client *http.Client) *fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &fetcher{httpClient: client}
}

func (f *fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("boundary source error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBoundaryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read boundary response: %w", err)
	}
	if len(data) > maxBoundaryBytes {
		return nil, fmt.Errorf("boundary response exceeds %d bytes", maxBoundaryBytes)
	}
	return data, nil
}
