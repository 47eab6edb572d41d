package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"hoardermap/internal/httputil"
)

// Client is the processor API surface the engine and aggregator consume.
type Client interface {
	// Devices returns the current device list.
	Devices(ctx context.Context) ([]Device, error)

	// Latest returns the most recent full state for a device.
	Latest(ctx context.Context, deviceID string) (*LatestRecord, error)

	// HistoryPage fetches one page of delta history. pageURL is either
	// absolute or relative to the processor base URL.
	HistoryPage(ctx context.Context, pageURL string) (*HistoryPage, error)
}

// HTTPProcessor implements Client over an httputil.HTTPClient.
type HTTPProcessor struct {
	baseURL string
	http    httputil.HTTPClient
}

// New creates a processor client for the given base URL. A nil HTTP
// client falls back to the standard one.
func New(baseURL string, hc httputil.HTTPClient) *HTTPProcessor {
	if hc == nil {
		hc = httputil.NewStandardClient(nil)
	}
	return &HTTPProcessor{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// Devices returns the processor's device list.
func (p *HTTPProcessor) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := p.getJSON(ctx, p.baseURL+"/data/devices?limit=100", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Latest returns the most recent full state for a device.
func (p *HTTPProcessor) Latest(ctx context.Context, deviceID string) (*LatestRecord, error) {
	var record LatestRecord
	u := p.baseURL + "/data/latest/" + url.PathEscape(deviceID)
	if err := p.getJSON(ctx, u, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// HistoryPage fetches one page of delta history.
func (p *HTTPProcessor) HistoryPage(ctx context.Context, pageURL string) (*HistoryPage, error) {
	u := pageURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = p.baseURL + "/" + strings.TrimLeft(u, "/")
	}
	var page HistoryPage
	if err := p.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *HTTPProcessor) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", u, err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("processor returned %d for %s: %s", resp.StatusCode, u, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode processor response: %w", err)
	}
	return nil
}
