package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// fetchList GETs url bypassing HTTP caches and decodes the JSON body.
// A body whose top-level value is not an array yields a nil list and no
// error: the caller keeps what it had.
func fetchList(ctx context.Context, client HTTPClient, url string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: status %d: %s", url, resp.StatusCode, string(body))
	}

	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	items, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			// keep positions aligned with the upstream list
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out, nil
}
