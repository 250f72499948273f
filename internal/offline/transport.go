package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"resephub/pkg/logging"
)

// Transport applies a Policy to outgoing GET requests. Other methods go
// straight to Next.
type Transport struct {
	Next   http.RoundTripper
	Cache  Cache
	Policy Policy
}

func NewTransport(next http.RoundTripper, cache Cache, policy Policy) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Next: next, Cache: cache, Policy: policy}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.Next.RoundTrip(req)
	}
	rule, ok := t.Policy.Select(req)
	if !ok {
		return t.Next.RoundTrip(req)
	}
	return rule.Strategy.Fetch(req, t.Next, t.Cache)
}

// Client returns an http.Client going through t.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

// AssetURL resolves a manifest path against origin. Install and the
// readers of installed assets must agree on it, since the cache is keyed
// by URL.
func AssetURL(origin, asset string) (string, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("origin %q is not absolute", origin)
	}
	ref, err := url.Parse(asset)
	if err != nil {
		return "", fmt.Errorf("parse asset %q: %w", asset, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Install pre-warms the cache with the asset manifest resolved against
// origin. Like the browser's cache.addAll it is all or nothing: if any
// asset fails, none is stored. Failures are logged, never returned. It
// returns the number of assets stored.
func (t *Transport) Install(ctx context.Context, origin string, assets []string) int {
	log := logging.With("offline")

	type fetched struct {
		req  *http.Request
		resp *http.Response
	}
	all := make([]fetched, 0, len(assets))
	defer func() {
		for _, f := range all {
			_ = f.resp.Body.Close()
		}
	}()

	for _, a := range assets {
		target, err := AssetURL(origin, a)
		if err != nil {
			log.Warn().Err(err).Str("asset", a).Msg("install: bad asset url")
			return 0
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			log.Warn().Err(err).Str("asset", a).Msg("install: build request")
			return 0
		}
		resp, err := t.Next.RoundTrip(req)
		if err == nil && !ok(resp) {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		if err != nil {
			log.Warn().Err(err).Str("asset", req.URL.String()).Msg("install: fetch failed, nothing cached")
			return 0
		}
		all = append(all, fetched{req: req, resp: resp})
	}

	n := 0
	for _, f := range all {
		if err := t.Cache.Put(f.req, f.resp); err != nil {
			log.Warn().Err(err).Str("asset", f.req.URL.String()).Msg("install: store failed")
			continue
		}
		n++
	}
	log.Info().Int("assets", n).Str("origin", origin).Msg("offline cache installed")
	return n
}
