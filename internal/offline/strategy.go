package offline

import (
	"errors"
	"fmt"
	"net/http"

	"resephub/internal/metrics"
	"resephub/pkg/logging"
)

// ErrNoResponse is returned when neither the cache nor the network could
// answer a cache-first request.
var ErrNoResponse = errors.New("offline: no response")

// Strategy decides how one request is answered from the cache and the
// network.
type Strategy interface {
	Name() string
	Fetch(req *http.Request, next http.RoundTripper, cache Cache) (*http.Response, error)
}

// NetworkFirst goes to the network and keeps a copy of every successful
// response; the copy answers when the network fails.
type NetworkFirst struct{}

func (NetworkFirst) Name() string { return "network-first" }

func (s NetworkFirst) Fetch(req *http.Request, next http.RoundTripper, cache Cache) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	if err == nil {
		if ok(resp) {
			store(cache, req, resp)
		}
		metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "network").Inc()
		return resp, nil
	}

	cached := match(cache, req)
	if cached == nil {
		metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "miss").Inc()
		return nil, err
	}
	logging.Debug().Str("component", "offline").Err(err).Str("url", req.URL.String()).Msg("network failed, serving cached")
	metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "cache").Inc()
	return cached, nil
}

// CacheFirst answers from the cache when it can and only goes to the
// network on a miss. Successful network responses are stored.
type CacheFirst struct{}

func (CacheFirst) Name() string { return "cache-first" }

func (s CacheFirst) Fetch(req *http.Request, next http.RoundTripper, cache Cache) (*http.Response, error) {
	if cached := match(cache, req); cached != nil {
		metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "cache").Inc()
		return cached, nil
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "miss").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrNoResponse, req.URL, err)
	}
	if ok(resp) {
		store(cache, req, resp)
	}
	metrics.OfflineCacheRequests.WithLabelValues(s.Name(), "network").Inc()
	return resp, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func match(cache Cache, req *http.Request) *http.Response {
	resp, err := cache.Match(req)
	if err != nil {
		logging.Warn().Str("component", "offline").Err(err).Msg("cache lookup")
		return nil
	}
	return resp
}

func store(cache Cache, req *http.Request, resp *http.Response) {
	if err := cache.Put(req, resp); err != nil {
		logging.Warn().Str("component", "offline").Err(err).Msg("cache store")
	}
}
