package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dataURL = "https://gampil.github.io/resep/data.json"
	catURL  = "https://gampil.github.io/resep/kategori.json"
)

// network is a scripted RoundTripper.
type network struct {
	mu    sync.Mutex
	down  bool
	code  int
	body  string
	calls int
}

func (n *network) RoundTrip(req *http.Request) (*http.Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.down {
		return nil, errors.New("dial tcp: network is unreachable")
	}
	code := n.code
	if code == 0 {
		code = http.StatusOK
	}
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(n.body)),
		Request:    req,
	}, nil
}

func (n *network) set(down bool, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down, n.body = down, body
}

func newCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := OpenBadger("", "recipes-final-v1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func get(t *testing.T, rt http.RoundTripper, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return rt.RoundTrip(req)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy(dataURL, catURL)

	tests := []struct {
		url  string
		want string
	}{
		{dataURL, "network-first"},
		{catURL, "network-first"},
		{dataURL + "?v=2", "cache-first"},
		{"https://gampil.github.io/img/1.jpg", "cache-first"},
		{"http://localhost:8080/styles.css", "cache-first"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		rule, ok := p.Select(req)
		require.True(t, ok)
		assert.Equal(t, tt.want, rule.Strategy.Name(), tt.url)
	}

	_, ok := Policy{}.Select(httptest.NewRequest(http.MethodGet, dataURL, nil))
	assert.False(t, ok)
}

func TestNetworkFirst(t *testing.T) {
	net := &network{body: `[1,2]`}
	tr := NewTransport(net, newCache(t), DefaultPolicy(dataURL))

	resp, err := get(t, tr, dataURL)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, readBody(t, resp))
	assert.Empty(t, resp.Header.Get("X-Cache"))

	// fresh network wins over the cache
	net.set(false, `[3]`)
	resp, err = get(t, tr, dataURL)
	require.NoError(t, err)
	assert.Equal(t, `[3]`, readBody(t, resp))

	// offline: last stored copy
	net.set(true, "")
	resp, err = get(t, tr, dataURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `[3]`, readBody(t, resp))
}

func TestNetworkFirst_NoCopy(t *testing.T) {
	net := &network{down: true}
	tr := NewTransport(net, newCache(t), DefaultPolicy(dataURL))

	_, err := get(t, tr, dataURL)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResponse)
}

func TestNetworkFirst_ErrorStatusNotStored(t *testing.T) {
	net := &network{code: http.StatusInternalServerError, body: "oops"}
	cache := newCache(t)
	tr := NewTransport(net, cache, DefaultPolicy(dataURL))

	resp, err := get(t, tr, dataURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	_ = readBody(t, resp)

	cached, err := cache.Match(httptest.NewRequest(http.MethodGet, dataURL, nil))
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCacheFirst(t *testing.T) {
	const img = "https://gampil.github.io/img/1.jpg"
	net := &network{body: "jpeg"}
	tr := NewTransport(net, newCache(t), DefaultPolicy(dataURL))

	resp, err := get(t, tr, img)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", readBody(t, resp))
	assert.Equal(t, 1, net.calls)

	// served from cache without touching the network
	net.set(false, "newer")
	resp, err = get(t, tr, img)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", readBody(t, resp))
	assert.Equal(t, 1, net.calls)

	net.set(true, "")
	_, err = get(t, tr, "https://gampil.github.io/img/2.jpg")
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestTransport_PassesNonGET(t *testing.T) {
	net := &network{body: "ok"}
	cache := newCache(t)
	tr := NewTransport(net, cache, DefaultPolicy())

	req := httptest.NewRequest(http.MethodPost, "http://localhost/x", strings.NewReader("{}"))
	req.RequestURI = ""
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	_ = readBody(t, resp)

	cached, err := cache.Match(req)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInstall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/styles.css", "/app_final.js":
			_, _ = w.Write([]byte("asset " + r.URL.Path))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache := newCache(t)
	tr := NewTransport(http.DefaultTransport, cache, DefaultPolicy())

	n := tr.Install(context.Background(), srv.URL, []string{"/", "/styles.css", "/app_final.js"})
	assert.Equal(t, 3, n)

	srv.Close()
	resp, err := get(t, tr, srv.URL+"/styles.css")
	require.NoError(t, err)
	assert.Equal(t, "asset /styles.css", readBody(t, resp))
}

func TestInstall_AllOrNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/manifest.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cache := newCache(t)
	tr := NewTransport(http.DefaultTransport, cache, DefaultPolicy())

	n := tr.Install(context.Background(), srv.URL, []string{"/", "/manifest.json"})
	assert.Equal(t, 0, n)

	cached, err := cache.Match(httptest.NewRequest(http.MethodGet, srv.URL+"/", nil))
	require.NoError(t, err)
	assert.Nil(t, cached)

	assert.Equal(t, 0, tr.Install(context.Background(), "://bad", []string{"/"}))
}

func TestAssetURL(t *testing.T) {
	tests := []struct {
		origin, asset, want string
	}{
		{"https://cdn.example.com", "/styles.css", "https://cdn.example.com/styles.css"},
		{"https://cdn.example.com/resep/", "/styles.css", "https://cdn.example.com/styles.css"},
		{"https://cdn.example.com/resep/", "app_final.js", "https://cdn.example.com/resep/app_final.js"},
	}
	for _, tt := range tests {
		got, err := AssetURL(tt.origin, tt.asset)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := AssetURL("", "/styles.css")
	assert.Error(t, err)
	_, err = AssetURL("/relative", "/styles.css")
	assert.Error(t, err)
}

func TestCacheNamesAreSeparate(t *testing.T) {
	a := newCache(t)
	b := NewBadgerCache(a.db, "other")

	req := httptest.NewRequest(http.MethodGet, dataURL, nil)
	require.NoError(t, a.Put(req, &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("x"))}))

	got, err := b.Match(req)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = a.Match(req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "x", readBody(t, got))
}
