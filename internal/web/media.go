package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"resephub/internal/offline"
	"resephub/pkg/logging"
)

// MediaProxy serves remote images through the offline transport so they
// stay available without network. Only listed hosts are proxied.
type MediaProxy struct {
	Client *http.Client
	hosts  map[string]bool
}

func NewMediaProxy(client *http.Client, hosts []string) *MediaProxy {
	m := &MediaProxy{Client: client, hosts: make(map[string]bool, len(hosts))}
	for _, h := range hosts {
		m.hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return m
}

func (m *MediaProxy) allowed(src string) (*url.URL, bool) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, false
	}
	return u, m.hosts[strings.ToLower(u.Hostname())]
}

// URL rewrites src to the proxy path when its host is proxied; other URLs
// are returned unchanged.
func (m *MediaProxy) URL(src string) string {
	if _, ok := m.allowed(src); !ok {
		return src
	}
	return "/media?src=" + url.QueryEscape(src)
}

func (m *MediaProxy) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/media", m.serve)
}

func (m *MediaProxy) serve(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "src required"})
		return
	}
	u, ok := m.allowed(src)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "host not allowed"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid src"})
		return
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		if errors.Is(err, offline.ErrNoResponse) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media unavailable"})
			return
		}
		logging.Warn().Str("component", "media").Err(err).Str("src", src).Msg("fetch media")
		c.JSON(http.StatusBadGateway, gin.H{"error": "fetch failed"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream status " + resp.Status})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
