package web

import (
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"resephub/internal/offline"
	"resephub/pkg/logging"
)

// AssetProxy serves the static manifest from a remote origin through the
// offline transport. Install warms the same URLs, so the files keep
// loading while the origin is unreachable. The embedded copy answers when
// neither network nor cache can.
type AssetProxy struct {
	Client *http.Client
	Origin string
}

func NewAssetProxy(client *http.Client, origin string) *AssetProxy {
	return &AssetProxy{Client: client, Origin: origin}
}

func (a *AssetProxy) handler(name string, fallback http.FileSystem) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.serveRemote(c, name) {
			return
		}
		c.FileFromFS(name, fallback)
	}
}

func (a *AssetProxy) serveRemote(c *gin.Context, name string) bool {
	log := logging.With("assets")

	target, err := offline.AssetURL(a.Origin, "/"+name)
	if err != nil {
		log.Warn().Err(err).Str("asset", name).Msg("resolve asset")
		return false
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("asset", target).Msg("asset unavailable, using embedded copy")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Str("asset", target).Msg("asset unavailable, using embedded copy")
		return false
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}
	extra := map[string]string{}
	if v := resp.Header.Get("X-Cache"); v != "" {
		extra["X-Cache"] = v
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, extra)
	return true
}
