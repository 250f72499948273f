// Package web serves the recipe pages. Every request resolves its route,
// builds the page view model from the in-memory catalog and renders it as
// HTML or, for JSON clients, as the view model itself.
package web

import (
	"github.com/gin-gonic/gin"

	"resephub/internal/catalog"
	"resephub/internal/favorites"
	"resephub/internal/metrics"
	"resephub/internal/pages"
	"resephub/internal/router"
)

type Handler struct {
	State     *catalog.State
	Favorites *favorites.Handler
	Pages     pages.Builder
	// Assets is optional; nil serves the embedded files.
	Assets *AssetProxy
}

func NewHandler(state *catalog.State, fav *favorites.Handler, builder pages.Builder) *Handler {
	return &Handler{State: state, Favorites: fav, Pages: builder}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	registerStatic(r, h.Assets)

	r.GET("/", h.page)
	r.GET("/index.html", h.page)
	r.GET("/category/:cid", h.page)
	r.GET("/search", h.page)
	r.GET("/favorites", h.page)
	r.GET("/recipe/:slug", h.page)
	h.Favorites.RegisterRoutes(&r.RouterGroup)

	r.NoRoute(h.page)
}

func (h *Handler) page(c *gin.Context) {
	path := c.Request.URL.Path
	if path == "/index.html" {
		path = "/"
	}
	route := router.FromPath(path)

	req := pages.Request{Route: route, Query: c.Query("q")}
	if route.Kind == router.KindFavorites || route.Kind == router.KindRecipe {
		req.Favorites = h.Favorites.ForVisitor(c).Set()
	}

	h.render(c, h.Pages.Render(h.State.Snapshot(), req))
}

func (h *Handler) render(c *gin.Context, p pages.Page) {
	format := c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON)
	if format == "" {
		format = gin.MIMEHTML
	}
	metrics.PageRenders.WithLabelValues(string(p.Kind), formatLabel(format)).Inc()

	if format == gin.MIMEJSON {
		c.JSON(p.HTTPStatus, p)
		return
	}
	c.HTML(p.HTTPStatus, "page", p)
}

func formatLabel(mime string) string {
	if mime == gin.MIMEJSON {
		return "json"
	}
	return "html"
}
