package web

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resephub/internal/catalog"
	synchub "resephub/internal/sync"
)

// Ops serves the health, readiness and metrics endpoints.
type Ops struct {
	DB    *sql.DB
	Hub   *synchub.Hub
	State *catalog.State
}

func (o *Ops) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", o.health)
	r.GET("/ready", o.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (o *Ops) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready reports not ready until the first load has finished and while the
// database is unreachable. A periodic refresh in progress stays ready.
func (o *Ops) ready(c *gin.Context) {
	snap := o.State.Snapshot()
	stats := o.Hub.Stats()
	body := gin.H{
		"phase":       snap.Status.Phase,
		"recipes":     len(snap.Recipes),
		"categories":  len(snap.Categories),
		"tcp_clients": stats.TCPClients,
		"ws_clients":  stats.WSClients,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := o.DB.PingContext(ctx); err != nil {
		body["status"] = "not_ready"
		body["db"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["db"] = "ok"

	if !o.State.Loaded() {
		body["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	c.JSON(http.StatusOK, body)
}
