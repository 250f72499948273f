package favorites

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"resephub/internal/catalog"
	"resephub/internal/metrics"
	"resephub/internal/router"
	"resephub/internal/storage"
	synchub "resephub/internal/sync"
	"resephub/internal/visitor"
	"resephub/pkg/logging"
)

type Notifier interface {
	SendToVisitor(visitorID string, v any)
}

type Handler struct {
	Store storage.Scoper
	State *catalog.State
	// Hub is optional.
	Hub Notifier

	locks visitorLocks
}

func NewHandler(store storage.Scoper, state *catalog.State, hub Notifier) *Handler {
	return &Handler{Store: store, State: state, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recipe/:slug/favorite", h.toggle)
}

// ForVisitor loads the favorites of the current request's visitor.
func (h *Handler) ForVisitor(c *gin.Context) *Store {
	return Load(c.Request.Context(), h.Store.Scope(Namespace(visitor.ID(c))))
}

// Toggle flips recipeID in the visitor's set. Load, toggle and write run
// under the visitor's lock so concurrent requests never drop an update.
func (h *Handler) Toggle(ctx context.Context, visitorID, recipeID string) (bool, error) {
	unlock := h.locks.lock(visitorID)
	defer unlock()
	return Load(ctx, h.Store.Scope(Namespace(visitorID))).Toggle(ctx, recipeID)
}

func (h *Handler) toggle(c *gin.Context) {
	visitorID := visitor.ID(c)
	if visitorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no visitor"})
		return
	}

	r, ok := h.State.Snapshot().Find(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	fav, err := h.Toggle(c.Request.Context(), visitorID, r.ID)
	if err != nil {
		logging.Error().Str("component", "favorites").Err(err).Str("visitor", visitorID).Msg("toggle favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	state := "removed"
	if fav {
		state = "added"
	}
	metrics.FavoriteToggles.WithLabelValues(state).Inc()

	if h.Hub != nil {
		h.Hub.SendToVisitor(visitorID, synchub.FavoriteEvent{
			Type:     synchub.TypeFavoriteUpdate,
			RecipeID: r.ID,
			Favorite: fav,
			At:       time.Now().UTC(),
		})
	}

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(http.StatusOK, gin.H{"id": r.ID, "favorite": fav})
	default:
		c.Redirect(http.StatusSeeOther, router.Route{Kind: router.KindRecipe, Key: r.Slug}.Path())
	}
}

// visitorLocks hands out one mutex per visitor id. Entries are dropped
// once nobody holds or waits for them.
type visitorLocks struct {
	mu    sync.Mutex
	locks map[string]*visitorLock
}

type visitorLock struct {
	mu   sync.Mutex
	refs int
}

func (l *visitorLocks) lock(visitorID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*visitorLock)
	}
	e, ok := l.locks[visitorID]
	if !ok {
		e = &visitorLock{}
		l.locks[visitorID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, visitorID)
		}
		l.mu.Unlock()
	}
}
