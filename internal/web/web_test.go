package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resephub/internal/catalog"
	"resephub/internal/favorites"
	"resephub/internal/offline"
	"resephub/internal/pages"
	"resephub/internal/recipe"
	"resephub/internal/storage"
	synchub "resephub/internal/sync"
	"resephub/internal/visitor"
	"resephub/pkg/database"
	"resephub/pkg/models"
)

type testServer struct {
	engine *gin.Engine
	state  *catalog.State
	scopes *storage.MemoryScoper
	media  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
	}))
	t.Cleanup(media.Close)

	tmpl, err := Templates()
	require.NoError(t, err)

	tokens := visitor.Tokens{Secret: []byte("test-secret-123"), Issuer: "resephub", TTL: time.Hour}
	r := NewEngine(tmpl, visitor.Middleware(tokens, "v"))

	state := catalog.NewState()
	state.Replace(
		[]models.Recipe{
			recipe.Normalize(models.RawRecipe{"id": float64(1), "judul": "Sayur Asem", "category_name": "Sayur", "cid": float64(3), "bahan": "Asam jawa", "image": media.URL + "/1.jpg"}),
			recipe.Normalize(models.RawRecipe{"id": float64(2), "judul": "Ayam Goreng", "category_name": "Ayam", "cid": float64(1), "bahan": "Ayam\nGaram", "langkah": "1. Goreng"}),
			recipe.Normalize(models.RawRecipe{"id": float64(3), "judul": "Tumis Kangkung", "category_name": "Sayur", "cid": float64(3), "bahan": "Kangkung"}),
		},
		[]models.Category{
			recipe.MapCategory(models.RawCategory{"cid": float64(1), "category_name": "Ayam"}),
			recipe.MapCategory(models.RawCategory{"cid": float64(3), "category_name": "Sayur"}),
		},
	)
	state.SetStatus(catalog.PhaseReady, "")

	cache, err := offline.OpenBadger("", "recipes-final-v1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	tr := offline.NewTransport(http.DefaultTransport, cache, offline.DefaultPolicy())
	proxy := NewMediaProxy(tr.Client(5*time.Second), []string{"127.0.0.1"})

	scopes := storage.NewMemoryScoper()
	fav := favorites.NewHandler(scopes, state, synchub.NewHub())
	NewHandler(state, fav, pages.Builder{Media: proxy.URL}).RegisterRoutes(r)
	proxy.RegisterRoutes(r)

	return &testServer{engine: r, state: state, scopes: scopes, media: media}
}

func (s *testServer) do(t *testing.T, method, target string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func doc(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return d
}

func TestCategoriesPage(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/index.html"} {
		w := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

		d := doc(t, w)
		assert.Equal(t, 2, d.Find(".cat-card").Length())
		assert.Equal(t, "Sayur", strings.TrimSpace(d.Find(".cat-card .label").Eq(1).Text()))
		href, _ := d.Find(".cat-card").Eq(1).Attr("href")
		assert.Equal(t, "/category/3", href)
	}
}

func TestCategoryPage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/category/3", nil)
	require.Equal(t, http.StatusOK, w.Code)

	d := doc(t, w)
	assert.Equal(t, "Sayur", strings.TrimSpace(d.Find(".section-title").Text()))
	cards := d.Find("#recipeList a.card")
	require.Equal(t, 2, cards.Length())
	assert.Equal(t, "Sayur Asem", cards.Eq(0).Find("h3").Text())
	assert.Equal(t, "Sayur • 0 langkah", cards.Eq(0).Find(".meta p").Text())

	src, _ := cards.Eq(0).Find("img").Attr("src")
	assert.True(t, strings.HasPrefix(src, "/media?src="), src)
}

func TestSearchPage_NoResults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/search?q=rendang", nil)
	require.Equal(t, http.StatusOK, w.Code)

	d := doc(t, w)
	assert.Equal(t, 0, d.Find("#searchResults a.card").Length())
	ph := d.Find("#searchResults .placeholder")
	require.Equal(t, 1, ph.Length())
	assert.Equal(t, pages.NoResults, ph.Text())
	val, _ := d.Find("#searchInput").Attr("value")
	assert.Equal(t, "rendang", val)
}

func TestSearchPage_Empty(t *testing.T) {
	s := newTestServer(t)

	d := doc(t, s.do(t, http.MethodGet, "/search", nil))
	assert.Equal(t, 0, d.Find("#searchResults a.card").Length())
	assert.Equal(t, 0, d.Find("#searchResults .placeholder").Length())
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/tentang", "/recipe/rendang-9"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		d := doc(t, w)
		assert.Equal(t, pages.NotFoundTitle, strings.TrimSpace(d.Find(".section-title").Text()))
	}
}

func TestJSONNegotiation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/category/3", http.Header{"Accept": []string{"application/json"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var p pages.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Sayur", p.Title)
	require.NotNil(t, p.RecipeList)
	assert.Len(t, p.RecipeList.Cards, 2)
	assert.Equal(t, catalog.PhaseReady, p.Status.Phase)
}

func TestFavoriteFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/recipe/ayam-goreng-2/favorite", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/recipe/ayam-goreng-2", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	d := doc(t, s.do(t, http.MethodGet, "/recipe/ayam-goreng-2", nil, cookies...))
	assert.Equal(t, pages.FavoriteOn, d.Find("#favBtn").Text())
	assert.Equal(t, []string{"Ayam", "Garam"}, d.Find("#ingredientsList li").Map(func(_ int, s *goquery.Selection) string { return s.Text() }))
	assert.Equal(t, "1. Goreng", d.Find("#instructionsList li").Text())

	d = doc(t, s.do(t, http.MethodGet, "/favorites", nil, cookies...))
	assert.Equal(t, 1, d.Find("#recipeList a.card").Length())

	// another visitor has no favorites
	d = doc(t, s.do(t, http.MethodGet, "/favorites", nil))
	assert.Equal(t, 0, d.Find("#recipeList a.card").Length())
	assert.Equal(t, pages.NoFavorites, d.Find("#recipeList .placeholder").Text())

	w = s.do(t, http.MethodPost, "/recipe/2/favorite", http.Header{"Accept": []string{"application/json"}}, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"2","favorite":false}`, w.Body.String())

	d = doc(t, s.do(t, http.MethodGet, "/recipe/ayam-goreng-2", nil, cookies...))
	assert.Equal(t, pages.FavoriteOff, d.Find("#favBtn").Text())
}

func TestFavorite_UnknownRecipe(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/recipe/rendang-9/favorite", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t)

	for _, name := range Assets {
		w := s.do(t, http.MethodGet, "/"+name, nil)
		assert.Equal(t, http.StatusOK, w.Code, name)
		assert.NotEmpty(t, w.Body.String(), name)
	}
}

func TestAssetProxy_ServesInstalledAssets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/manifest.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("origin:" + r.URL.Path))
	}))
	defer origin.Close()

	cache, err := offline.OpenBadger("", "recipes-final-v1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	tr := offline.NewTransport(http.DefaultTransport, cache, offline.DefaultPolicy())
	require.Equal(t, 2, tr.Install(context.Background(), origin.URL, []string{"/styles.css", "/app_final.js"}))

	tmpl, err := Templates()
	require.NoError(t, err)
	tokens := visitor.Tokens{Secret: []byte("test-secret-123"), Issuer: "resephub", TTL: time.Hour}
	r := NewEngine(tmpl, visitor.Middleware(tokens, "v"))
	state := catalog.NewState()
	h := NewHandler(state, favorites.NewHandler(storage.NewMemoryScoper(), state, nil), pages.Builder{})
	h.Assets = NewAssetProxy(tr.Client(5*time.Second), origin.URL)
	h.RegisterRoutes(r)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	// origin gone: installed assets come from the cache
	origin.Close()
	w := get("/styles.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "origin:/styles.css", w.Body.String())
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	// never installed: the embedded copy answers
	w = get("/manifest.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.NotContains(t, w.Body.String(), "origin:")
}

func TestMediaProxy(t *testing.T) {
	s := newTestServer(t)
	src := s.media.URL + "/1.jpg"

	w := s.do(t, http.MethodGet, "/media?src="+src, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg:/1.jpg", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	// cached copy survives the upstream going away
	s.media.Close()
	w = s.do(t, http.MethodGet, "/media?src="+src, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg:/1.jpg", w.Body.String())

	w = s.do(t, http.MethodGet, "/media?src="+s.media.URL+"/2.jpg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/media?src=https://evil.example.com/x.jpg", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/media", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "data.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	state := catalog.NewState()
	r := gin.New()
	(&Ops{DB: db, Hub: synchub.NewHub(), State: state}).RegisterRoutes(r)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)

	state.SetStatus(catalog.PhaseOffline, "Offline — menggunakan data tersimpan")
	w := get("/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"offline"`)

	// a refresh in progress does not take the server out of rotation
	state.SetStatus(catalog.PhaseLoading, "Memuat kategori & resep…")
	w = get("/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"loading"`)

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resephub_")
}
