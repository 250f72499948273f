package visitor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() Tokens {
	return Tokens{Secret: []byte("test-secret-123"), Issuer: "resephub", TTL: time.Hour}
}

func TestSignParse(t *testing.T) {
	ts := testTokens()
	id := NewID()

	s, exp, err := ts.Sign(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, id, claims.VisitorID)

	other := testTokens()
	other.Secret = []byte("another-secret")
	_, err = other.Parse(s)
	assert.Error(t, err)

	expired := testTokens()
	expired.TTL = -time.Minute
	s, _, err = expired.Sign(id)
	require.NoError(t, err)
	_, err = ts.Parse(s)
	assert.Error(t, err)
}

func TestParse_RejectsNonUUID(t *testing.T) {
	ts := testTokens()
	s, _, err := ts.Sign("not-a-uuid")
	require.NoError(t, err)
	_, err = ts.Parse(s)
	assert.Error(t, err)
}

func newRouter(ts Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(ts, "v"))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ID(c)) })
	return r
}

func TestMiddleware(t *testing.T) {
	ts := testTokens()
	r := newRouter(ts)

	// first visit issues a cookie
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "v", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// returning visit keeps the identity and sets no new cookie
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	// bearer token works too
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, w.Body.String())

	// tampered cookie gets a fresh identity
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "v", Value: cookies[0].Value + "x"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, first, w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}
