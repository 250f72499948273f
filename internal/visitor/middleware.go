package visitor

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resephub/pkg/logging"
)

const CtxVisitorKey = "visitor_id"

// Middleware resolves the visitor from the cookie (or a bearer token, for
// non-browser clients). Unknown, expired or tampered tokens get a fresh
// identity and a new cookie; the request is never rejected.
func Middleware(tokens Tokens, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(cookieName)
		}

		if raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(CtxVisitorKey, claims.VisitorID)
				c.Next()
				return
			}
		}

		id := NewID()
		signed, _, err := tokens.Sign(id)
		if err != nil {
			logging.Error().Str("component", "visitor").Err(err).Msg("sign visitor cookie")
		} else {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, signed, int(tokens.TTL.Seconds()), "/", "", c.Request.TLS != nil, true)
		}
		c.Set(CtxVisitorKey, id)
		c.Next()
	}
}

// ID returns the visitor id set by Middleware, or "".
func ID(c *gin.Context) string {
	return c.GetString(CtxVisitorKey)
}

func bearer(h string) string {
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("bearer "):])
}
