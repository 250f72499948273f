package web

import (
	"html/template"

	"github.com/gin-gonic/gin"
)

// NewEngine returns a gin engine with recovery, the visitor middleware,
// access logging and the page templates installed.
func NewEngine(tmpl *template.Template, visitorMiddleware gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), visitorMiddleware, AccessLog())
	r.SetHTMLTemplate(tmpl)
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})
	return r
}
