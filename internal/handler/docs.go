package handler

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.json
var openAPIDoc []byte

//go:embed docs.html
var docsPage []byte

// Docs serves an interactive API browser over the embedded OpenAPI document.
func (h *Handler) Docs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", docsPage)
}

func (h *Handler) OpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", openAPIDoc)
}
