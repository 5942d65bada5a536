package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/netspeed/webui"
)

// RegisterStaticFiles mounts the embedded widget page. API routes registered
// before this take precedence; unmatched non-API paths fall back to index.html.
func RegisterStaticFiles(r *gin.Engine) {
	webRoot, err := fs.Sub(webui.FS, "web")
	if err != nil {
		panic("embed: web sub-fs failed: " + err.Error())
	}
	staticFS := http.FS(webRoot)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serveIndex(c, staticFS)
	})
}

func serveIndex(c *gin.Context, staticFS http.FileSystem) {
	f, err := staticFS.Open("index.html")
	if err != nil {
		c.String(http.StatusNotFound, "widget page not found")
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		c.String(http.StatusInternalServerError, "widget page unreadable")
		return
	}
	c.DataFromReader(http.StatusOK, stat.Size(), "text/html; charset=utf-8", f, nil)
}
