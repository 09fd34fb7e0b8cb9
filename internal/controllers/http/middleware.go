package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the static storefront, which is served from a different
// origin, to call the API directly from the browser.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          24 * time.Hour,
	})
}

// Maintenance gates the whole API behind a 503 while leaving the health
// endpoint reachable for probes.
func Maintenance(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.FullPath() == "/api/health" {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "store is under maintenance",
		})
	}
}
