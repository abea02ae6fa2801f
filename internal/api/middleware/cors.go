package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig defines the headers the bridge answers browsers with.
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// DefaultCORSConfig returns the bridge contract: any origin, GET and
// OPTIONS, and the X-Requested-With header.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"X-Requested-With"},
	}
}

// CORS sets Access-Control-Allow-Origin on every response and answers
// pre-flight OPTIONS requests on any path with 200 and an empty body.
//
// Unlike gin-contrib/cors this does not require an Origin header, so
// non-browser clients see the same headers browsers do.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", cfg.AllowOrigin)

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// JSONContentType pins Content-Type to exactly application/json.
// gin's JSON renderer keeps a Content-Type that is already set, so this
// drops the charset suffix it would otherwise add.
func JSONContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Header("Content-Type", "application/json")
		}
		c.Next()
	}
}
