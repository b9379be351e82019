package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrade/internal/config"
)

// Auth implements the two-tier X-API-Key scheme: L1 for user maintenance,
// L2 for destructive admin operations. The L2 key satisfies L1 checks.
type Auth struct {
	Config config.AuthConfig
}

func (a Auth) level(c *gin.Context) string {
	key := c.GetHeader("X-API-Key")
	if key == "" {
		return ""
	}
	switch key {
	case a.Config.L2Key:
		return "L2"
	case a.Config.L1Key:
		return "L1"
	}
	return ""
}

func (a Auth) RequireL1() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch a.level(c) {
		case "L1", "L2":
			c.Next()
		default:
			Error(c, http.StatusForbidden, "L1 or higher API key required", nil)
			c.Abort()
		}
	}
}

func (a Auth) RequireL2() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.level(c) != "L2" {
			Error(c, http.StatusForbidden, "L2 API key required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
