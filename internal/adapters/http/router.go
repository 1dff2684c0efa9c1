// Package http exposes a read-only local diagnostics surface: the player's
// current state and queue, for poking at a headless install with curl.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/app"
	"github.com/openkara/player/internal/config"
)

func SetupRouter(cfg *config.Config, engine *app.Engine) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Int("port", cfg.DiagPort).Msg("diagnostics router setup")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/state", func(c *gin.Context) {
		st := engine.StateSnapshot()
		c.JSON(http.StatusOK, gin.H{
			"state":     st,
			"remaining": engine.Remaining(),
		})
	})

	api.GET("/queue", func(c *gin.Context) {
		st := engine.StateSnapshot()
		c.JSON(http.StatusOK, gin.H{
			"order": st.Snapshot.Order,
			"items": st.Snapshot.Ordered(),
		})
	})

	return r
}
