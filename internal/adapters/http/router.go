package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/adapters"
	"github.com/syncpad/syncpad/internal/app"
	"github.com/syncpad/syncpad/internal/config"
	"github.com/syncpad/syncpad/internal/protocol"
)

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Rooms.List())
	})
	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"iceServers": protocol.DefaultICEServers})
	})

	ctl := adapters.NewWSController(coord, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
