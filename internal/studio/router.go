package studio

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	headerRequestID    = "X-Request-Id"
	headerStudioSecret = "X-Studio-Secret"
)

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(attachRequestContext())
	router.Use(s.requestLogger())

	router.GET("/healthcheck", s.handleHealth)

	api := router.Group("/api")
	api.Use(s.requireSecret())
	{
		api.POST("/save-audio", s.handleSaveAudio)
		api.POST("/save-text", s.handleSaveText)
		api.POST("/save-narration", s.handleSaveText)
		api.POST("/generate-audio", s.handleGenerateAudio)
		api.POST("/generate-deck", s.handleGenerateDeck)
		api.GET("/modules", s.handleModules)
		api.GET("/modules/:module/slides", s.handleSlides)
	}

	router.NoRoute(func(c *gin.Context) {
		respondStatus(c, http.StatusNotFound, "not_found", "route not found")
	})
	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", headerStudioSecret, headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	return cors.New(cfg)
}
