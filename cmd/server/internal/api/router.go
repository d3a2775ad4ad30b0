// Package api holds the HTTP surface: the evaluation endpoints, health and
// status probes, and the router wiring them together.
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fkarika/classeval/cmd/server/internal/config"
	"github.com/fkarika/classeval/cmd/server/internal/middleware"
	"github.com/fkarika/classeval/cmd/server/internal/transcribe"
)

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg *config.Config, eval *EvaluationHandler, dc *transcribe.DegradationController) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// The trailing slash matters: clients built against the original API
	// call /health/ and /api/evaluate/ exactly.
	r.GET("/health/", HandleHealth)
	r.GET("/readiness", HandleReadiness(cfg.Upload.Dir, dc))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/evaluate/", eval.HandleEvaluate)
		apiGroup.POST("/evaluate/demo/", eval.HandleDemo)
		apiGroup.GET("/services/transcriber/status", HandleTranscriberStatus(dc))
	}

	mountFrontend(r, cfg.Frontend.DistDir)

	return r
}

// mountFrontend serves the prebuilt dashboard when its dist directory
// exists. API and probe routes always take precedence.
func mountFrontend(r *gin.Engine, distDir string) {
	if distDir == "" {
		return
	}
	if info, err := os.Stat(distDir); err != nil || !info.IsDir() {
		return
	}

	indexPath := filepath.Join(distDir, "index.html")
	r.StaticFile("/", indexPath)
	r.Static("/assets", filepath.Join(distDir, "assets"))

	// SPA fallback: unknown non-API paths get the dashboard shell.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.File(indexPath)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
