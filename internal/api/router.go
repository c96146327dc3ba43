// Package api implements the HTTP surface (spec.md §6): submission,
// status, proxied download, size, and delete, on top of the Job
// Repository, Artifact Store, and Tool Registry.
package api

import (
	"context"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
)

// WakeNotifier is satisfied by queue.Publisher; kept as an interface
// here so this package does not import internal/queue directly.
type WakeNotifier interface {
	Notify(ctx context.Context) error
}

// Server holds every dependency the HTTP handlers need.
type Server struct {
	Repo                  store.Repository
	Artifacts             artifact.Store
	Registry              *tools.Registry
	MaxFileSize           int64
	AverageJobTimeSeconds int
	Wake                  WakeNotifier
}

// NewRouter builds the gin engine and registers every route from
// spec.md §6, matching the teacher's cors.New(corsConfig) + gin.Default
// wiring style.
func NewRouter(s *Server, ginMode, corsAllowedOrigins, artifactLocalRoot string) *gin.Engine {
	gin.SetMode(ginMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(corsAllowedOrigins, ",")
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "docsmart-api"})
	})

	if artifactLocalRoot != "" {
		router.Static("/artifacts", artifactLocalRoot)
	}

	router.POST("/process-pdf", s.Submission)
	router.GET("/process-pdf", s.Status)
	router.GET("/download-proxied-file", s.Download)
	router.GET("/file-size", s.FileSize)
	router.DELETE("/delete-processed-file", s.Delete)

	return router
}
