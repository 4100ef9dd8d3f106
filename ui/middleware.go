package ui

import (
	"karyoscore/ui/middleware"

	"github.com/gin-gonic/gin"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
}

func (s *Server) limitUpload() gin.HandlerFunc {
	return middleware.BodyLimit(s.opts.UploadMaxBytes)
}
