package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// CompressConfig represents compression configuration
type CompressConfig struct {
	Level         int
	ExcludedPaths []string
}

// DefaultCompressConfig returns default compression configuration
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level: gzip.DefaultCompression,
		ExcludedPaths: []string{
			"/api/v1/health",
		},
	}
}

// Compress gzips responses for clients that accept it.
func Compress(config CompressConfig) gin.HandlerFunc {
	return gzip.Gzip(config.Level, gzip.WithExcludedPaths(config.ExcludedPaths))
}
