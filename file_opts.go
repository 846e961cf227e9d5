package toc

import (
	"log/slog"

	"github.com/meigma/toc/format"
)

type fileConfig struct {
	formats *format.Registry
	logger  *slog.Logger
}

// FileOption configures ResolveFile.
type FileOption func(*fileConfig)

// FileWithFormats sets the format registry used for detection and listing.
// By default format.Default is used.
func FileWithFormats(reg *format.Registry) FileOption {
	return func(c *fileConfig) {
		if reg != nil {
			c.formats = reg
		}
	}
}

// FileWithLogger sets the logger for diagnostics.
func FileWithLogger(logger *slog.Logger) FileOption {
	return func(c *fileConfig) {
		c.logger = logger
	}
}
