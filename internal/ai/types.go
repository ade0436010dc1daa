package ai

import (
	"context"
	"errors"

	"haneye/internal/analysis"
)

// Analyzer produces an authenticity analysis for an uploaded artwork image.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, input Input) (analysis.Result, error)
}

// Input carries the image and optional artwork context for one analysis.
type Input struct {
	ImagePath string
	ImageData []byte
	MIMEType  string
	Context   analysis.Context
}

var ErrDisabled = errors.New("vision analyzer disabled")
