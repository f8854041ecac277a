// Package pdf turns rendered advice HTML into PDF documents.
package pdf

import (
	"context"
	"fmt"
	"time"
)

type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

const (
	EngineChromium = "chromium"
	EngineBasic    = "basic"
)

type Options struct {
	Engine     string
	Timeout    time.Duration
	ChromePath string
}

// New returns the converter for the configured engine.
func New(opts Options) (Converter, error) {
	switch opts.Engine {
	case EngineChromium:
		return NewChromium(opts.ChromePath, opts.Timeout), nil
	case EngineBasic, "":
		return NewBasic(), nil
	default:
		return nil, fmt.Errorf("unknown pdf engine %q", opts.Engine)
	}
}
