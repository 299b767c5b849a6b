// ABOUTME: Renderer selection and fallback chain for chart backends
// ABOUTME: Tries each backend in order and returns the first image produced
package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

// ErrNoData is returned when a dataset has nothing to draw
var ErrNoData = errors.New("dataset has no chartable values")

// Backend is a named chart renderer
type Backend interface {
	core.ChartRenderer
	Name() string
}

// Chain renders with the first backend that succeeds
type Chain struct {
	backends []Backend
	logger   *slog.Logger
}

// NewChain creates a fallback chain over backends in priority order
func NewChain(logger *slog.Logger, backends ...Backend) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{backends: backends, logger: logger.With("component", "chart")}
}

// Backends lists backend names in priority order
func (c *Chain) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Render implements core.ChartRenderer
func (c *Chain) Render(ctx context.Context, ds models.Dataset, chartType, title string) (*core.Image, error) {
	var errs []error
	for _, b := range c.backends {
		img, err := b.Render(ctx, ds, chartType, title)
		if err == nil {
			c.logger.Debug("chart rendered", "backend", b.Name(), "bytes", len(img.Data))
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("chart backend failed", "backend", b.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	if len(errs) == 0 {
		return nil, errors.New("no chart backends configured")
	}
	return nil, errors.Join(errs...)
}

// New selects renderers for mode: auto, gochart, svg or none. It returns nil
// for none, which disables chart attachments.
func New(mode string, logger *slog.Logger) (core.ChartRenderer, error) {
	switch mode {
	case "", "auto":
		return NewChain(logger, NewGoChart(), NewSVG()), nil
	case "gochart":
		return NewChain(logger, NewGoChart()), nil
	case "svg":
		return NewChain(logger, NewSVG()), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown chart renderer %q", mode)
}
