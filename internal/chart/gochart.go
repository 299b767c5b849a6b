// ABOUTME: PNG chart renderer backed by go-chart
// ABOUTME: Draws bar, line and pie charts from an extracted dataset
package chart

import (
	"bytes"
	"context"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

const (
	defaultWidth  = 1024
	defaultHeight = 512
)

// GoChart renders PNG images with go-chart
type GoChart struct {
	Width  int
	Height int
}

// NewGoChart creates a renderer with the default canvas size
func NewGoChart() *GoChart {
	return &GoChart{Width: defaultWidth, Height: defaultHeight}
}

// Name identifies the renderer in logs
func (g *GoChart) Name() string { return "gochart" }

// Render implements core.ChartRenderer
func (g *GoChart) Render(ctx context.Context, ds models.Dataset, chartType, title string) (*core.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ds.Usable() {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	var err error
	switch models.NormalizeChartType(chartType) {
	case models.ChartPie:
		pie := g.pie(ds, title)
		if len(pie.Values) == 0 {
			err = g.bar(ds, title).Render(gochart.PNG, &buf)
			break
		}
		err = pie.Render(gochart.PNG, &buf)
	case models.ChartLine:
		if len(ds.Data) < 2 {
			// a single point has no x extent to draw a line across
			err = g.bar(ds, title).Render(gochart.PNG, &buf)
			break
		}
		err = g.line(ds, title).Render(gochart.PNG, &buf)
	default:
		err = g.bar(ds, title).Render(gochart.PNG, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", chartType, err)
	}

	return &core.Image{Data: buf.Bytes(), ContentType: "image/png", Name: "chart.png"}, nil
}

func (g *GoChart) bar(ds models.Dataset, title string) gochart.BarChart {
	bars := make([]gochart.Value, len(ds.Data))
	for i, v := range ds.Data {
		bars[i] = gochart.Value{Label: ds.Labels[i], Value: v}
	}
	return gochart.BarChart{
		Title:      title,
		Width:      g.Width,
		Height:     g.Height,
		BarWidth:   barWidth(g.Width, len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.YAxis{Range: valueRange(ds.Data)},
		Bars:       bars,
	}
}

func (g *GoChart) pie(ds models.Dataset, title string) gochart.PieChart {
	values := make([]gochart.Value, 0, len(ds.Data))
	for i, v := range ds.Data {
		if v > 0 {
			values = append(values, gochart.Value{Label: ds.Labels[i], Value: v})
		}
	}
	return gochart.PieChart{
		Title:  title,
		Width:  g.Height,
		Height: g.Height,
		Values: values,
	}
}

func (g *GoChart) line(ds models.Dataset, title string) gochart.Chart {
	xs := make([]float64, len(ds.Data))
	ticks := make([]gochart.Tick, len(ds.Data))
	for i := range ds.Data {
		xs[i] = float64(i)
		ticks[i] = gochart.Tick{Value: float64(i), Label: ds.Labels[i]}
	}
	return gochart.Chart{
		Title:      title,
		Width:      g.Width,
		Height:     g.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		XAxis:      gochart.XAxis{Ticks: ticks},
		YAxis:      gochart.YAxis{Range: valueRange(ds.Data)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{XValues: xs, YValues: ds.Data},
		},
	}
}

// valueRange spans zero and every value, and is never empty
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 1.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// barWidth fits bars into the canvas with room for spacing
func barWidth(width, bars int) int {
	if bars == 0 {
		return 60
	}
	w := width / (bars * 2)
	return max(10, min(w, 80))
}
