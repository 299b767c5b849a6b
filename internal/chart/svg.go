// ABOUTME: Dependency-free SVG chart renderer used as the last fallback
// ABOUTME: Draws simple bar, line and pie charts that tolerate degenerate data
package chart

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

const (
	svgWidth   = 800
	svgHeight  = 420
	svgMargin  = 50
	svgTitleY  = 28
	labelLimit = 18
)

var palette = []string{"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948", "#b07aa1", "#ff9da7"}

// SVG renders charts as SVG markup
type SVG struct{}

// NewSVG creates an SVG renderer
func NewSVG() *SVG { return &SVG{} }

// Name identifies the renderer in logs
func (s *SVG) Name() string { return "svg" }

// Render implements core.ChartRenderer
func (s *SVG) Render(ctx context.Context, ds models.Dataset, chartType, title string) (*core.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ds.Usable() {
		return nil, ErrNoData
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		svgWidth, svgHeight, svgWidth, svgHeight)
	sb.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" text-anchor="middle" font-size="18">%s</text>`, svgWidth/2, svgTitleY, html.EscapeString(title))

	switch models.NormalizeChartType(chartType) {
	case models.ChartPie:
		writePie(&sb, ds)
	case models.ChartLine:
		writeLine(&sb, ds)
	default:
		writeBars(&sb, ds)
	}

	sb.WriteString(`</svg>`)
	return &core.Image{Data: []byte(sb.String()), ContentType: "image/svg+xml", Name: "chart.svg"}, nil
}

func writeBars(sb *strings.Builder, ds models.Dataset) {
	top, bottom := svgMargin, svgHeight-svgMargin
	plotHeight := float64(bottom - top)
	peak := maxValue(ds.Data)

	slot := float64(svgWidth-2*svgMargin) / float64(len(ds.Data))
	width := slot * 0.6
	for i, v := range ds.Data {
		h := 0.0
		if peak > 0 && v > 0 {
			h = v / peak * plotHeight
		}
		x := float64(svgMargin) + slot*float64(i) + (slot-width)/2
		fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			x, float64(bottom)-h, width, h, palette[i%len(palette)])
		fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="12">%s</text>`,
			x+width/2, float64(bottom)-h-4, formatValue(v, unitAt(ds, i)))
		fmt.Fprintf(sb, `<text x="%.1f" y="%d" text-anchor="middle" font-size="12">%s</text>`,
			x+width/2, bottom+18, html.EscapeString(shorten(ds.Labels[i])))
	}
	fmt.Fprintf(sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`, svgMargin, bottom, svgWidth-svgMargin, bottom)
}

func writeLine(sb *strings.Builder, ds models.Dataset) {
	top, bottom := svgMargin, svgHeight-svgMargin
	plotHeight := float64(bottom - top)
	lo, hi := minValue(ds.Data), maxValue(ds.Data)
	span := hi - lo

	step := 0.0
	if len(ds.Data) > 1 {
		step = float64(svgWidth-2*svgMargin) / float64(len(ds.Data)-1)
	}

	points := make([]string, len(ds.Data))
	for i, v := range ds.Data {
		y := float64(bottom) - plotHeight/2
		if span > 0 {
			y = float64(bottom) - (v-lo)/span*plotHeight
		}
		x := float64(svgMargin) + step*float64(i)
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
		fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`, x, y, palette[0])
		fmt.Fprintf(sb, `<text x="%.1f" y="%d" text-anchor="middle" font-size="12">%s</text>`,
			x, bottom+18, html.EscapeString(shorten(ds.Labels[i])))
	}
	fmt.Fprintf(sb, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(points, " "), palette[0])
}

func writePie(sb *strings.Builder, ds models.Dataset) {
	total := 0.0
	for _, v := range ds.Data {
		if v > 0 {
			total += v
		}
	}
	cx, cy, r := float64(svgWidth)/3, float64(svgHeight)/2+10, float64(svgHeight)/2-svgMargin
	if total == 0 {
		fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#dddddd"/>`, cx, cy, r)
		return
	}

	angle := -math.Pi / 2
	for i, v := range ds.Data {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		color := palette[i%len(palette)]
		if sweep >= 2*math.Pi-1e-9 {
			fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`, cx, cy, r, color)
		} else {
			x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
			x2, y2 := cx+r*math.Cos(angle+sweep), cy+r*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(sb, `<path d="M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 1 %.1f,%.1f Z" fill="%s"/>`,
				cx, cy, x1, y1, r, r, large, x2, y2, color)
		}
		angle += sweep

		ly := float64(svgMargin + 22*i)
		fmt.Fprintf(sb, `<rect x="%d" y="%.1f" width="12" height="12" fill="%s"/>`, svgWidth*2/3, ly, color)
		fmt.Fprintf(sb, `<text x="%d" y="%.1f" font-size="12">%s (%s)</text>`,
			svgWidth*2/3+18, ly+11, html.EscapeString(shorten(ds.Labels[i])), formatValue(v, unitAt(ds, i)))
	}
}

func maxValue(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		m = math.Max(m, v)
	}
	return m
}

func minValue(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		m = math.Min(m, v)
	}
	return m
}

func unitAt(ds models.Dataset, i int) string {
	if i < len(ds.Units) {
		return ds.Units[i]
	}
	return ""
}

func formatValue(v float64, unit string) string {
	s := fmt.Sprintf("%g", v)
	if unit != "" {
		s += " " + html.EscapeString(unit)
	}
	return s
}

func shorten(label string) string {
	r := []rune(label)
	if len(r) <= labelLimit {
		return label
	}
	return string(r[:labelLimit-1]) + "…"
}
