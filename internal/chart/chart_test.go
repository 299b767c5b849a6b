// ABOUTME: Tests for chart backends and the fallback chain
// ABOUTME: Renders the detention dataset and checks backend ordering and errors
package chart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

var detention = models.Dataset{
	Labels: []string{"Papers Transportation", "Clipper Logistics", "Shaffer Trucking Company", "Legend Transport"},
	Data:   []float64{740, 260, 120, 380},
	Units:  []string{"USD", "USD", "USD", "USD"},
}

const detentionTitle = "Detention Cost by Carrier - March 2025"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubBackend struct {
	name  string
	err   error
	calls int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Render(ctx context.Context, ds models.Dataset, chartType, title string) (*core.Image, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &core.Image{Data: []byte(s.name), ContentType: "image/test", Name: s.name}, nil
}

func TestGoChart_RendersPNG(t *testing.T) {
	for _, chartType := range []string{models.ChartBar, models.ChartPie, models.ChartLine} {
		t.Run(chartType, func(t *testing.T) {
			img, err := NewGoChart().Render(context.Background(), detention, chartType, detentionTitle)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if img.ContentType != "image/png" {
				t.Errorf("ContentType = %q", img.ContentType)
			}
			if !bytes.HasPrefix(img.Data, []byte("\x89PNG")) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestGoChart_DegenerateData(t *testing.T) {
	tests := []struct {
		name      string
		chartType string
		data      []float64
	}{
		{"single bar", models.ChartBar, []float64{740}},
		{"all zero bars", models.ChartBar, []float64{0, 0, 0}},
		{"equal bars", models.ChartBar, []float64{5, 5}},
		{"negative bars", models.ChartBar, []float64{-3, 4}},
		{"single point line", models.ChartLine, []float64{12}},
		{"flat line", models.ChartLine, []float64{7, 7, 7}},
		{"single slice pie", models.ChartPie, []float64{1}},
		{"all zero pie", models.ChartPie, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := models.Dataset{Labels: detention.Labels[:len(tt.data)], Data: tt.data}
			img, err := NewGoChart().Render(context.Background(), ds, tt.chartType, "Degenerate")
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.HasPrefix(img.Data, []byte("\x89PNG")) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestValueRange(t *testing.T) {
	tests := []struct {
		values   []float64
		min, max float64
	}{
		{[]float64{740}, 0, 740},
		{[]float64{0, 0}, 0, 1},
		{[]float64{0.5}, 0, 1},
		{[]float64{-3, 4}, -3, 4},
		{[]float64{-2, -2}, -2, 1},
	}
	for _, tt := range tests {
		r := valueRange(tt.values)
		if r.Min != tt.min || r.Max != tt.max {
			t.Errorf("valueRange(%v) = [%v, %v], want [%v, %v]", tt.values, r.Min, r.Max, tt.min, tt.max)
		}
	}
}

func TestSVG_Render(t *testing.T) {
	tests := []struct {
		chartType string
		element   string
	}{
		{models.ChartBar, "<rect x="},
		{models.ChartLine, "<polyline"},
		{models.ChartPie, "<path"},
	}

	for _, tt := range tests {
		t.Run(tt.chartType, func(t *testing.T) {
			img, err := NewSVG().Render(context.Background(), detention, tt.chartType, detentionTitle)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			svg := string(img.Data)
			if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
				t.Errorf("not an svg document: %.40q", svg)
			}
			if !strings.Contains(svg, detentionTitle) {
				t.Error("title missing")
			}
			if !strings.Contains(svg, tt.element) {
				t.Errorf("missing %s element", tt.element)
			}
		})
	}
}

func TestSVG_DegenerateData(t *testing.T) {
	ds := models.Dataset{Labels: []string{"a & b", "c"}, Data: []float64{0, 0}}
	for _, chartType := range []string{models.ChartBar, models.ChartLine, models.ChartPie} {
		img, err := NewSVG().Render(context.Background(), ds, chartType, "<zero>")
		if err != nil {
			t.Fatalf("%s: Render() error = %v", chartType, err)
		}
		if strings.Contains(string(img.Data), "<zero>") || strings.Contains(string(img.Data), "NaN") {
			t.Errorf("%s: unescaped title or NaN coordinates", chartType)
		}
	}
}

func TestRenderers_RejectEmptyData(t *testing.T) {
	for _, b := range []Backend{NewGoChart(), NewSVG()} {
		if _, err := b.Render(context.Background(), models.Dataset{}, "bar", "t"); !errors.Is(err, ErrNoData) {
			t.Errorf("%s: error = %v, want ErrNoData", b.Name(), err)
		}
	}
}

func TestChain_FallsBack(t *testing.T) {
	first := &stubBackend{name: "first", err: errors.New("boom")}
	second := &stubBackend{name: "second"}
	third := &stubBackend{name: "third"}
	c := NewChain(quietLogger(), first, second, third)

	img, err := c.Render(context.Background(), detention, "bar", "t")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(img.Data) != "second" {
		t.Errorf("rendered by %q, want second", img.Data)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d", first.calls, second.calls, third.calls)
	}
}

func TestChain_AllFail(t *testing.T) {
	errA := errors.New("a failed")
	c := NewChain(quietLogger(),
		&stubBackend{name: "a", err: errA},
		&stubBackend{name: "b", err: errors.New("b failed")})

	_, err := c.Render(context.Background(), detention, "bar", "t")
	if !errors.Is(err, errA) {
		t.Fatalf("error = %v, want joined backend errors", err)
	}
	if !strings.Contains(err.Error(), "b: b failed") {
		t.Errorf("error = %q, want every backend named", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode     string
		backends []string
		wantNil  bool
		wantErr  bool
	}{
		{mode: "auto", backends: []string{"gochart", "svg"}},
		{mode: "", backends: []string{"gochart", "svg"}},
		{mode: "gochart", backends: []string{"gochart"}},
		{mode: "svg", backends: []string{"svg"}},
		{mode: "none", wantNil: true},
		{mode: "canvas", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			r, err := New(tt.mode, quietLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v", tt.mode, err)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if r != nil {
					t.Errorf("New(%q) = %v, want nil", tt.mode, r)
				}
				return
			}
			chain, ok := r.(*Chain)
			if !ok {
				t.Fatalf("New(%q) = %T, want *Chain", tt.mode, r)
			}
			if got := strings.Join(chain.Backends(), ","); got != strings.Join(tt.backends, ",") {
				t.Errorf("backends = %s, want %v", got, tt.backends)
			}
		})
	}
}
