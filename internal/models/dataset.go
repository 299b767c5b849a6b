// ABOUTME: Dataset is a labeled numeric series extracted from an answer for charting
// ABOUTME: Shared between the graph augmenter and chart renderers
package models

import "strings"

// Chart types understood by renderers
const (
	ChartBar  = "bar"
	ChartLine = "line"
	ChartPie  = "pie"
)

// Dataset holds chartable data
type Dataset struct {
	Labels    []string  `json:"labels"`
	Data      []float64 `json:"data"`
	Units     []string  `json:"units,omitempty"`
	Title     string    `json:"title,omitempty"`
	ChartType string    `json:"chartType,omitempty"`
}

// Usable reports whether the dataset can be rendered
func (d *Dataset) Usable() bool {
	return d != nil && len(d.Labels) > 0 && len(d.Labels) == len(d.Data)
}

// NormalizeChartType maps free-form chart names onto bar, line or pie
func NormalizeChartType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case ChartPie, "doughnut", "donut":
		return ChartPie
	case ChartLine, "trend", "area":
		return ChartLine
	default:
		return ChartBar
	}
}
