// ABOUTME: GraphAugmenter attaches a chart to answers when the user asked for one
// ABOUTME: Extracts a dataset via the LLM, then by pattern matching, and renders it
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/harper/supportbot/internal/models"
)

const (
	graphTemperature = 0.1
	graphMaxTokens   = 1000
	maxTitleLength   = 80
)

var (
	graphKeywords = regexp.MustCompile(`(?i)\b(graph|chart|plot|visual|breakdown|distribution|diagram|histogram|trend|comparison)`)

	barLine     = regexp.MustCompile(`^([A-Za-z\s&]+?)(?:\s{3,}|█)`)
	usdValue    = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(USD|dollars?)`)
	usdInLine   = regexp.MustCompile(`(?i)\d+\s*USD`)
	hasLetter   = regexp.MustCompile(`[A-Za-z]`)
	labelDashUS = regexp.MustCompile(`(?i)([A-Za-z\s&]+?)\s*[-:]\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(USD|dollars?)`)
	labelSpUSD  = regexp.MustCompile(`(?i)([A-Za-z\s&]+?)\s+(\d+(?:,\d{3})*(?:\.\d+)?)\s*(USD|dollars?)`)
	labelValue  = regexp.MustCompile(`(?i)([A-Za-z\s&]+?)\s*[-:]\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(%|units?|pieces?)?`)
	bareNumber  = regexp.MustCompile(`\b\d+(?:,\d{3})*(?:\.\d+)?\b`)
	numberTail  = regexp.MustCompile(`\d+.*`)
	barsSpaces  = regexp.MustCompile(`[█\s]+`)
	codeFence   = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	pieHint     = regexp.MustCompile(`(?i)\bpie\b`)
	lineHint    = regexp.MustCompile(`(?i)\b(line|trend)`)
)

// WantsGraph reports whether the query asks for a visual representation
func WantsGraph(query string) bool {
	return graphKeywords.MatchString(query)
}

// GraphAugmenter turns numeric answers into chart attachments
type GraphAugmenter struct {
	llm      ChatCompleter
	params   models.ModelParams
	renderer ChartRenderer
	logger   *slog.Logger
}

// NewGraphAugmenter creates an augmenter; a nil renderer disables charts
func NewGraphAugmenter(llm ChatCompleter, model string, renderer ChartRenderer, logger *slog.Logger) *GraphAugmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphAugmenter{
		llm: llm,
		params: models.ModelParams{
			Model:       model,
			Temperature: graphTemperature,
			MaxTokens:   graphMaxTokens,
			JSONMode:    true,
		},
		renderer: renderer,
		logger:   logger.With("component", "graph_augmenter"),
	}
}

// Augment returns the text to send and any chart attachments. It never fails:
// extraction problems leave the answer unchanged and render problems append a notice.
func (g *GraphAugmenter) Augment(ctx context.Context, query, answer string) (string, []models.Attachment) {
	if g == nil || g.renderer == nil || !WantsGraph(query) {
		return answer, nil
	}

	ds := g.Extract(ctx, query, answer)
	if !ds.Usable() {
		g.logger.Debug("no chartable data in answer")
		return answer, nil
	}

	chartType := chartTypeFor(query, ds.ChartType)
	title := ds.Title
	if title == "" {
		title = titleFromQuery(query)
	}

	img, err := g.renderer.Render(ctx, *ds, chartType, title)
	if err != nil || img == nil || len(img.Data) == 0 {
		g.logger.Warn("chart render failed", "error", err, "chart_type", chartType)
		return answer + "\n\n" + ChartFailureNotice, nil
	}

	g.logger.Info("chart attached", "chart_type", chartType, "points", len(ds.Data), "bytes", len(img.Data))
	return answer, []models.Attachment{{
		ContentType: img.ContentType,
		Name:        img.Name,
		Data:        img.Data,
	}}
}

// Extract tries LLM extraction first and pattern extraction second
func (g *GraphAugmenter) Extract(ctx context.Context, query, answer string) *models.Dataset {
	if g.llm != nil {
		ds, err := g.extractWithLLM(ctx, query, answer)
		if err == nil && ds.Usable() {
			return ds
		}
		if err != nil {
			g.logger.Warn("LLM data extraction failed, using pattern extraction", "error", err)
		}
	}
	return ExtractDataset(answer)
}

func (g *GraphAugmenter) extractWithLLM(ctx context.Context, query, answer string) (*models.Dataset, error) {
	raw, err := g.llm.Complete(ctx, []models.ContextMessage{
		{Role: models.RoleSystem, Content: graphExtractionInstruction},
		{Role: models.RoleUser, Content: graphExtractionPrompt(answer, query)},
	}, g.params)
	if err != nil {
		return nil, err
	}
	return parseDatasetJSON(raw)
}

func parseDatasetJSON(raw string) (*models.Dataset, error) {
	raw = strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var ds models.Dataset
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		return nil, fmt.Errorf("parse dataset JSON: %w", err)
	}
	if !ds.Usable() {
		return nil, fmt.Errorf("dataset has %d labels and %d values", len(ds.Labels), len(ds.Data))
	}
	return &ds, nil
}

type labeledValue struct {
	label string
	value float64
	unit  string
}

// ExtractDataset pulls label/value pairs out of free text. Patterns are tried
// from most to least specific; nil means nothing usable was found.
func ExtractDataset(text string) *models.Dataset {
	if matches := barChartLines(text); len(matches) > 0 {
		return toDataset(matches)
	}
	for _, p := range []struct {
		re          *regexp.Regexp
		defaultUnit string
	}{
		{labelDashUS, "USD"},
		{labelSpUSD, "USD"},
		{labelValue, ""},
	} {
		if matches := matchPairs(p.re, text, p.defaultUnit); len(matches) > 0 {
			return toDataset(matches)
		}
	}
	return bareNumbers(text)
}

// barChartLines handles text-art charts such as "Carrier ████ 740 USD"
func barChartLines(text string) []labeledValue {
	var out []labeledValue
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.Contains(line, "█") && !(hasLetter.MatchString(line) && usdInLine.MatchString(line)) {
			continue
		}
		if strings.Contains(strings.ToLower(line), "total") {
			continue
		}
		name := barLine.FindStringSubmatch(line)
		value := usdValue.FindStringSubmatch(line)
		if name == nil || value == nil {
			continue
		}
		v, ok := parseNumber(value[1])
		if !ok {
			continue
		}
		unit := value[2]
		if unit == "" {
			unit = "USD"
		}
		out = append(out, labeledValue{label: strings.TrimSpace(name[1]), value: v, unit: unit})
	}
	return out
}

func matchPairs(re *regexp.Regexp, text, defaultUnit string) []labeledValue {
	var out []labeledValue
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[1])
		v, ok := parseNumber(m[2])
		if label == "" || !ok || strings.Contains(strings.ToLower(label), "total") {
			continue
		}
		unit := m[3]
		if unit == "" {
			unit = defaultUnit
		}
		out = append(out, labeledValue{label: label, value: v, unit: unit})
	}
	return out
}

// bareNumbers pairs the numbers in text with the leading text of its lines
func bareNumbers(text string) *models.Dataset {
	var numbers []float64
	for _, s := range bareNumber.FindAllString(text, -1) {
		if v, ok := parseNumber(s); ok {
			numbers = append(numbers, v)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	// labels come from the first lines that could carry those numbers
	var labels []string
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if seen == len(numbers) {
			break
		}
		seen++
		label := numberTail.ReplaceAllString(line, "")
		label = strings.TrimSpace(barsSpaces.ReplaceAllString(label, " "))
		label = strings.TrimRight(label, ":- ")
		if label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return nil
	}

	n := min(len(labels), len(numbers))
	return &models.Dataset{Labels: labels[:n], Data: numbers[:n], ChartType: models.ChartBar}
}

func toDataset(matches []labeledValue) *models.Dataset {
	ds := &models.Dataset{ChartType: models.ChartBar}
	for _, m := range matches {
		ds.Labels = append(ds.Labels, m.label)
		ds.Data = append(ds.Data, m.value)
		ds.Units = append(ds.Units, m.unit)
	}
	return ds
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v, err == nil
}

// chartTypeFor lets explicit wording in the query override the suggested type
func chartTypeFor(query, suggested string) string {
	switch {
	case pieHint.MatchString(query):
		return models.ChartPie
	case lineHint.MatchString(query):
		return models.ChartLine
	}
	return models.NormalizeChartType(suggested)
}

func titleFromQuery(query string) string {
	t := strings.TrimSpace(query)
	if r := []rune(t); len(r) > maxTitleLength {
		t = string(r[:maxTitleLength]) + "…"
	}
	return t
}
