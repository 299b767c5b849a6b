// ABOUTME: LanguagePipeline detects the query language and localizes fixed messages
// ABOUTME: Detection and translation are single LLM calls; English needs no translation
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/supportbot/internal/models"
)

// DefaultLanguage is assumed when detection fails or returns nothing usable
const DefaultLanguage = "en"

// LanguagePipeline wraps language detection and translation
type LanguagePipeline struct {
	llm             ChatCompleter
	detectParams    models.ModelParams
	translateParams models.ModelParams
	logger          *slog.Logger
}

// NewLanguagePipeline creates a pipeline with per-call parameters
func NewLanguagePipeline(llm ChatCompleter, detectParams, translateParams models.ModelParams, logger *slog.Logger) *LanguagePipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &LanguagePipeline{
		llm:             llm,
		detectParams:    detectParams,
		translateParams: translateParams,
		logger:          logger.With("component", "language"),
	}
}

// Detect returns a lower-case language code for text
func (p *LanguagePipeline) Detect(ctx context.Context, text string) (string, error) {
	raw, err := p.llm.Complete(ctx, []models.ContextMessage{
		{Role: models.RoleSystem, Content: detectLanguageInstruction},
		{Role: models.RoleUser, Content: text},
	}, p.detectParams)
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	return NormalizeLanguageCode(raw), nil
}

// DetectOrDefault is Detect with failures logged and mapped to English
func (p *LanguagePipeline) DetectOrDefault(ctx context.Context, text string) string {
	lang, err := p.Detect(ctx, text)
	if err != nil {
		p.logger.Warn("language detection failed, assuming English", "error", err)
		return DefaultLanguage
	}
	return lang
}

// Translate renders text in the target language
func (p *LanguagePipeline) Translate(ctx context.Context, text, lang string) (string, error) {
	out, err := p.llm.Complete(ctx, []models.ContextMessage{
		{Role: models.RoleSystem, Content: translateInstruction(lang)},
		{Role: models.RoleUser, Content: text},
	}, p.translateParams)
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", lang, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("translate to %s: empty output", lang)
	}
	return out, nil
}

// Localize returns text in lang, or text unchanged for English and on failure
func (p *LanguagePipeline) Localize(ctx context.Context, text, lang string) string {
	if lang == "" || lang == DefaultLanguage {
		return text
	}
	out, err := p.Translate(ctx, text, lang)
	if err != nil {
		p.logger.Warn("translation failed, sending English", "language", lang, "error", err)
		return text
	}
	return out
}

// NormalizeLanguageCode reduces model output such as "ES", "'en'" or "pt-BR"
// to a bare lower-case code. Anything unrecognizable becomes DefaultLanguage.
func NormalizeLanguageCode(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return DefaultLanguage
	}
	code := strings.Trim(fields[0], " .,:;!\"'`*()[]")
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if len(code) < 2 || len(code) > 3 {
		return DefaultLanguage
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return DefaultLanguage
		}
	}
	return code
}
