// ABOUTME: Centralized configuration for the support bot
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harper/supportbot/internal/attachments"
	"github.com/harper/supportbot/internal/models"
)

// Retrieval modes
const (
	RAGModeLexical  = "lexical"
	RAGModeSemantic = "semantic"
)

// Config holds all configuration for the bot
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Sampling settings per call type
	LanguageDetectionTemperature float64
	MessageIntentTemperature     float64
	ResponseTemperature          float64
	TranslationTemperature       float64
	FrequencyPenalty             float64
	PresencePenalty              float64

	// Conversation settings
	MessageRetentionCount int
	ConversationRetention time.Duration
	ContextMaxTokens      int
	RecentMessageWindow   int

	// Knowledge settings
	KnowledgeBasePath string
	ChunkSize         int
	MaxChunks         int
	RAGMode           string

	// Bot settings
	BotName       string
	ProductName   string
	SupportUsers  []models.SupportContact
	ReplyTo       []string
	Port          int
	TranscriptDB  string
	ChartRenderer string
	ImageOCR      bool

	// Bot Framework credentials; empty app id disables outbound auth
	AppID       string
	AppPassword string
	AppTenantID string

	// Hosts trusted with the bot token beyond the Bot Framework ones
	TrustedServiceHosts []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("SECRET_OPENAI_API_KEY")
	}

	cfg := &Config{
		OpenAIKey:      apiKey,
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		ChatModel:      getEnv("OPENAI_MODEL", "chatgpt-4o-latest"),
		EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 0),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),

		LanguageDetectionTemperature: getEnvFloat("LANGUAGE_DETECTION_TEMPERATURE", 0.3),
		MessageIntentTemperature:     getEnvFloat("MESSAGE_INTENT_TEMPERATURE", 0.5),
		ResponseTemperature:          getEnvFloat("RESPONSE_TEMPERATURE", 0.7),
		TranslationTemperature:       getEnvFloat("TRANSLATION_TEMPERATURE", 0.3),
		FrequencyPenalty:             getEnvFloat("COMPLETION_FREQUENCY_PENALTY", 0.8),
		PresencePenalty:              getEnvFloat("COMPLETION_PRESENCE_PENALTY", 0.3),

		MessageRetentionCount: getEnvInt("MESSAGE_RETENTION_COUNT", 20),
		ConversationRetention: getEnvDuration("CONVERSATION_RETENTION", 24*time.Hour),
		ContextMaxTokens:      getEnvInt("CONTEXT_MAX_TOKENS", 1500),
		RecentMessageWindow:   getEnvInt("RECENT_MESSAGE_WINDOW", 6),

		KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_PATH", "data/knowledge.md"),
		ChunkSize:         getEnvInt("KNOWLEDGE_CHUNK_SIZE", 500),
		MaxChunks:         getEnvInt("RAG_MAX_CHUNKS", 3),
		RAGMode:           strings.ToLower(getEnv("RAG_MODE", RAGModeLexical)),

		BotName:       getEnv("BOT_NAME", "SupportBot"),
		ProductName:   getEnv("PRODUCT_NAME", "IntelliGate"),
		SupportUsers:  ParseSupportUsers(os.Getenv("SUPPORT_USERS")),
		ReplyTo:       ParseReplyTo(os.Getenv("REPLY_TO")),
		Port:          getEnvInt("PORT", 3978),
		TranscriptDB:  os.Getenv("TRANSCRIPT_DB"),
		ChartRenderer: strings.ToLower(getEnv("CHART_RENDERER", "auto")),
		ImageOCR:      getEnvBool("ENABLE_IMAGE_OCR", true),

		AppID:       os.Getenv("MICROSOFT_APP_ID"),
		AppPassword: os.Getenv("MICROSOFT_APP_PASSWORD"),
		AppTenantID: os.Getenv("MICROSOFT_APP_TENANT_ID"),

		TrustedServiceHosts: ParseHostList(os.Getenv("TRUSTED_SERVICE_HOSTS")),
	}

	return cfg, cfg.Validate()
}

// Validate checks that every setting is in range and credentials are complete
func (c *Config) Validate() error {
	if c.MessageRetentionCount < 1 {
		return fmt.Errorf("MESSAGE_RETENTION_COUNT must be positive, got %d", c.MessageRetentionCount)
	}
	if c.ConversationRetention <= 0 {
		return fmt.Errorf("CONVERSATION_RETENTION must be positive, got %v", c.ConversationRetention)
	}
	if c.ContextMaxTokens < 1 {
		return fmt.Errorf("CONTEXT_MAX_TOKENS must be positive, got %d", c.ContextMaxTokens)
	}
	if c.RecentMessageWindow < 1 {
		return fmt.Errorf("RECENT_MESSAGE_WINDOW must be positive, got %d", c.RecentMessageWindow)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("KNOWLEDGE_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.MaxChunks < 1 {
		return fmt.Errorf("RAG_MAX_CHUNKS must be positive, got %d", c.MaxChunks)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be 1-65535, got %d", c.Port)
	}
	if c.AppID != "" && c.AppPassword == "" {
		return fmt.Errorf("MICROSOFT_APP_PASSWORD is required when MICROSOFT_APP_ID is set")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}

	temps := map[string]float64{
		"LANGUAGE_DETECTION_TEMPERATURE": c.LanguageDetectionTemperature,
		"MESSAGE_INTENT_TEMPERATURE":     c.MessageIntentTemperature,
		"RESPONSE_TEMPERATURE":           c.ResponseTemperature,
		"TRANSLATION_TEMPERATURE":        c.TranslationTemperature,
	}
	for name, v := range temps {
		if v < 0 || v > 2 {
			return fmt.Errorf("%s must be 0-2, got %f", name, v)
		}
	}
	if c.FrequencyPenalty < -2 || c.FrequencyPenalty > 2 {
		return fmt.Errorf("COMPLETION_FREQUENCY_PENALTY must be -2-2, got %f", c.FrequencyPenalty)
	}
	if c.PresencePenalty < -2 || c.PresencePenalty > 2 {
		return fmt.Errorf("COMPLETION_PRESENCE_PENALTY must be -2-2, got %f", c.PresencePenalty)
	}

	switch c.RAGMode {
	case RAGModeLexical, RAGModeSemantic:
	default:
		return fmt.Errorf("RAG_MODE must be lexical or semantic, got %q", c.RAGMode)
	}
	switch c.ChartRenderer {
	case "auto", "gochart", "svg", "none":
	default:
		return fmt.Errorf("CHART_RENDERER must be auto, gochart, svg or none, got %q", c.ChartRenderer)
	}
	return nil
}

// Params returns completion parameters for the configured model at the given temperature
func (c *Config) Params(temperature float64) models.ModelParams {
	return models.ModelParams{
		Model:       c.ChatModel,
		Temperature: float32(temperature),
	}
}

// ResponseParams returns the parameters used for the main answer completion
func (c *Config) ResponseParams() models.ModelParams {
	p := c.Params(c.ResponseTemperature)
	p.FrequencyPenalty = float32(c.FrequencyPenalty)
	p.PresencePenalty = float32(c.PresencePenalty)
	return p
}

// TrustedHosts returns the hosts allowed to receive the bot token.
// Loopback is trusted only when no app id is configured, for local emulators.
func (c *Config) TrustedHosts() attachments.TrustedHosts {
	return attachments.TrustedHosts{
		Extra:         c.TrustedServiceHosts,
		AllowLoopback: c.AppID == "",
	}
}

// ParseSupportUsers parses "Name:email,Name:email" into contacts
func ParseSupportUsers(raw string) []models.SupportContact {
	var contacts []models.SupportContact
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, email, _ := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		contacts = append(contacts, models.SupportContact{
			Name:  name,
			Email: strings.TrimSpace(email),
		})
	}
	return contacts
}

// ParseReplyTo parses a "|"-separated list of display names into normalized form
func ParseReplyTo(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, "|") {
		if n := NormalizeName(name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// ParseHostList parses a comma-separated host list, lower-cased
func ParseHostList(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// NormalizeName lower-cases a display name and strips all spaces
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
