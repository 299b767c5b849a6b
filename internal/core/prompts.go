// ABOUTME: Fixed prompts and user-facing messages used by the core
// ABOUTME: Keeps instruction text in one place so flows and tests share it
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/supportbot/internal/models"
)

const (
	intentInstruction = "Analyze if the given message is a question or error or RELATED_STATEMENT or can be ignored. " +
		"Respond with exactly: QUESTION, ERROR, RELATED_STATEMENT or IGNORE. " +
		"Examples: 'How do I...' -> QUESTION, 'I'm getting error...' -> ERROR, " +
		"'Any info regarding warehouse checkin checkout yard, validator, containing PIN, password etc' -> RELATED_STATEMENT, " +
		"'Good morning, any general conversation that is not asked or given to the bot, just people interacting with each other' -> IGNORE"

	summarizerInstruction = "You are a conversation summarizer. Create concise, informative summaries."

	detectLanguageInstruction = "Detect the language of the following text and respond with the language code only " +
		"(e.g., 'en' for English, 'es' for Spanish, etc.)"

	graphExtractionInstruction = "You are a data extraction specialist. Extract structured data for chart creation. Always return valid JSON."

	// ImageExtractionPrompt asks the vision model for the form question and error shown in a screenshot
	ImageExtractionPrompt = "Please extract and return: 1) The exact question being asked in the form, and 2) Any error message shown. " +
		"Format as: Question: [question text] Error: [error message]"

	// NoAnswerFallback is sent, translated when needed, when the knowledge base has no answer
	NoAnswerFallback = "I don't have information about that in my knowledge base. Let me notify our support team."

	// NeedSupportFallback is sent untranslated when the user asks for a human
	NeedSupportFallback = "I'll notify our support team to help you with this request."

	// ErrorFallback is sent when handling fails unexpectedly
	ErrorFallback = "Sorry, I encountered an error processing your request. Let me notify our support team."

	// SupportRequestSuffix follows the support contact mentions
	SupportRequestSuffix = "- Could you please help with this query?"

	// ChartFailureNotice is appended when a requested chart could not be produced
	ChartFailureNotice = "(Sorry, I couldn't generate a chart for this answer.)"

	summaryPrefix = "Previous conversation summary: "
)

// WelcomeMessage greets a team when the bot is added
func WelcomeMessage(productName string) string {
	return fmt.Sprintf("Hello and welcome! I am your assistant for %s support. "+
		"Please mention me with your query and I will do my best to help you. "+
		"If I am unable to assist, I will notify our support team.", productName)
}

func translateInstruction(lang string) string {
	return "Translate the following text to " + lang
}

// summaryPrompt renders old turns as a transcript inside the summary request
func summaryPrompt(old []models.Turn) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following conversation history in 2-3 sentences, focusing on:\n")
	sb.WriteString("1. Key questions asked by the user\n")
	sb.WriteString("2. Main topics discussed\n")
	sb.WriteString("3. Any important context or ongoing issues\n\n")
	sb.WriteString("Conversation:\n")
	for _, t := range old {
		speaker := "Assistant"
		if t.Role == models.RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&sb, "%s: %s\n", speaker, t.Content)
	}
	sb.WriteString("\nKeep the summary concise and focused on information that might be relevant for future responses.")
	return sb.String()
}

// supportSystemPrompt builds the answer instruction around the retrieved knowledge
func supportSystemPrompt(productName, lang, knowledge string, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an %s support assistant. Respond in %s when appropriate.\n\n", productName, lang)
	sb.WriteString("Response Guidelines:\n")
	sb.WriteString("1. Adapt response style based on query complexity\n")
	sb.WriteString("2. Use 1-3 sentences for simple answers, 1-2 paragraphs for complex ones\n")
	sb.WriteString("3. Professional tone for technical queries, conversational for general questions\n")
	sb.WriteString("4. Always paraphrase knowledge base content in your own words\n")
	fmt.Fprintf(&sb, "5. Current date: %s\n\n", now.Format("January 2, 2006"))
	sb.WriteString("IMPORTANT:\n")
	fmt.Fprintf(&sb, "- If no relevant information exists, respond with exactly: %s\n", models.SentinelNoAnswer)
	fmt.Fprintf(&sb, "- If the user asks for the support team or still needs help, respond with exactly: %s\n\n", models.SentinelNeedSupport)
	sb.WriteString("Relevant Knowledge Base:\n")
	sb.WriteString(knowledge)
	sb.WriteString("\n\nNote: Respond naturally based on conversation flow.")
	return sb.String()
}

// graphExtractionPrompt asks for a dataset found in an answer
func graphExtractionPrompt(answer, question string) string {
	return fmt.Sprintf(`Extract data from the following text that can be used to create a graph/chart.

Text: %q
Question context: %q

Return a JSON object with this exact structure:
{
  "labels": ["Label1", "Label2"],
  "data": [value1, value2],
  "units": ["unit1", "unit2"],
  "title": "Suggested chart title",
  "chartType": "bar" | "pie" | "line"
}

Rules:
- Only include data that has both a clear label and numerical value
- Exclude totals, summaries, or aggregate values
- Clean up label names (remove extra spaces, formatting characters)
- Convert all numbers to numeric values (remove commas, currency symbols)
- Suggest the most appropriate chart type for the data
- If no graphable data is found, return {"labels": [], "data": [], "units": []}`, answer, question)
}

// supportMentions renders support contacts as mention markup and entities
func supportMentions(contacts []models.SupportContact) (string, []models.Mention) {
	if len(contacts) == 0 {
		return "", nil
	}
	mentions := make([]models.Mention, 0, len(contacts))
	texts := make([]string, 0, len(contacts))
	for _, c := range contacts {
		m := models.NewMention(c.Email, c.Name)
		mentions = append(mentions, m)
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, ", ") + " " + SupportRequestSuffix, mentions
}
