// ABOUTME: Export functionality for archived transcripts
// ABOUTME: Supports YAML and Markdown export formats
package sqlite

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version       string               `yaml:"version" json:"version"`
	ExportedAt    string               `yaml:"exported_at" json:"exported_at"`
	Tool          string               `yaml:"tool" json:"tool"`
	Conversations []ExportConversation `yaml:"conversations,omitempty" json:"conversations,omitempty"`
	Escalations   []EscalationRecord   `yaml:"escalations,omitempty" json:"escalations,omitempty"`
}

// ExportConversation represents one archived conversation for export
type ExportConversation struct {
	ConversationID string       `yaml:"conversation_id" json:"conversation_id"`
	Turns          []ExportTurn `yaml:"turns" json:"turns"`
}

// ExportTurn represents a turn for export
type ExportTurn struct {
	TurnID    string `yaml:"turn_id" json:"turn_id"`
	Role      string `yaml:"role" json:"role"`
	Author    string `yaml:"author,omitempty" json:"author,omitempty"`
	Content   string `yaml:"content" json:"content"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// Export gathers every archived conversation and escalation.
// A non-empty conversationID limits the export to that conversation.
func (a *Archive) Export(ctx context.Context, conversationID string) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: a.now().Format(time.RFC3339),
		Tool:       "supportbot",
	}

	summaries, err := a.turns.Conversations(ctx)
	if err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		if conversationID != "" && summary.ConversationID != conversationID {
			continue
		}
		turns, err := a.turns.ListByConversation(ctx, summary.ConversationID, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list turns for %s: %w", summary.ConversationID, err)
		}
		conv := ExportConversation{
			ConversationID: summary.ConversationID,
			Turns:          make([]ExportTurn, 0, len(turns)),
		}
		for _, t := range turns {
			conv.Turns = append(conv.Turns, ExportTurn{
				TurnID:    t.TurnID,
				Role:      string(t.Role),
				Author:    t.AuthorName,
				Content:   t.Content,
				Timestamp: t.Timestamp.Format(time.RFC3339),
			})
		}
		data.Conversations = append(data.Conversations, conv)
	}

	escalations, err := a.escalations.List(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	for _, e := range escalations {
		if conversationID != "" && e.ConversationID != conversationID {
			continue
		}
		data.Escalations = append(data.Escalations, e)
	}

	return data, nil
}

// WriteYAML encodes the export to w
func (d *ExportData) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteMarkdown renders the export as a readable transcript
func (d *ExportData) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Support Transcripts\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.ExportedAt)

	if len(d.Escalations) > 0 {
		b.WriteString("## Escalations\n\n")
		b.WriteString("| When | Conversation | User | Reason | Query |\n")
		b.WriteString("|------|--------------|------|--------|-------|\n")
		for _, e := range d.Escalations {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				e.CreatedAt.Format(time.RFC3339), e.ConversationID, tableCell(e.UserName), e.Reason, tableCell(e.Query))
		}
		b.WriteString("\n")
	}

	if len(d.Conversations) > 0 {
		b.WriteString("## Conversations\n\n")
		for _, conv := range d.Conversations {
			fmt.Fprintf(&b, "### %s\n\n", conv.ConversationID)
			for _, t := range conv.Turns {
				who := t.Author
				if who == "" {
					who = t.Role
				}
				fmt.Fprintf(&b, "**%s** (%s): %s\n\n", who, t.Timestamp, t.Content)
			}
			b.WriteString("---\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ExportToYAML exports the archive to a YAML file
func (a *Archive) ExportToYAML(ctx context.Context, outputPath, conversationID string) error {
	data, err := a.Export(ctx, conversationID)
	if err != nil {
		return err
	}
	return writeFile(outputPath, data.WriteYAML)
}

// ExportToMarkdown exports the archive to a Markdown file
func (a *Archive) ExportToMarkdown(ctx context.Context, outputPath, conversationID string) error {
	data, err := a.Export(ctx, conversationID)
	if err != nil {
		return err
	}
	return writeFile(outputPath, data.WriteMarkdown)
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// tableCell keeps a value on one Markdown table row
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
