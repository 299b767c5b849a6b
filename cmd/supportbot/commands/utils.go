// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Truncation, relative times, flag validation, and terminal-aware reply rendering
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/harper/supportbot/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses whitespace so previews fit a table row
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// writeJSON pretty-prints v
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or fallback when it is not a terminal
func terminalWidth(w io.Writer, fallback int) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

var atTag = regexp.MustCompile(`</?at>`)

// plainMentions turns <at>Name</at> markup into @Name for terminal output
func plainMentions(text string) string {
	return atTag.ReplaceAllStringFunc(text, func(tag string) string {
		if tag == "<at>" {
			return "@"
		}
		return ""
	})
}

// replyRenderer prints bot replies as styled Markdown on a terminal and as
// plain text otherwise
type replyRenderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

func newReplyRenderer(out io.Writer, format string) *replyRenderer {
	r := &replyRenderer{out: out}
	if format == "markdown" || (format == "auto" && isTerminal(out)) {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(out, 100)-4),
		)
		if err == nil {
			r.markdown = md
		}
	}
	return r
}

// Render writes one reply
func (r *replyRenderer) Render(text string) error {
	text = plainMentions(text)
	if r.markdown != nil {
		rendered, err := r.markdown.Render(text)
		if err == nil {
			_, err = io.WriteString(r.out, rendered)
			return err
		}
	}
	_, err := fmt.Fprintf(r.out, "%s\n\n", text)
	return err
}

// saveAttachments writes reply attachments into dir and returns the paths
func saveAttachments(dir string, replies []models.OutboundMessage) ([]string, error) {
	var paths []string
	for i, reply := range replies {
		for j, a := range reply.Attachments {
			if len(a.Data) == 0 {
				continue
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return paths, fmt.Errorf("creating chart directory: %w", err)
			}
			name := fmt.Sprintf("%s-%d-%d-%s", time.Now().Format("20060102-150405"), i, j, filepath.Base(a.Name))
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, a.Data, 0644); err != nil {
				return paths, fmt.Errorf("writing %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
