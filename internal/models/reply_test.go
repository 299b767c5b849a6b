// ABOUTME: Tests for sentinel parsing of completion output
// ABOUTME: Verifies exact-match policy so answers containing sentinel words are not escalated
package models

import "testing"

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind ReplyKind
		wantText string
	}{
		{"exact no answer", "NO_ANSWER", ReplyNoAnswer, ""},
		{"no answer with surrounding whitespace", "  NO_ANSWER\n", ReplyNoAnswer, ""},
		{"exact need support", "NEED_SUPPORT", ReplyNeedSupport, ""},
		{"need support with newline", "NEED_SUPPORT\n", ReplyNeedSupport, ""},
		{"sentinel inside sentence", "I have NO_ANSWER for you", ReplyAnswer, "I have NO_ANSWER for you"},
		{"sentinel prefix", "NO_ANSWER. Sorry!", ReplyAnswer, "NO_ANSWER. Sorry!"},
		{"lowercase sentinel", "no_answer", ReplyAnswer, "no_answer"},
		{"plain answer", "Open the yard screen and tap Check In.", ReplyAnswer, "Open the yard screen and tap Check In."},
		{"answer is trimmed", "\n answer \n", ReplyAnswer, "answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.raw)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestReply_IsEscalation(t *testing.T) {
	if (Reply{Kind: ReplyAnswer}).IsEscalation() {
		t.Error("answer should not escalate")
	}
	if !(Reply{Kind: ReplyNoAnswer}).IsEscalation() {
		t.Error("no answer should escalate")
	}
	if !(Reply{Kind: ReplyNeedSupport}).IsEscalation() {
		t.Error("need support should escalate")
	}
}

func TestReplyKind_String(t *testing.T) {
	if ReplyAnswer.String() != "answer" || ReplyNoAnswer.String() != "no_answer" || ReplyNeedSupport.String() != "need_support" {
		t.Errorf("unexpected names: %s %s %s", ReplyAnswer, ReplyNoAnswer, ReplyNeedSupport)
	}
}
