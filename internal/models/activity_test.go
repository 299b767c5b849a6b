// ABOUTME: Tests for transport-neutral activity helpers
// ABOUTME: Covers recipient mention detection, image lookup, and dataset checks

package models

import "testing"

func TestInboundMessage_MentionsRecipient(t *testing.T) {
	bot := Participant{ID: "bot-1", Name: "SupportBot"}

	tests := []struct {
		name     string
		msg      InboundMessage
		expected bool
	}{
		{
			name:     "no mentions",
			msg:      InboundMessage{Recipient: bot},
			expected: false,
		},
		{
			name: "mentions someone else",
			msg: InboundMessage{
				Recipient: bot,
				Mentions:  []Mention{NewMention("user-2", "Bob")},
			},
			expected: false,
		},
		{
			name: "mentions the bot",
			msg: InboundMessage{
				Recipient: bot,
				Mentions:  []Mention{NewMention("user-2", "Bob"), NewMention("bot-1", "SupportBot")},
			},
			expected: true,
		},
		{
			name: "recipient without id",
			msg: InboundMessage{
				Mentions: []Mention{NewMention("", "SupportBot")},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.MentionsRecipient(); got != tt.expected {
				t.Errorf("MentionsRecipient() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewMention(t *testing.T) {
	m := NewMention("a@example.com", "Ann Support")
	if m.Text != "<at>Ann Support</at>" {
		t.Errorf("Text = %q", m.Text)
	}
	if m.ID != "a@example.com" || m.Name != "Ann Support" {
		t.Errorf("unexpected mention %+v", m)
	}
}

func TestInboundMessage_FirstImage(t *testing.T) {
	msg := InboundMessage{Attachments: []Attachment{
		{ContentType: "text/html"},
		{ContentType: "IMAGE/PNG", URL: "https://example.com/a.png"},
		{ContentType: "image/jpeg", URL: "https://example.com/b.jpg"},
	}}

	img, ok := msg.FirstImage()
	if !ok {
		t.Fatal("expected an image attachment")
	}
	if img.URL != "https://example.com/a.png" {
		t.Errorf("URL = %q, want first image", img.URL)
	}

	if _, ok := (&InboundMessage{}).FirstImage(); ok {
		t.Error("expected no image for message without attachments")
	}
}

func TestDataset_Usable(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataset
		want bool
	}{
		{"nil", nil, false},
		{"empty", &Dataset{}, false},
		{"mismatched", &Dataset{Labels: []string{"a", "b"}, Data: []float64{1}}, false},
		{"valid", &Dataset{Labels: []string{"a"}, Data: []float64{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ds.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeChartType(t *testing.T) {
	tests := map[string]string{
		"bar":      ChartBar,
		"":         ChartBar,
		"column":   ChartBar,
		"PIE":      ChartPie,
		"doughnut": ChartPie,
		" line ":   ChartLine,
	}
	for in, want := range tests {
		if got := NormalizeChartType(in); got != want {
			t.Errorf("NormalizeChartType(%q) = %q, want %q", in, got, want)
		}
	}
}
