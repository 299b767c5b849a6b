// ABOUTME: Reply is the tagged result of a completion call
// ABOUTME: Sentinel strings are parsed once here and never travel further as raw text
package models

import "strings"

// Sentinels the model is instructed to emit verbatim
const (
	SentinelNoAnswer    = "NO_ANSWER"
	SentinelNeedSupport = "NEED_SUPPORT"
)

// ReplyKind classifies a completion result
type ReplyKind int

const (
	ReplyAnswer ReplyKind = iota
	ReplyNoAnswer
	ReplyNeedSupport
)

// String returns a stable name for logging
func (k ReplyKind) String() string {
	switch k {
	case ReplyNoAnswer:
		return "no_answer"
	case ReplyNeedSupport:
		return "need_support"
	default:
		return "answer"
	}
}

// Reply is either an answer with text or one of the escalation outcomes
type Reply struct {
	Kind ReplyKind
	Text string
}

// ParseReply interprets raw completion output.
// Matching is exact string equality after trimming whitespace, so an answer
// that merely contains a sentinel word is still an answer.
func ParseReply(raw string) Reply {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case SentinelNoAnswer:
		return Reply{Kind: ReplyNoAnswer}
	case SentinelNeedSupport:
		return Reply{Kind: ReplyNeedSupport}
	}
	return Reply{Kind: ReplyAnswer, Text: trimmed}
}

// IsEscalation reports whether the reply routes to human support
func (r Reply) IsEscalation() bool {
	return r.Kind == ReplyNoAnswer || r.Kind == ReplyNeedSupport
}
