// Package transcript derives coaching signals from a line-oriented call transcript.
//
// A transcript is newline-joined "SPEAKER: text" lines in chronological order.
// Speaker tags are matched case-insensitively. Every function here is pure.
package transcript

import (
	"strings"
	"unicode/utf8"

	"roleplay-coach-go/internal/types"
)

const (
	agentPrefix    = "AGENT:"
	customerPrefix = "CUSTOMER:"
)

// FormatLine renders one utterance in the wire format with an upper-case tag.
func FormatLine(speaker, text string) string {
	return strings.ToUpper(strings.TrimSpace(speaker)) + ": " + strings.TrimSpace(text)
}

// Lines returns the trimmed non-blank lines of t.
func Lines(t string) []string {
	raw := strings.Split(strings.ReplaceAll(t, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// Tail returns at most the last n bytes of s without splitting a rune.
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// RecentContext keeps the last maxLines non-blank lines, then the last maxChars of those.
func RecentContext(t string, maxLines, maxChars int) string {
	lines := Lines(t)
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return Tail(strings.Join(lines, "\n"), maxChars)
}

func hasTag(line, prefix string) bool {
	return len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}

// Speaker returns the upper-case tag of the line, or "" when it carries neither tag.
func Speaker(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case hasTag(line, agentPrefix):
		return types.SpeakerAgent
	case hasTag(line, customerPrefix):
		return types.SpeakerCustomer
	default:
		return ""
	}
}

// LastSpeakerIsCustomer reports whether the last non-blank line is a customer line.
// Live tips only fire right after the customer speaks.
func LastSpeakerIsCustomer(t string) bool {
	lines := Lines(t)
	if len(lines) == 0 {
		return false
	}
	return hasTag(lines[len(lines)-1], customerPrefix)
}

// HasCustomerSpoken reports whether the customer tag appears anywhere in t.
func HasCustomerSpoken(t string) bool {
	return strings.Contains(strings.ToUpper(t), customerPrefix)
}

// AgentLinesOnly returns the agent lines, lower-cased, newline-joined.
func AgentLinesOnly(t string) string {
	return strings.Join(agentLines(Lines(t)), "\n")
}

// agentLinesAfterCustomer returns lower-cased agent lines that follow the first customer line.
func agentLinesAfterCustomer(t string) string {
	lines := Lines(t)
	for i, ln := range lines {
		if hasTag(ln, customerPrefix) {
			return strings.Join(agentLines(lines[i+1:]), "\n")
		}
	}
	return ""
}

func agentLines(lines []string) []string {
	var out []string
	for _, ln := range lines {
		if hasTag(ln, agentPrefix) {
			out = append(out, normalize(ln))
		}
	}
	return out
}

// LastAgentUtterance returns the text of the most recent agent line without its tag.
func LastAgentUtterance(t string) string {
	lines := Lines(t)
	for i := len(lines) - 1; i >= 0; i-- {
		if hasTag(lines[i], agentPrefix) {
			return strings.TrimSpace(lines[i][len(agentPrefix):])
		}
	}
	return ""
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func normalize(s string) string {
	return strings.ToLower(apostrophes.Replace(s))
}
