package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxMessageRunes = 4000 // Telegram caps messages at 4096 characters
	dateLayout      = "2006-01-02"
)

// commandBody returns everything after the leading /command token, keeping
// line breaks. telebot's Payload stops at the first newline, which would cut
// multi-line rule text short.
func commandBody(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	i := strings.IndexAny(text, " \t\r\n")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

// splitFields splits a "a | b | c" payload into trimmed fields.
func splitFields(payload string) []string {
	parts := strings.Split(payload, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// parseJoinDate parses YYYY-MM-DD; "" and "-" mean unknown.
func parseJoinDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("join date must look like %s: %w", dateLayout, err)
	}
	return t, nil
}

func truncateMessage(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageRunes-1]) + "…"
}
