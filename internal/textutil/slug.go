package textutil

import "strings"

// Slug converts a title to a lowercase hyphen-joined token suitable for URLs
// and episode identifiers. Non-alphanumeric characters are dropped, runs of
// whitespace collapse to a single hyphen. Returns "untitled" for input that
// yields no usable characters.
func Slug(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pendingHyphen := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ', r == '\t', r == '\n', r == '-', r == '_':
			pendingHyphen = true
		}
	}
	out := b.String()
	if out == "" {
		return "untitled"
	}
	return out
}

// TruncateRunes shortens s to at most limit runes, appending an ellipsis when
// truncation occurred. The returned string never exceeds limit runes.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Hashtags joins tags into a "#one #two" string, skipping blanks. Tags that
// already carry a leading '#' keep it.
func Hashtags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		parts = append(parts, tag)
	}
	return strings.Join(parts, " ")
}
