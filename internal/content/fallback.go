package content

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"

	"podmill/internal/textutil"
)

// FallbackProvider is the Provider value recorded on fallback episodes.
const FallbackProvider = "fallback"

// fallbackEpisode derives episode content from the transcript alone. Every
// field is a deterministic function of the request and the show config so
// repeated runs produce identical output.
func (g *Generator) fallbackEpisode(req Request) Episode {
	show := g.cfg.Show
	title := fallbackTitle(req.Transcript, req.SourceName)
	summary := fallbackSummary(req.Transcript)

	description := transcriptHead(req.Transcript, 400)
	if show.Name != "" {
		description = fmt.Sprintf("In this episode of %s: %s", show.Name, description)
	}

	return Episode{
		Title:       title,
		Description: description,
		ShowNotes:   fallbackShowNotes(req.Transcript, show.Hashtags),
		Summary:     summary,
		Social: Social{
			Twitter:   fallbackTweet(title, show.Hashtags),
			LinkedIn:  fallbackLinkedIn(show.Name, title, summary),
			Instagram: fallbackInstagram(title, show.Hashtags),
		},
		Language: req.Language,
		Provider: FallbackProvider,
		Fallback: true,
	}
}

// fallbackTitle uses the transcript opening when it carries enough words to
// stand as a title, otherwise the cleaned source filename.
func fallbackTitle(transcript, sourceName string) string {
	caser := cases.Title(xlang.English)
	sentence := firstSentence(transcript)
	if len(strings.Fields(sentence)) >= 3 {
		return caser.String(truncateAtWord(sentence, 60))
	}
	if name := nameFromSource(sourceName); name != "" {
		return caser.String(name)
	}
	if sentence != "" {
		return caser.String(sentence)
	}
	return "Untitled Episode"
}

func fallbackSummary(transcript string) string {
	sentences := splitSentences(transcript, 2)
	return truncateAtWord(strings.Join(sentences, " "), 300)
}

func fallbackShowNotes(transcript string, hashtags []string) string {
	var b strings.Builder
	b.WriteString("Episode overview:\n\n")
	for _, sentence := range splitSentences(transcript, 6) {
		b.WriteString("- ")
		b.WriteString(truncateAtWord(sentence, 140))
		b.WriteString("\n")
	}
	if len(hashtags) > 0 {
		b.WriteString("\n")
		b.WriteString(textutil.Hashtags(hashtags))
		b.WriteString("\n")
	}
	b.WriteString("\nGenerated from the episode transcript.")
	return b.String()
}

func fallbackTweet(title string, hashtags []string) string {
	text := "🎧 New episode: " + title
	if tags := textutil.Hashtags(hashtags); tags != "" {
		text += " " + tags
	}
	// Leave room for the episode URL the social connector appends.
	return textutil.TruncateRunes(text, 250)
}

func fallbackLinkedIn(showName, title, summary string) string {
	var b strings.Builder
	if showName != "" {
		fmt.Fprintf(&b, "New episode of %s: %s.", showName, title)
	} else {
		fmt.Fprintf(&b, "New episode: %s.", title)
	}
	if summary != "" {
		b.WriteString(" ")
		b.WriteString(summary)
	}
	return b.String()
}

func fallbackInstagram(title string, hashtags []string) string {
	text := "🎙️ " + title
	if tags := textutil.Hashtags(hashtags); tags != "" {
		text += "\n\n" + tags
	}
	return text
}

// nameFromSource turns a filename like "ai_trends_2025.wav" into
// "ai trends 2025".
func nameFromSource(sourceName string) string {
	base := filepath.Base(strings.TrimSpace(sourceName))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.Join(strings.Fields(base), " ")
}

// firstSentence returns the transcript text up to the first sentence
// terminator or line break, without the terminator.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	for i, r := range text {
		switch r {
		case '.', '!', '?', '。':
			return strings.TrimSpace(text[:i])
		case '\n':
			if candidate := strings.TrimSpace(text[:i]); candidate != "" {
				return candidate
			}
		}
	}
	return text
}

// splitSentences returns up to limit trimmed sentences from text. Sentence
// terminators stay attached; line breaks also split.
func splitSentences(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil
	}
	var sentences []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '。':
			end := i + utf8.RuneLen(r)
			if s := strings.TrimSpace(text[start:end]); s != "" {
				sentences = append(sentences, s)
				if len(sentences) == limit {
					return sentences
				}
			}
			start = end
		case '\n':
			if s := strings.TrimSpace(text[start:i]); s != "" {
				sentences = append(sentences, s)
				if len(sentences) == limit {
					return sentences
				}
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// transcriptHead collapses whitespace and returns at most maxRunes runes,
// cut back to a word boundary.
func transcriptHead(text string, maxRunes int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxRunes {
		return collapsed
	}
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}

// truncateAtWord shortens s to at most maxRunes runes at a word boundary
// without appending an ellipsis.
func truncateAtWord(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:")
}
