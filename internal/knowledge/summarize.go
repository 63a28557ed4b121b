package knowledge

import "strings"

// SummaryPolicy bounds the context text handed to dependents.
type SummaryPolicy struct {
	MaxLength        int
	CompressionRatio float64
}

// Summarize produces a length-bounded derivative of a generated document.
// The cascade: verbatim when the text already fits; leading sentences up to
// roughly ratio × original length; the leading paragraph; finally a hard
// truncation with an ellipsis marker. The result never exceeds MaxLength and
// is stable for identical input.
func (p SummaryPolicy) Summarize(text string) string {
	if len(text) <= p.MaxLength {
		return text
	}

	target := int(p.CompressionRatio * float64(len(text)))
	if s := leadingSentences(text, target); s != "" && len(s) <= p.MaxLength {
		return s
	}

	if para := leadingParagraph(text); len(para) <= p.MaxLength {
		return para
	}

	if p.MaxLength <= 3 {
		return text[:p.MaxLength]
	}
	return text[:p.MaxLength-3] + "..."
}

// leadingSentences accumulates sentences from the front of text until adding
// the next one would pass the target length. Sentences end at terminating
// punctuation followed by whitespace.
func leadingSentences(text string, target int) string {
	var b strings.Builder
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if !isTerminator(text[i]) || !isSpace(text[i+1]) {
			continue
		}
		sentence := text[start : i+1]
		if b.Len()+len(sentence) > target {
			break
		}
		b.WriteString(sentence)
		b.WriteByte(' ')
		// Skip the whitespace run to the next sentence.
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	return strings.TrimSpace(b.String())
}

// leadingParagraph returns the first block of text before a blank line.
func leadingParagraph(text string) string {
	if at := strings.Index(text, "\n\n"); at >= 0 {
		return strings.TrimSpace(text[:at])
	}
	return strings.TrimSpace(text)
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
