package prompt

import (
	"fmt"
	"strings"
)

// TruncationMarker is appended in-band whenever context is cut to fit the
// character budget, so the generator knows its material is incomplete.
const TruncationMarker = "\n<<TRUNCATED: remaining content omitted>>\n"

// A listener consumes roughly this many words per minute of two-speaker
// conversation.
const wordsPerMinute = 600

// Answer builds the RAG answer prompt: the retrieved texts newline-joined
// as context, followed by an instruction to answer from that context only.
// maxContextChars caps the context with an in-band truncation marker; pass
// 0 to disable the cap.
func Answer(question string, contexts []string, language string, maxContextChars int) string {
	context, truncated := appendBudgeted(contexts, "\n", maxContextChars)
	if truncated {
		context += TruncationMarker
	}

	return fmt.Sprintf(
		"Answer the question using only the context below, in %s. "+
			"If the context is empty or does not cover the question, say that you have no supporting material instead of guessing.\n\n"+
			"Context:\n%s\n\nQuestion: %s",
		language, context, question)
}

// PodcastOptions shape the long-form transcript prompt.
type PodcastOptions struct {
	Minutes         int
	Domain          string
	Style           string
	Speaker1        string
	Speaker2        string
	MaxContextChars int
}

// Podcast builds the two-speaker transcript prompt: a fixed instructional
// header, then the chunks each wrapped in explicit delimiters carrying a
// sequence number, in input order. The delimited context is capped at
// MaxContextChars with a single trailing truncation marker.
func Podcast(chunks []string, opts PodcastOptions) string {
	minutes := opts.Minutes
	if minutes <= 0 {
		minutes = 15
	}
	targetWords := minutes * wordsPerMinute

	s1, s2 := opts.Speaker1, opts.Speaker2
	if s1 == "" {
		s1 = "Speaker 1"
	}
	if s2 == "" {
		s2 = "Speaker 2"
	}

	var header strings.Builder
	fmt.Fprintf(&header,
		"You are a podcast editor. Rewrite the %s material below into a two-host conversational transcript of roughly %d minutes (about %d words).\n\n",
		opts.Domain, minutes, targetWords)
	header.WriteString("Requirements:\n")
	fmt.Fprintf(&header, "- Roles: %s asks and clarifies, %s explains and elaborates.\n", s1, s2)
	header.WriteString("- Audience: curious listeners who have not read the source material.\n")
	fmt.Fprintf(&header, "- Style: %s\n", opts.Style)
	header.WriteString("- Structure:\n")
	fmt.Fprintf(&header, "    1. Opening (%s introduces the topic, %s summarizes the subject and its background)\n", s1, s2)
	header.WriteString("    2. Problem and motivation (what does this work solve, and why does it matter?)\n")
	header.WriteString("    3. Approach (explain with analogies and simple examples, keeping the key terms)\n")
	header.WriteString("    4. Evidence and results (how the claims were validated, the numbers, the comparisons)\n")
	fmt.Fprintf(&header, "    5. Limits and future directions (%s raises doubts, %s responds)\n", s1, s2)
	fmt.Fprintf(&header, "    6. Closing (%s wraps up)\n", s1)
	fmt.Fprintf(&header, "- Transcript format: every line must begin with \"%s:\" or \"%s:\". Do not start a new line unless the speaker changes.\n", s1, s2)
	header.WriteString("- Write strictly from the material provided below; if something is not provided, do not invent it.\n")
	header.WriteString("- Do not reproduce equations, figures or code verbatim: describe them in words (say \"tokens per second\" instead of \"tokens/s\").\n")
	header.WriteString("- Do not output any explanation outside the transcript.\n\n")
	header.WriteString("The source material follows, already split into fragments:\n")

	blocks := make([]string, 0, len(chunks))
	for i, text := range chunks {
		blocks = append(blocks, fmt.Sprintf("<<CHUNK c%d>>\n%s\n<<END c%d>>\n\n", i+1, text, i+1))
	}
	context, truncated := appendBudgeted(blocks, "", opts.MaxContextChars)
	if truncated {
		context += TruncationMarker
	}

	return header.String() + context
}

// appendBudgeted concatenates blocks with sep, stopping once maxChars
// characters (runes, never split mid-character) have been written. A
// maxChars of 0 or less disables the budget.
func appendBudgeted(blocks []string, sep string, maxChars int) (string, bool) {
	var b strings.Builder
	total := 0
	for i, block := range blocks {
		if i > 0 {
			block = sep + block
		}
		if maxChars <= 0 {
			b.WriteString(block)
			continue
		}
		runes := []rune(block)
		if total+len(runes) > maxChars {
			b.WriteString(string(runes[:maxChars-total]))
			return b.String(), true
		}
		b.WriteString(block)
		total += len(runes)
	}
	return b.String(), false
}
