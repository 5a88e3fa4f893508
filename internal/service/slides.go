package service

import (
	"fmt"
	"regexp"
	"strings"

	"slider/internal/domain"
	"slider/internal/intent"
)

const systemPrompt = `You are Slider, an assistant inside PowerPoint that drafts, edits and explains slides.
Use the conversation context when it is relevant and never invent sources.`

const slideFormatInstructions = `Write each slide as:
## <title> [bullets|numbered|paragraph|headline]
- <item>
Sources: <url>, <url>   (only when you used a source)
Do not add any other text.`

var (
	slideHeadingRe = regexp.MustCompile(`^#{1,3}\s+(.+?)(?:\s+\[(bullets|numbered|paragraph|headline)\])?\s*$`)
	itemPrefixRe   = regexp.MustCompile(`^(?:[-*•]\s+|\d+[.)]\s+)`)
	contextLabelRe = regexp.MustCompile(`^\[[A-Za-z]+\]:\s*`)
)

// ParseSlides reads slides written in the heading/item format requested by
// slideFormatInstructions. Text before the first heading is ignored.
func ParseSlides(text string) []domain.Slide {
	var (
		slides []domain.Slide
		cur    *domain.Slide
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := slideHeadingRe.FindStringSubmatch(line); m != nil {
			slides = append(slides, domain.Slide{Title: strings.TrimSpace(m[1]), Format: domain.ParseSlideFormat(m[2])})
			cur = &slides[len(slides)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if src, ok := strings.CutPrefix(line, "Sources:"); ok {
			for _, s := range strings.Split(src, ",") {
				if s = strings.TrimSpace(s); s != "" {
					cur.Sources = append(cur.Sources, s)
				}
			}
			continue
		}
		cur.Items = append(cur.Items, itemPrefixRe.ReplaceAllString(line, ""))
	}
	return slides
}

// stripLabel removes the "[Label]: " prefix from a retrieved context snippet.
func stripLabel(snippet string) string {
	return contextLabelRe.ReplaceAllString(snippet, "")
}

func formatForMode(m intent.Mode) domain.SlideFormat {
	switch m {
	case intent.ModeCompare, intent.ModeProsCons:
		return domain.Numbered{}
	case intent.ModeSummarize:
		return domain.Paragraph{}
	default:
		return domain.Bullets{}
	}
}

// outlineSlides drafts count slides about topic from material without a
// language model. Material sentences are dealt out across slides in order.
func outlineSlides(topic string, count int, mode intent.Mode, material []string, sources []string) []domain.Slide {
	if count < 1 {
		count = 1
	}
	var sentences []string
	for _, m := range material {
		sentences = append(sentences, splitSentences(stripLabel(m))...)
	}
	format := formatForMode(mode)
	slides := make([]domain.Slide, count)
	for i := range slides {
		title := topic
		if i > 0 {
			title = fmt.Sprintf("%s (%d/%d)", topic, i+1, count)
		}
		slides[i] = domain.Slide{Title: title, Format: format}
	}
	const perSlide = 3
	for i, s := range sentences {
		n := i % count
		if len(slides[n].Items) < perSlide {
			slides[n].Items = append(slides[n].Items, s)
		}
	}
	for i := range slides {
		if len(slides[i].Items) == 0 {
			slides[i].Items = []string{"Key points about " + topic}
		}
	}
	if len(sources) > 0 {
		slides[len(slides)-1].Sources = sources
	}
	return slides
}

var sentenceSplitRe = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); len(s) > 1 {
			out = append(out, s)
		}
	}
	return out
}

func contextBlock(snippets []string) string {
	if len(snippets) == 0 {
		return "Conversation context: (none)\n"
	}
	var b strings.Builder
	b.WriteString("Conversation context:\n")
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(strings.ReplaceAll(s, "\n", " "))
		b.WriteString("\n")
	}
	return b.String()
}

func generatePrompt(rec intent.Record, message string, count int, snippets []string, research string) string {
	var b strings.Builder
	b.WriteString(contextBlock(snippets))
	if research != "" {
		b.WriteString("\nResearch:\n")
		b.WriteString(research)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nRequest: %s\nTopic: %s\nSlides: %d\nMode: %s\n", message, rec.Topic, count, rec.Mode)
	if rec.Tone != intent.ToneUnspecified {
		fmt.Fprintf(&b, "Tone: %s\n", rec.Tone)
	}
	b.WriteString("\n")
	b.WriteString(slideFormatInstructions)
	return b.String()
}

func editPrompt(message string, slideText string, snippets []string) string {
	return contextBlock(snippets) +
		"\nCurrent slide:\n" + slideText +
		"\n\nApply this change and return the whole slide: " + message +
		"\n\n" + slideFormatInstructions
}

func summaryPrompt(message, material string) string {
	return "Summarize the following slide content in a few sentences.\n\n" + material + "\n\nRequest: " + message
}

func questionPrompt(message, material string, snippets []string) string {
	var b strings.Builder
	b.WriteString(contextBlock(snippets))
	if material != "" {
		b.WriteString("\nSlides:\n")
		b.WriteString(material)
		b.WriteString("\n")
	}
	b.WriteString("\nAnswer the question concisely: ")
	b.WriteString(message)
	return b.String()
}

func researchPrompt(message, research string, snippets []string) string {
	return contextBlock(snippets) + "\nSearch results:\n" + research +
		"\n\nUsing the search results, answer: " + message
}
