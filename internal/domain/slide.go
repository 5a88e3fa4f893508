package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SlideFormat is the body layout of a slide. Each variant renders its own items.
type SlideFormat interface {
	Name() string
	Render(items []string) []string
}

// Bullets renders "- item" lines.
type Bullets struct{}

// Numbered renders "N. item" lines.
type Numbered struct{}

// Paragraph joins items into one line separated by spaces.
type Paragraph struct{}

// Headline joins items with an em dash.
type Headline struct{}

func (Bullets) Name() string   { return "bullets" }
func (Numbered) Name() string  { return "numbered" }
func (Paragraph) Name() string { return "paragraph" }
func (Headline) Name() string  { return "headline" }

func (Bullets) Render(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + it
	}
	return out
}

func (Numbered) Render(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, it)
	}
	return out
}

func (Paragraph) Render(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return []string{strings.Join(items, " ")}
}

func (Headline) Render(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return []string{strings.Join(items, " — ")}
}

// ParseSlideFormat maps a format name to its variant. Unknown names fall back to bullets.
func ParseSlideFormat(name string) SlideFormat {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "numbered":
		return Numbered{}
	case "paragraph":
		return Paragraph{}
	case "headline":
		return Headline{}
	default:
		return Bullets{}
	}
}

// Slide is the structured content handed to the slide renderer.
type Slide struct {
	Title   string      `json:"title"`
	Format  SlideFormat `json:"format,omitempty"`
	Items   []string    `json:"items"`
	Sources []string    `json:"sources,omitempty"`
}

// Text renders the canonical indexable representation of the slide at position n (1-based).
func (s Slide) Text(n int) string {
	format := s.Format
	if format == nil {
		format = Bullets{}
	}
	lines := []string{fmt.Sprintf("Slide %d [%s]: %s", n, format.Name(), s.Title)}
	lines = append(lines, format.Render(s.Items)...)
	if len(s.Sources) > 0 {
		lines = append(lines, "Sources: "+strings.Join(s.Sources, ", "))
	}
	return strings.Join(lines, "\n")
}

type slideJSON struct {
	Title   string   `json:"title"`
	Format  string   `json:"format"`
	Items   []string `json:"items"`
	Sources []string `json:"sources,omitempty"`
}

func (s Slide) MarshalJSON() ([]byte, error) {
	format := "bullets"
	if s.Format != nil {
		format = s.Format.Name()
	}
	return json.Marshal(slideJSON{Title: s.Title, Format: format, Items: s.Items, Sources: s.Sources})
}

func (s *Slide) UnmarshalJSON(data []byte) error {
	var raw slideJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Slide{Title: raw.Title, Format: ParseSlideFormat(raw.Format), Items: raw.Items, Sources: raw.Sources}
	return nil
}
