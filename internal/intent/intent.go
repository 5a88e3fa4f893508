// Package intent classifies chat messages with ordered keyword and regex rules.
// Every detector is a pure function of the message text.
package intent

import (
	"strings"
	"unicode/utf8"
)

type Mode string

const (
	ModeGenerate  Mode = "generate"
	ModeSummarize Mode = "summarize"
	ModeCompare   Mode = "compare"
	ModeProsCons  Mode = "proscons"
	ModeResearch  Mode = "research"
)

type Tone string

const (
	ToneUnspecified  Tone = ""
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneAcademic     Tone = "academic"
)

// Action is what the backend should do with the message.
type Action string

const (
	ActionGreeting  Action = "greeting"
	ActionEdit      Action = "edit"
	ActionGenerate  Action = "generate"
	ActionSummarize Action = "summarize"
	ActionSearch    Action = "search"
	ActionQuestion  Action = "question"
)

type ScopeKind string

const (
	ScopeCurrentSlide     ScopeKind = "current_slide"
	ScopeSpecificSlide    ScopeKind = "specific_slide"
	ScopeFullPresentation ScopeKind = "full_presentation"
)

// Scope selects slides; SlideNumber is 1-based and set only for ScopeSpecificSlide.
type Scope struct {
	Kind        ScopeKind `json:"kind"`
	SlideNumber int       `json:"slideNumber,omitempty"`
}

type SummaryRequest struct {
	Scope Scope `json:"scope"`
}

// SlideQuestion is a question to answer. SlideContext is false for general
// questions that only fall back to the current slide.
type SlideQuestion struct {
	Scope        Scope `json:"scope"`
	SlideContext bool  `json:"slideContext"`
}

type TargetScope string

const (
	TargetCurrentSlide  TargetScope = "current_slide"
	TargetSpecificSlide TargetScope = "specific_slide"
)

type EditTarget struct {
	Scope       TargetScope `json:"scope"`
	SlideNumber int         `json:"slideNumber,omitempty"`
}

// Record is the full classification of one message. SlideCount is 0 when the
// message does not name one.
type Record struct {
	SlideCount     int             `json:"slideCount,omitempty"`
	Mode           Mode            `json:"mode"`
	Tone           Tone            `json:"tone,omitempty"`
	Topic          string          `json:"topic"`
	HasAllInfo     bool            `json:"hasAllInfo"`
	IsGreeting     bool            `json:"isGreeting"`
	IsQuestion     bool            `json:"isQuestion"`
	IsEditRequest  bool            `json:"isEditRequest"`
	IsSlideRequest bool            `json:"isSlideRequest"`
	CurrentEvents  bool            `json:"currentEvents"`
	URL            string          `json:"url,omitempty"`
	IsArticleURL   bool            `json:"isArticleUrl"`
	ImageEmbed     bool            `json:"imageEmbed"`
	EditTarget     *EditTarget     `json:"editTarget,omitempty"`
	Summary        *SummaryRequest `json:"summary,omitempty"`
	Question       *SlideQuestion  `json:"question,omitempty"`
	Action         Action          `json:"action"`
}

// SlideCountOr returns the requested count, or def when none was given.
func (r Record) SlideCountOr(def int) int {
	if r.SlideCount > 0 {
		return r.SlideCount
	}
	return def
}

// Detector fills part of a Record. Detectors run in Detectors order and may
// read fields set by earlier ones.
type Detector struct {
	Name  string
	Apply func(text string, r *Record)
}

// Detectors is the classification sequence.
var Detectors = []Detector{
	{"slide_count", func(text string, r *Record) {
		r.SlideCount, _ = ExtractSlideCount(text)
	}},
	{"mode", func(text string, r *Record) { r.Mode = DetectMode(text) }},
	{"tone", func(text string, r *Record) { r.Tone, _ = DetectTone(text) }},
	{"topic", func(text string, r *Record) {
		r.Topic = ExtractTopic(text)
		r.HasAllInfo = utf8.RuneCountInString(r.Topic) > 3
	}},
	{"greeting", func(text string, r *Record) { r.IsGreeting = IsGreeting(text) }},
	{"url", func(text string, r *Record) {
		if u, ok := ExtractURL(text); ok {
			r.URL = u
			r.IsArticleURL = IsArticleURL(u)
		}
	}},
	{"current_events", func(text string, r *Record) { r.CurrentEvents = IsCurrentEvents(text) }},
	{"edit_request", func(text string, r *Record) {
		r.IsEditRequest = IsEditRequest(text)
		if r.IsEditRequest {
			t := ParseEditTarget(text)
			r.EditTarget = &t
		}
	}},
	{"slide_request", func(text string, r *Record) { r.IsSlideRequest = IsSlideRequest(text) }},
	{"summary", func(text string, r *Record) { r.Summary = DetectSummaryRequest(text) }},
	{"question", func(text string, r *Record) {
		r.IsQuestion = LooksLikeQuestion(text)
		r.Question = DetectSlideQuestion(text)
	}},
	{"image_embed", func(text string, r *Record) { r.ImageEmbed = HasImageEmbedIntent(text) }},
}

// Route maps a classified Record to an Action. The first matching route wins.
type Route struct {
	Action Action
	When   func(r *Record) bool
}

// Routes is the action precedence. Edits are checked before slide creation
// so "change the title of this slide" never creates slides.
var Routes = []Route{
	{ActionGreeting, func(r *Record) bool { return r.IsGreeting }},
	{ActionEdit, func(r *Record) bool { return r.IsEditRequest }},
	{ActionGenerate, func(r *Record) bool { return r.IsSlideRequest }},
	{ActionSummarize, func(r *Record) bool { return r.Summary != nil }},
	{ActionSearch, func(r *Record) bool { return r.CurrentEvents || (r.URL != "" && r.IsArticleURL) }},
	{ActionQuestion, func(r *Record) bool { return r.Question != nil }},
}

// Classify runs every detector over message and resolves the action.
// Messages matching no route default to generating slides.
func Classify(message string) Record {
	text := normalizeQuotes(strings.TrimSpace(message))
	var r Record
	for _, d := range Detectors {
		d.Apply(text, &r)
	}
	r.Action = ActionGenerate
	for _, route := range Routes {
		if route.When(&r) {
			r.Action = route.Action
			break
		}
	}
	return r
}
