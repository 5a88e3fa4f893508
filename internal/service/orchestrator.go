package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"slider/internal/domain"
	"slider/internal/intent"
	"slider/internal/llm"
	"slider/internal/metrics"
	"slider/internal/search"
	slidererr "slider/pkg/errors"
)

const greetingReply = "Hi! Tell me a topic and I'll draft slides, or ask me about the slide you're on."

// ChatRequest is one user turn from the add-in. CurrentSlide is 1-based; 0
// means no slide is selected. Slides is the deck as the add-in currently
// shows it.
type ChatRequest struct {
	ConversationID string         `json:"conversationId"`
	Message        string         `json:"message"`
	CurrentSlide   int            `json:"currentSlide,omitempty"`
	Slides         []domain.Slide `json:"slides,omitempty"`
	HasImage       bool           `json:"hasImage,omitempty"`
}

// ChatResponse carries the reply and, for generate and edit, the slides to
// render. SlideNumber names the edited slide.
type ChatResponse struct {
	Action      intent.Action   `json:"action"`
	Intent      intent.Record   `json:"intent"`
	Context     []string        `json:"context"`
	Reply       string          `json:"reply"`
	Slides      []domain.Slide  `json:"slides,omitempty"`
	SlideNumber int             `json:"slideNumber,omitempty"`
	Sources     []search.Result `json:"sources,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type OrchestratorOptions struct {
	TopK              int
	DefaultSlideCount int
	Logger            *zap.Logger
	Metrics           *metrics.Collectors
}

// Orchestrator turns a chat message into a reply: classify, retrieve
// context, act, then index the turn.
type Orchestrator struct {
	store      *RetrievalStore
	provider   llm.Provider
	searcher   search.Provider
	summarizer domain.Summarizer
	opts       OrchestratorOptions
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(store *RetrievalStore, provider llm.Provider, searcher search.Provider, summarizer domain.Summarizer, opts OrchestratorOptions) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.DefaultSlideCount <= 0 {
		opts.DefaultSlideCount = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if searcher == nil {
		searcher = search.Disabled{}
	}
	return &Orchestrator{
		store:      store,
		provider:   provider,
		searcher:   searcher,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// turn accumulates the response while one request is handled.
type turn struct {
	req  ChatRequest
	rec  intent.Record
	resp *ChatResponse
	// replyKind is the document kind the reply is indexed under.
	replyKind domain.Kind
}

func (t *turn) warn(msg string) {
	t.resp.Warnings = append(t.resp.Warnings, msg)
}

// Handle processes one chat turn. Only invalid requests and generation
// failures are returned as errors; retrieval, search and indexing problems
// are reported in Warnings.
func (o *Orchestrator) Handle(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.ConversationID == "" {
		return nil, slidererr.New(slidererr.CodeChatRequestInvalid, "conversation id is required")
	}
	if req.Message == "" {
		return nil, slidererr.New(slidererr.CodeChatRequestInvalid, "message is required",
			slidererr.FieldConversationID(req.ConversationID))
	}

	rec := intent.Classify(req.Message)
	o.opts.Metrics.IntentClassified(string(rec.Action))
	t := &turn{
		req:       req,
		rec:       rec,
		resp:      &ChatResponse{Action: rec.Action, Intent: rec},
		replyKind: domain.KindMessage,
	}
	t.resp.Context = o.store.ContextOrEmpty(ctx, req.ConversationID, req.Message, o.opts.TopK)

	if err := o.act(ctx, t); err != nil {
		return nil, err
	}

	o.indexTurn(ctx, t)
	o.logger.Info("chat turn handled",
		zap.String("conversation_id", req.ConversationID),
		zap.String("action", string(rec.Action)),
		zap.Int("context", len(t.resp.Context)),
		zap.Int("slides", len(t.resp.Slides)),
		zap.Int("warnings", len(t.resp.Warnings)))
	return t.resp, nil
}

func (o *Orchestrator) act(ctx context.Context, t *turn) error {
	rec := t.rec
	if t.req.HasImage && rec.ImageEmbed {
		o.placeImage(t)
		return nil
	}
	switch rec.Action {
	case intent.ActionGreeting:
		t.resp.Reply = greetingReply
		return nil
	case intent.ActionSearch:
		return o.research(ctx, t, false)
	case intent.ActionSummarize:
		return o.summarize(ctx, t)
	case intent.ActionQuestion:
		return o.answer(ctx, t)
	case intent.ActionEdit:
		return o.edit(ctx, t)
	}
	if rec.CurrentEvents || (rec.URL != "" && rec.IsArticleURL) {
		return o.research(ctx, t, true)
	}
	return o.generate(ctx, t, "", nil)
}

// placeImage answers an uploaded image with the slide it should go on: the
// named slide, else the current one, else a new slide after the deck.
func (o *Orchestrator) placeImage(t *turn) {
	n, ok := intent.ParseSlideNumber(t.req.Message)
	if !ok {
		n = t.req.CurrentSlide
	}
	if n < 1 {
		n = len(t.req.Slides) + 1
	}
	t.resp.SlideNumber = n
	t.resp.Reply = fmt.Sprintf("I'll place the image on slide %d.", n)
}

func (o *Orchestrator) generate(ctx context.Context, t *turn, research string, sources []string) error {
	rec := t.rec
	if !rec.HasAllInfo {
		t.resp.Reply = "What topic should the slides cover?"
		return nil
	}
	count := rec.SlideCountOr(o.opts.DefaultSlideCount)

	var slides []domain.Slide
	if !llm.IsOffline(o.provider) {
		out, err := o.provider.Complete(ctx, systemPrompt, nil, generatePrompt(rec, t.req.Message, count, t.resp.Context, research))
		if err != nil {
			return err
		}
		slides = ParseSlides(out)
		if len(slides) == 0 {
			t.warn("model reply had no slides; used an outline instead")
		}
	}
	if len(slides) == 0 {
		material := append([]string{}, t.resp.Context...)
		if research != "" {
			material = append(material, research)
		}
		slides = outlineSlides(rec.Topic, count, rec.Mode, material, sources)
	}
	if len(slides) > count {
		slides = slides[:count]
	}
	t.resp.Slides = slides
	t.resp.Reply = fmt.Sprintf("Here %s %d %s about %s.", plural(len(slides), "is", "are"), len(slides), plural(len(slides), "slide", "slides"), rec.Topic)
	return nil
}

// research runs a web search and indexes the results. With wantSlides the
// results feed slide generation; otherwise they answer the message.
func (o *Orchestrator) research(ctx context.Context, t *turn, wantSlides bool) error {
	results, err := o.searcher.Search(ctx, o.searchQuery(t.rec, t.req.Message), 0)
	if err != nil {
		o.logger.Warn("search failed",
			zap.String("conversation_id", t.req.ConversationID),
			zap.String("code", string(slidererr.CodeOf(err))),
			zap.Error(err))
		t.warn("web search unavailable: " + err.Error())
	}
	t.resp.Sources = results
	text := search.Format(results)
	if text != "" {
		if err := o.store.IndexResearchContent(ctx, t.req.ConversationID, text); err != nil {
			o.indexWarning(t, "research", err)
		}
	}

	if wantSlides {
		urls := make([]string, len(results))
		for i, r := range results {
			urls[i] = r.URL
		}
		return o.generate(ctx, t, text, urls)
	}
	if len(results) == 0 {
		t.resp.Reply = "I couldn't find anything recent on that."
		return nil
	}
	if llm.IsOffline(o.provider) {
		t.resp.Reply = o.extract(text, 3)
		return nil
	}
	out, err := o.provider.Complete(ctx, systemPrompt, nil, researchPrompt(t.req.Message, text, t.resp.Context))
	if err != nil {
		return err
	}
	t.resp.Reply = out
	return nil
}

// searchQuery is the topic (or message) with the current year appended for
// current-events requests and the article URL prepended when there is one.
func (o *Orchestrator) searchQuery(rec intent.Record, message string) string {
	q := rec.Topic
	if q == "" {
		q = message
	}
	if rec.URL != "" {
		q = strings.TrimSpace(strings.ReplaceAll(q, rec.URL, ""))
		if rec.IsArticleURL {
			q = strings.TrimSpace(rec.URL + " " + q)
		}
	}
	if rec.CurrentEvents {
		year := strconv.Itoa(o.now().Year())
		if !strings.Contains(q, year) {
			q += " " + year
		}
	}
	return q
}

func (o *Orchestrator) summarize(ctx context.Context, t *turn) error {
	material := slideMaterial(t.req, t.rec.Summary.Scope)
	if material == "" {
		material = joinContext(t.resp.Context)
	}
	if material == "" {
		t.resp.Reply = "There is no slide content to summarize yet."
		return nil
	}
	if llm.IsOffline(o.provider) {
		t.resp.Reply = o.extract(material, 3)
		return nil
	}
	out, err := o.provider.Complete(ctx, systemPrompt, nil, summaryPrompt(t.req.Message, material))
	if err != nil {
		return err
	}
	t.resp.Reply = out
	return nil
}

func (o *Orchestrator) answer(ctx context.Context, t *turn) error {
	t.replyKind = domain.KindQAAnswer
	material := slideMaterial(t.req, t.rec.Question.Scope)
	if llm.IsOffline(o.provider) {
		text := strings.TrimSpace(material + "\n" + joinContext(t.resp.Context))
		if text == "" {
			t.resp.Reply = "I don't have anything on that yet."
			return nil
		}
		t.resp.Reply = o.extract(text, 2)
		return nil
	}
	out, err := o.provider.Complete(ctx, systemPrompt, nil, questionPrompt(t.req.Message, material, t.resp.Context))
	if err != nil {
		return err
	}
	t.resp.Reply = out
	return nil
}

func (o *Orchestrator) edit(ctx context.Context, t *turn) error {
	t.replyKind = domain.KindEdit
	n := t.req.CurrentSlide
	if t.rec.EditTarget != nil && t.rec.EditTarget.Scope == intent.TargetSpecificSlide {
		n = t.rec.EditTarget.SlideNumber
	}
	if n < 1 || n > len(t.req.Slides) {
		t.resp.Reply = "I couldn't find that slide to edit. Select a slide or name it, like \"slide 2\"."
		return nil
	}
	t.resp.SlideNumber = n
	original := t.req.Slides[n-1]
	if llm.IsOffline(o.provider) {
		t.warn("slide edits need a language model; slide left unchanged")
		t.resp.Slides = []domain.Slide{original}
		t.resp.Reply = fmt.Sprintf("Slide %d is unchanged.", n)
		return nil
	}
	out, err := o.provider.Complete(ctx, systemPrompt, nil, editPrompt(t.req.Message, original.Text(n), t.resp.Context))
	if err != nil {
		return err
	}
	edited := ParseSlides(out)
	if len(edited) == 0 {
		t.warn("model reply had no slide; slide left unchanged")
		edited = []domain.Slide{original}
	}
	t.resp.Slides = edited[:1]
	t.resp.Reply = fmt.Sprintf("Updated slide %d.", n)
	return nil
}

// indexTurn stores the user message, the reply and any generated slides.
// Failures become warnings.
func (o *Orchestrator) indexTurn(ctx context.Context, t *turn) {
	id := t.req.ConversationID
	if err := o.store.IndexMessage(ctx, id, domain.RoleUser, t.req.Message, nil); err != nil {
		o.indexWarning(t, "message", err)
	}
	var meta map[string]any
	if t.replyKind != domain.KindMessage {
		meta = map[string]any{"type": string(t.replyKind)}
		if t.resp.SlideNumber > 0 {
			meta["slideIndex"] = t.resp.SlideNumber
		}
	}
	if t.resp.Reply != "" && t.rec.Action != intent.ActionGreeting {
		if err := o.store.IndexMessage(ctx, id, domain.RoleAssistant, t.resp.Reply, meta); err != nil {
			o.indexWarning(t, "reply", err)
		}
	}
	if len(t.resp.Slides) > 0 && t.rec.Action != intent.ActionEdit {
		if err := o.store.IndexSlides(ctx, id, t.resp.Slides); err != nil {
			o.indexWarning(t, "slides", err)
		}
	}
}

func (o *Orchestrator) indexWarning(t *turn, what string, err error) {
	o.logger.Warn("indexing failed",
		zap.String("conversation_id", t.req.ConversationID),
		zap.String("what", what),
		zap.Error(err))
	t.warn("could not remember " + what + ": " + string(slidererr.CodeOf(err)))
}

func (o *Orchestrator) extract(text string, sentences int) string {
	if o.summarizer == nil {
		return text
	}
	out, err := o.summarizer.Summarize(text, sentences)
	if err != nil || out == "" {
		return text
	}
	return out
}

// slideMaterial renders the slides a scope refers to. It is empty when the
// request carries no matching slide.
func slideMaterial(req ChatRequest, scope intent.Scope) string {
	switch scope.Kind {
	case intent.ScopeFullPresentation:
		parts := make([]string, len(req.Slides))
		for i, s := range req.Slides {
			parts[i] = s.Text(i + 1)
		}
		return strings.Join(parts, "\n\n")
	case intent.ScopeSpecificSlide:
		return slideText(req.Slides, scope.SlideNumber)
	default:
		return slideText(req.Slides, req.CurrentSlide)
	}
}

func slideText(slides []domain.Slide, n int) string {
	if n < 1 || n > len(slides) {
		return ""
	}
	return slides[n-1].Text(n)
}

func joinContext(snippets []string) string {
	parts := make([]string, len(snippets))
	for i, s := range snippets {
		parts[i] = stripLabel(s)
	}
	return strings.Join(parts, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
