package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// wordRe builds a case-insensitive whole-word alternation over words.
func wordRe(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var numberWords = map[string]int{
	"two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var (
	digitCountRe  = regexp.MustCompile(`(?i)\b(\d{1,3})\s*-?\s*slides?\b`)
	wordCountRe   = regexp.MustCompile(`(?i)\b(two|three|four|five|six|seven|eight|nine|ten)\s+slides?\b`)
	singleCountRe = regexp.MustCompile(`(?i)\b(?:a|one)\s+slide\b`)
	anyCountRe    = regexp.MustCompile(`(?i)\b(?:\d{1,3}\s*-?\s*|(?:two|three|four|five|six|seven|eight|nine|ten)\s+)slides?\b|\b(?:a|one)\s+slide\b`)
)

// ExtractSlideCount returns the requested number of slides, clamped to 1..10.
// Digits win over number words, which win over "a slide" / "one slide".
func ExtractSlideCount(text string) (int, bool) {
	if m := digitCountRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return clamp(n, 1, 10), true
		}
	}
	if m := wordCountRe.FindStringSubmatch(text); m != nil {
		return numberWords[strings.ToLower(m[1])], true
	}
	if singleCountRe.MatchString(text) {
		return 1, true
	}
	return 0, false
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

var (
	summaryWordRe = wordRe("summarize", "summarise", "summarizing", "summary", "summaries", "recap", "tl;dr", "tldr", "condense", "digest")
	sourceNounRe  = wordRe("article", "document", "doc", "paper", "report", "pdf", "file", "link", "url", "page", "post", "transcript", "notes", "video", "book", "chapter", "study", "website", "webpage", "blog")
	compareRe     = regexp.MustCompile(`(?i)\b(?:compare|comparing|comparison|versus|vs\.?|contrast|differences?\s+between|similarities\s+between)(?:\s|$|\b)`)
	prosConsRe    = regexp.MustCompile(`(?i)\bpros\s*(?:and|&|/|\+)\s*cons\b|\badvantages\s+and\s+disadvantages\b|\bbenefits\s+and\s+(?:drawbacks|risks)\b|\bstrengths\s+and\s+weaknesses\b|\bupsides?\s+and\s+downsides?\b`)
	researchRe    = wordRe("research", "researched", "investigate", "investigation", "analyze", "analyse", "analysis", "current", "latest", "recent", "recently", "news", "trends", "trending", "statistics", "stats", "study the", "deep dive", "up-to-date", "up to date")
	slideRefRe    = regexp.MustCompile(`(?i)\b(?:this|current|the current|that)\s+slide\b`)
	urlRe         = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)
)

// DetectMode returns the first matching presentation mode, defaulting to generate.
// Summarize mode needs a summary word aimed at source material (an article,
// document, link...), so "summarize this into 5 slides" stays a plain generate.
// The summary action is decided separately by DetectSummaryRequest, so
// "summarize the history of rome" is a summary in generate mode.
func DetectMode(text string) Mode {
	scrubbed := slideRefRe.ReplaceAllString(text, " ")
	if summaryWordRe.MatchString(scrubbed) && (sourceNounRe.MatchString(scrubbed) || urlRe.MatchString(scrubbed)) {
		return ModeSummarize
	}
	if compareRe.MatchString(scrubbed) {
		return ModeCompare
	}
	if prosConsRe.MatchString(scrubbed) {
		return ModeProsCons
	}
	if researchRe.MatchString(urlRe.ReplaceAllString(scrubbed, " ")) {
		return ModeResearch
	}
	return ModeGenerate
}

var toneRules = []struct {
	tone Tone
	re   *regexp.Regexp
}{
	{ToneCasual, wordRe("casual", "fun", "friendly", "informal", "relaxed", "playful", "lighthearted", "light-hearted", "conversational")},
	{ToneAcademic, wordRe("academic", "scholarly", "scientific", "technical", "rigorous", "in-depth", "educational")},
	{ToneProfessional, wordRe("professional", "business", "corporate", "formal", "executive")},
}

// DetectTone returns the first matching tone and the word that matched it.
func DetectTone(text string) (Tone, string) {
	for _, r := range toneRules {
		if m := r.re.FindString(text); m != "" {
			return r.tone, m
		}
	}
	return ToneUnspecified, ""
}

var leadingFillers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:please|kindly|ok|okay|so|now|hey)\b[,!]?`),
	regexp.MustCompile(`(?i)^(?:can|could|would|will)\s+you\b`),
	regexp.MustCompile(`(?i)^(?:send|give|show|tell|make|get|build|create)\s+me\b`),
	regexp.MustCompile(`(?i)^(?:i\s+want|i\s+need|i'd\s+like|i\s+would\s+like|let's|lets)(?:\s+to)?\b`),
	regexp.MustCompile(`(?i)^(?:create|generate|make|build|write|prepare|produce|design|draft|put\s+together|do)\b`),
	regexp.MustCompile(`(?i)^(?:(?:a|an|the|some|me|us)\s+)?(?:new\s+|short\s+|quick\s+)?(?:presentation|deck|slideshow|slide\s+deck|pitch\s+deck|powerpoint|slides?)\b`),
	regexp.MustCompile(`(?i)^(?:about|on|regarding|covering|explaining)\b`),
}

var (
	spacesRe     = regexp.MustCompile(`\s+`)
	toneStyleFmt = `(?i)\b(?:in|with|using)?\s*(?:a|an)?\s*%s\s+(?:tone|style|voice|way)\b|\b%s\b`
)

// ExtractTopic strips slide-count phrases, the tone word, leading filler and a
// leading "about" from the raw message and returns what remains.
func ExtractTopic(raw string) string {
	t := normalizeQuotes(raw)
	t = anyCountRe.ReplaceAllString(t, " ")
	if _, word := DetectTone(t); word != "" {
		q := regexp.QuoteMeta(word)
		t = regexp.MustCompile(strings.ReplaceAll(toneStyleFmt, "%s", q)).ReplaceAllString(t, " ")
	}
	t = strings.TrimSpace(spacesRe.ReplaceAllString(t, " "))
	for changed := true; changed; {
		changed = false
		for _, re := range leadingFillers {
			if loc := re.FindStringIndex(t); loc != nil && loc[1] > 0 {
				t = strings.TrimLeft(t[loc[1]:], " ,:;-")
				changed = true
			}
		}
	}
	return strings.Trim(t, " \t\n.,!?:;-")
}

var (
	currentEventsRe = wordRe("latest", "recent", "recently", "current", "currently", "today", "today's", "tonight",
		"this week", "this month", "this year", "right now", "breaking", "news", "headlines", "trending",
		"up-to-date", "up to date", "as of", "nowadays", "these days")
	happeningRe    = regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is|\s+are)\s+(?:happening|going\s+on|new|the\s+latest)\b`)
	freshDataRe    = regexp.MustCompile(`(?i)\b(?:current|latest|recent|new|updated|up-to-date)\s+(?:statistics|stats|data|numbers|figures|research|results|developments)\b`)
	yearRe         = regexp.MustCompile(`(?i)\b(?:in|of|for|during|since)\s+20[2-9]\d\b`)
)

// IsCurrentEvents reports whether the message asks about recent or live information.
func IsCurrentEvents(text string) bool {
	t := slideRefRe.ReplaceAllString(normalizeQuotes(text), " ")
	return currentEventsRe.MatchString(t) || happeningRe.MatchString(t) || freshDataRe.MatchString(t) || yearRe.MatchString(t)
}

// ExtractURL returns the first http(s) URL in text.
func ExtractURL(text string) (string, bool) {
	u := urlRe.FindString(text)
	u = strings.TrimRight(u, ".,;:!?")
	return u, u != ""
}

var (
	nonArticleHosts = []string{
		"github.com", "gitlab.com", "bitbucket.org", "gist.github.com",
		"youtube.com", "youtu.be", "vimeo.com", "twitch.tv", "tiktok.com",
		"twitter.com", "x.com", "instagram.com", "facebook.com", "reddit.com", "pinterest.com",
	}
	nonArticleExts = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico", ".pdf", ".zip", ".mp4", ".mp3", ".mov", ".json", ".xml"}
	articleHints   = []string{"medium.com", "substack.com", "news", "blog", "article", "post", "docs", "/wiki/"}
)

// IsArticleURL decides whether a URL is worth fetching as readable article text.
// Known non-article hosts, media extensions and API paths are rejected;
// anything else is accepted.
func IsArticleURL(rawURL string) bool {
	u := strings.ToLower(rawURL)
	host, path := splitURL(u)
	for _, h := range nonArticleHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return false
		}
	}
	for _, ext := range nonArticleExts {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	if strings.HasPrefix(host, "api.") || strings.Contains(path, "/api/") || strings.HasSuffix(path, "/api") {
		return false
	}
	for _, hint := range articleHints {
		if strings.Contains(u, hint) {
			return true
		}
	}
	return true
}

func splitURL(u string) (host, path string) {
	rest := u
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	host = rest
	path = "/"
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host = rest[:i]
		path = rest[i:]
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	return host, path
}

var greetingRe = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|hiya|howdy|greetings|yo|sup|hola|good\s+(?:morning|afternoon|evening)|(?:hi|hello|hey)\s+there)\s*[!.?,~]*\s*$`)

// IsGreeting matches a bare greeting, optionally followed by punctuation.
func IsGreeting(text string) bool {
	return greetingRe.MatchString(text)
}

var (
	editVerbRe = wordRe("add", "edit", "change", "modify", "update", "fix", "replace", "remove", "delete", "clear",
		"restyle", "rewrite", "rephrase", "reword", "shorten", "lengthen", "expand", "adjust", "rename",
		"recolor", "recolour", "swap", "insert", "correct", "tweak", "improve", "simplify", "bold", "italicize", "resize")
	editTargetRe = wordRe("slide", "slides", "title", "titles", "subtitle", "bullet", "bullets", "point", "points",
		"content", "text", "heading", "header", "color", "colour", "colors", "style", "font", "background",
		"layout", "theme", "item", "items", "paragraph", "wording", "image", "picture", "chart", "table")
	makeTheRe     = regexp.MustCompile(`(?i)\bmake\s+(?:the\s+|this\s+)?(?:title|bullets?|content|text|slide|it)\b`)
	deleteThisRe  = regexp.MustCompile(`(?i)\b(?:delete|remove)\s+(?:this|the\s+current|current)\s+slide\b`)
	addItemsRe    = regexp.MustCompile(`(?i)\badd\b.*\b(?:bullets?|points?|items?)\b`)
	moreItemsRe   = regexp.MustCompile(`(?i)\b(?:more|additional|extra|another)\b.*\b(?:bullets?|points?|items?|slides?)\b`)
)

// IsEditRequest reports whether the message asks to change existing slide content.
func IsEditRequest(text string) bool {
	return (editVerbRe.MatchString(text) && editTargetRe.MatchString(text)) ||
		makeTheRe.MatchString(text) ||
		deleteThisRe.MatchString(text) ||
		addItemsRe.MatchString(text) ||
		moreItemsRe.MatchString(text)
}

var (
	createVerbRe = wordRe("create", "generate", "make", "build", "give me", "show me", "i want", "i need")
	deckNounRe   = wordRe("slide", "slides", "presentation", "presentations", "deck", "decks")
)

// IsSlideRequest reports whether the message asks for new slides.
func IsSlideRequest(text string) bool {
	if createVerbRe.MatchString(text) && deckNounRe.MatchString(text) {
		return true
	}
	_, ok := ExtractSlideCount(text)
	return ok
}

var slideNumberRe = regexp.MustCompile(`(?i)\bslide\s+(?:number\s+|no\.?\s*|#\s*)?(\d{1,3})\b`)

// ParseSlideNumber returns N from an explicit "slide N" / "slide number N".
func ParseSlideNumber(text string) (int, bool) {
	m := slideNumberRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ParseEditTarget resolves which slide an edit applies to.
func ParseEditTarget(text string) EditTarget {
	if n, ok := ParseSlideNumber(text); ok {
		return EditTarget{Scope: TargetSpecificSlide, SlideNumber: n}
	}
	return EditTarget{Scope: TargetCurrentSlide}
}

var (
	summaryRequestRe = wordRe("summarize", "summarise", "summary", "recap", "overview", "tl;dr", "tldr")
	whatsOnSlideRe   = regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is)\s+on\s+(?:this|the|the\s+current|current)\s+slide\b`)
	fullDeckRe       = regexp.MustCompile(`(?i)\ball\s+(?:the\s+|of\s+the\s+)?slides\b|\b(?:entire|whole|full)\b|\b(?:presentation|deck)\b`)
)

// DetectSummaryRequest returns nil unless the message asks to summarize
// existing slides. Slide-creation requests are never summaries.
func DetectSummaryRequest(text string) *SummaryRequest {
	t := normalizeQuotes(text)
	if IsSlideRequest(t) {
		return nil
	}
	if !summaryRequestRe.MatchString(t) && !whatsOnSlideRe.MatchString(t) {
		return nil
	}
	return &SummaryRequest{Scope: resolveScope(t)}
}

func resolveScope(text string) Scope {
	if n, ok := ParseSlideNumber(text); ok {
		return Scope{Kind: ScopeSpecificSlide, SlideNumber: n}
	}
	if fullDeckRe.MatchString(text) {
		return Scope{Kind: ScopeFullPresentation}
	}
	return Scope{Kind: ScopeCurrentSlide}
}

var (
	questionStartRe = regexp.MustCompile(`(?i)^\s*(?:what|what's|whats|why|how|when|where|who|whom|whose|which|is|are|was|were|can|could|does|do|did|should|would|will)\b`)
	slideContextRe  = wordRe("slide", "slides", "presentation", "deck", "bullet", "bullets", "point", "points",
		"topic", "content", "key point", "key points", "takeaway", "takeaways", "this", "chart", "title")
)

// LooksLikeQuestion reports a question mark or a leading question word.
func LooksLikeQuestion(text string) bool {
	return strings.Contains(text, "?") || questionStartRe.MatchString(normalizeQuotes(text))
}

// DetectSlideQuestion returns nil unless the message is a question that is
// neither a slide-creation nor an edit request. Questions without slide
// context are still answered against the current slide.
func DetectSlideQuestion(text string) *SlideQuestion {
	t := normalizeQuotes(text)
	if !LooksLikeQuestion(t) || IsSlideRequest(t) || IsEditRequest(t) {
		return nil
	}
	if n, ok := ParseSlideNumber(t); ok {
		return &SlideQuestion{Scope: Scope{Kind: ScopeSpecificSlide, SlideNumber: n}, SlideContext: true}
	}
	if slideContextRe.MatchString(t) {
		if fullDeckRe.MatchString(t) {
			return &SlideQuestion{Scope: Scope{Kind: ScopeFullPresentation}, SlideContext: true}
		}
		return &SlideQuestion{Scope: Scope{Kind: ScopeCurrentSlide}, SlideContext: true}
	}
	return &SlideQuestion{Scope: Scope{Kind: ScopeCurrentSlide}}
}

var (
	embedVerbRe     = wordRe("embed", "include", "put", "place", "insert", "add", "attach", "with", "show")
	imageReferentRe = wordRe("image", "picture", "photo", "it", "this")
	intoDeckRe      = regexp.MustCompile(`(?i)\b(?:into|in|on)\b.*\b(?:slides?|presentation|deck)\b`)
	showingImageRe  = regexp.MustCompile(`(?i)\b(?:with|showing|displaying)\b.*\b(?:image|picture|photo|it|this)\b`)
)

// HasImageEmbedIntent reports whether the message asks to place an attached image.
func HasImageEmbedIntent(text string) bool {
	return (embedVerbRe.MatchString(text) && imageReferentRe.MatchString(text)) ||
		intoDeckRe.MatchString(text) ||
		showingImageRe.MatchString(text)
}

func normalizeQuotes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
