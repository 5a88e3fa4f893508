package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"slider/internal/domain"
	"slider/internal/intent"
	"slider/internal/service"
	slidererr "slider/pkg/errors"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	huma.Register(s.api, huma.Operation{
		OperationID: "classify-intent",
		Method:      http.MethodPost,
		Path:        "/api/intent",
		Summary:     "Classify a chat message",
		Tags:        []string{"intent"},
	}, s.handleClassify)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-message",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/messages",
		Summary:     "Index a chat message",
		Tags:        []string{"retrieval"},
	}, s.handleIndexMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-slides",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/slides",
		Summary:     "Index generated slides",
		Tags:        []string{"retrieval"},
	}, s.handleIndexSlides)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-research",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/research",
		Summary:     "Chunk and index research content",
		Tags:        []string{"retrieval"},
	}, s.handleIndexResearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "seed-conversation",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/seed",
		Summary:     "Seed a conversation from stored history",
		Tags:        []string{"retrieval"},
	}, s.handleSeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "retrieve-context",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/retrieve",
		Summary:     "Retrieve labelled context snippets",
		Tags:        []string{"retrieval"},
	}, s.handleRetrieve)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-conversation",
		Method:      http.MethodDelete,
		Path:        "/api/conversations/{id}",
		Summary:     "Drop a conversation's index",
		Tags:        []string{"retrieval"},
	}, s.handleDelete)

	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/conversations/{id}/chat",
		Summary:     "Handle one chat turn",
		Tags:        []string{"chat"},
	}, s.handleChat)
}

// --- Request/Response types for huma ---

type slideBody struct {
	Title   string   `json:"title"`
	Format  string   `json:"format,omitempty" enum:"bullets,numbered,paragraph,headline"`
	Items   []string `json:"items"`
	Sources []string `json:"sources,omitempty"`
}

func toSlides(in []slideBody) []domain.Slide {
	out := make([]domain.Slide, len(in))
	for i, b := range in {
		out[i] = domain.Slide{Title: b.Title, Format: domain.ParseSlideFormat(b.Format), Items: b.Items, Sources: b.Sources}
	}
	return out
}

type conversationInput struct {
	ID string `path:"id" minLength:"1"`
}

type healthOutput struct {
	Body struct {
		Status        string `json:"status" example:"ok"`
		Version       string `json:"version"`
		Conversations int    `json:"conversations"`
	}
}

type classifyInput struct {
	Body struct {
		Message string `json:"message" minLength:"1"`
	}
}

type classifyOutput struct {
	Body intent.Record
}

type indexMessageInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Role     string         `json:"role" enum:"user,assistant,system"`
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
}

type indexSlidesInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Slides []slideBody `json:"slides"`
	}
}

type indexResearchInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Content string `json:"content"`
	}
}

type seedMessage struct {
	Role     string         `json:"role" enum:"user,assistant,system"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type seedInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Messages []seedMessage `json:"messages"`
	}
}

type seedOutput struct {
	Body struct {
		Seeded    bool `json:"seeded"`
		Documents int  `json:"documents"`
	}
}

type documentsOutput struct {
	Body struct {
		Documents int `json:"documents"`
	}
}

type retrieveInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Query string `json:"query" minLength:"1"`
		K     int    `json:"k,omitempty" minimum:"0" maximum:"50"`
	}
}

type retrieveOutput struct {
	Body struct {
		Context []string `json:"context"`
		// Warning carries the error code when retrieval failed and the
		// context fell back to empty.
		Warning string `json:"warning,omitempty"`
	}
}

type deleteOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

type chatInput struct {
	ID   string `path:"id" minLength:"1"`
	Body struct {
		Message      string      `json:"message" minLength:"1"`
		CurrentSlide int         `json:"currentSlide,omitempty" minimum:"0"`
		Slides       []slideBody `json:"slides,omitempty"`
		HasImage     bool        `json:"hasImage,omitempty"`
	}
}

type chatOutput struct {
	Body *service.ChatResponse
}

// --- Handlers ---

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*healthOutput, error) {
	out := &healthOutput{}
	out.Body.Status = "ok"
	out.Body.Version = Version
	out.Body.Conversations = s.services.Store.Conversations()
	return out, nil
}

func (s *Server) handleClassify(_ context.Context, input *classifyInput) (*classifyOutput, error) {
	return &classifyOutput{Body: intent.Classify(input.Body.Message)}, nil
}

func (s *Server) handleIndexMessage(ctx context.Context, input *indexMessageInput) (*documentsOutput, error) {
	role := domain.Role(input.Body.Role)
	if !role.Valid() {
		return nil, badRequest("role must be user, assistant or system")
	}
	if err := s.services.Store.IndexMessage(ctx, input.ID, role, input.Body.Content, input.Body.Metadata); err != nil {
		return nil, s.fail("index message", input.ID, err)
	}
	return s.documents(input.ID), nil
}

func (s *Server) handleIndexSlides(ctx context.Context, input *indexSlidesInput) (*documentsOutput, error) {
	if err := s.services.Store.IndexSlides(ctx, input.ID, toSlides(input.Body.Slides)); err != nil {
		return nil, s.fail("index slides", input.ID, err)
	}
	return s.documents(input.ID), nil
}

func (s *Server) handleIndexResearch(ctx context.Context, input *indexResearchInput) (*documentsOutput, error) {
	if err := s.services.Store.IndexResearchContent(ctx, input.ID, input.Body.Content); err != nil {
		return nil, s.fail("index research", input.ID, err)
	}
	return s.documents(input.ID), nil
}

func (s *Server) handleSeed(ctx context.Context, input *seedInput) (*seedOutput, error) {
	msgs := make([]service.SeedMessage, len(input.Body.Messages))
	for i, m := range input.Body.Messages {
		msgs[i] = service.SeedMessage{Role: domain.Role(m.Role), Content: m.Content, Meta: m.Metadata}
	}
	seeded, err := s.services.Store.SeedConversation(ctx, input.ID, msgs)
	if err != nil {
		return nil, s.fail("seed conversation", input.ID, err)
	}
	out := &seedOutput{}
	out.Body.Seeded = seeded
	out.Body.Documents, _ = s.services.Store.Stats(input.ID)
	return out, nil
}

func (s *Server) handleRetrieve(ctx context.Context, input *retrieveInput) (*retrieveOutput, error) {
	out := &retrieveOutput{}
	snippets, err := s.services.Store.RetrieveContext(ctx, input.ID, input.Body.Query, input.Body.K)
	if err != nil {
		s.logger.Warn("retrieval failed, returning empty context",
			zap.String("conversation_id", input.ID),
			zap.Error(err))
		snippets = []string{}
		out.Body.Warning = string(slidererr.CodeOf(err))
	}
	out.Body.Context = snippets
	return out, nil
}

func (s *Server) handleDelete(_ context.Context, input *conversationInput) (*deleteOutput, error) {
	out := &deleteOutput{}
	out.Body.Deleted = s.services.Store.DeleteConversationStore(input.ID)
	return out, nil
}

func (s *Server) handleChat(ctx context.Context, input *chatInput) (*chatOutput, error) {
	resp, err := s.services.Orchestrator.Handle(ctx, service.ChatRequest{
		ConversationID: input.ID,
		Message:        input.Body.Message,
		CurrentSlide:   input.Body.CurrentSlide,
		Slides:         toSlides(input.Body.Slides),
		HasImage:       input.Body.HasImage,
	})
	if err != nil {
		return nil, s.fail("chat", input.ID, err)
	}
	return &chatOutput{Body: resp}, nil
}

func (s *Server) documents(id string) *documentsOutput {
	out := &documentsOutput{}
	out.Body.Documents, _ = s.services.Store.Stats(id)
	return out
}

func (s *Server) fail(op, conversationID string, err error) error {
	s.logger.Warn(op+" failed",
		zap.String("conversation_id", conversationID),
		zap.String("code", string(slidererr.CodeOf(err))),
		zap.Error(err))
	return toAPIError(err)
}
