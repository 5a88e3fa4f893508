package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"slider/internal/logger"
	"slider/internal/service"
	"slider/internal/tui"
	slidererr "slider/pkg/errors"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the backend in the terminal",
		Long:  "Run an interactive console against an in-process backend. Logs go only to logging.file so they do not disturb the screen.",
		RunE:  runChat,
	}
	cmd.Flags().String("conversation", "", "conversation id (default: a new random id)")
	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewFileOnly(cfg.Logging)
	defer func() { _ = log.Sync() }()

	backend, err := WireBackend(cfg, log)
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("conversation")
	if id == "" {
		id = uuid.NewString()
	}
	p := tea.NewProgram(tui.New(chatPort{backend}, id), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return slidererr.Wrap(err, slidererr.CodeCLISetupFailure, "running console")
	}
	return nil
}

// chatPort adapts the wired backend to the console.
type chatPort struct {
	*Backend
}

func (p chatPort) Handle(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	return p.Orchestrator.Handle(ctx, req)
}

func (p chatPort) Stats(conversationID string) (int, bool) {
	return p.Store.Stats(conversationID)
}
