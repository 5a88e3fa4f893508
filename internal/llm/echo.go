package llm

import (
	"context"
	"strings"
)

// Echo is the offline provider. It returns the prompt unchanged so the rest
// of the pipeline can run without network access.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Complete(ctx context.Context, _ string, _ []Message, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt), nil
}
