package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slider/internal/config"
	"slider/internal/service"
	slidererr "slider/pkg/errors"
)

func TestRootCommand_Help(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "slider")
	assert.Contains(t, buf.String(), "serve")
	assert.Contains(t, buf.String(), "chat")
	assert.Contains(t, buf.String(), "classify")
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "slider dev")
}

func TestClassifyCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"classify", "make", "3", "slides", "about", "volcanoes"})

	require.NoError(t, root.Execute())
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.EqualValues(t, 3, rec["slideCount"])
	assert.Equal(t, "volcanoes", rec["topic"])
}

func TestClassifyCommand_RequiresMessage(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"classify"})

	err := root.Execute()
	assert.True(t, slidererr.HasCode(err, slidererr.CodeCLIInputInvalid))
}

func TestServeCommand_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  type: parrot\n"), 0o644))

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"serve", "--config", path})

	err := root.Execute()
	assert.True(t, slidererr.HasCode(err, slidererr.CodeConfigValidateInvalidValue))
}

func TestWireBackend_Defaults(t *testing.T) {
	backend, err := WireBackend(config.Default(), zap.NewNop())
	require.NoError(t, err)

	resp, err := backend.Orchestrator.Handle(context.Background(), service.ChatRequest{
		ConversationID: "c1",
		Message:        "create 2 slides about tide pools",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Slides, 2)

	n, ok := backend.Store.Stats("c1")
	assert.True(t, ok)
	assert.Positive(t, n)

	families, err := backend.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "slider_intent_classified_total")
}
