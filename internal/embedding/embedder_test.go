package embedding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/config"
	"slider/internal/embedding"
	slidererr "slider/pkg/errors"
)

func TestNew_Hashing(t *testing.T) {
	emb, err := embedding.New(config.EmbedderConfig{Type: "hashing", Dimension: 32})
	require.NoError(t, err)
	assert.Equal(t, "hashing", emb.Name())
	assert.Equal(t, 32, emb.Dimension())
}

func TestNew_OpenAIWithoutSection(t *testing.T) {
	_, err := embedding.New(config.EmbedderConfig{Type: "openai"})
	require.Error(t, err)
	assert.True(t, slidererr.IsInvalidInput(err))
}

func TestNew_Unknown(t *testing.T) {
	_, err := embedding.New(config.EmbedderConfig{Type: "bert"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedder")
}
