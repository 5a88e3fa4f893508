package hashing_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/embedding/hashing"
)

func TestEmbedder_DeterministicAndNormalized(t *testing.T) {
	e := hashing.NewEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Rocket engine design")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "rocket ENGINE design")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	norm := 0.0
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedder_StopwordsOnlyIsZeroVector(t *testing.T) {
	e := hashing.NewEmbedder(0)

	v, err := e.Embed(context.Background(), "the and of it")
	require.NoError(t, err)

	assert.Len(t, v, hashing.DefaultDimension)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedder_EmbedBatchMatchesEmbed(t *testing.T) {
	e := hashing.NewEmbedder(128)
	ctx := context.Background()

	batch, err := e.EmbedBatch(ctx, []string{"apple pie", "coral reefs"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	single, err := e.Embed(ctx, "coral reefs")
	require.NoError(t, err)
	assert.Equal(t, single, batch[1])
}
