// Package embedding_test contains tests for the embedding clients.
// Embed itself needs a running Ollama server and is skipped in short mode.
package embedding_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinek/ensemble/internal/embedding"
)

func TestNewOllamaClient(t *testing.T) {
	client, err := embedding.NewOllamaClient("", 0)
	require.NoError(t, err, "should create client with default model")
	assert.Equal(t, embedding.DefaultModel, client.Model())
	assert.Equal(t, embedding.DefaultDimension, client.Dimension())
}

func TestNewOllamaClientCustomModel(t *testing.T) {
	client, err := embedding.NewOllamaClient("custom-model", 512)
	require.NoError(t, err, "should create client with custom model")
	assert.Equal(t, "custom-model", client.Model())
	assert.Equal(t, 512, client.Dimension())
}

func TestEmbed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := embedding.NewOllamaClient("", 0)
	require.NoError(t, err, "should create client")

	emb, err := client.Embed(ctx, "A sentence for the thought soil.")
	require.NoError(t, err, "should generate embedding")

	assert.Len(t, emb, client.Dimension(),
		"embedding must be exactly %d dimensions", client.Dimension())

	var sum float32
	for _, v := range emb {
		sum += v * v
	}
	assert.Greater(t, sum, float32(0), "embedding should not be all zeros")
}
