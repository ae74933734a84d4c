package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFields(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model: got.Model,
			Message: api.Message{
				Role:    "assistant",
				Content: "```json\n{\"fields\":[{\"label\":\"GREEN\",\"confidence\":0.7,\"box\":{\"x\":0.5,\"y\":0.5,\"w\":0.1,\"h\":0.1}}]}\n```",
			},
			Done: true,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)

	res, err := c.LocateFields(context.Background(), "llava", "locate", "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "GREEN", res.Fields[0].Label)

	assert.Equal(t, "llava", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Images, 1)
	assert.Equal(t, "hello", string(got.Messages[0].Images[0]))
}

func TestBadBase64(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "m", "p", "%%%")
	assert.ErrorContains(t, err, "base64")
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}

func TestModelOptions(t *testing.T) {
	assert.Equal(t, 0.7, modelOptions("openbmb/minicpm-v4.5")["temperature"])
	assert.Equal(t, 0.2, modelOptions("llava")["temperature"])
}
