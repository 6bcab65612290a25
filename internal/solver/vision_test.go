package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visionServer(t *testing.T, content string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Type string `json:"type"`
				} `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "gpt-4o", req.Model)
		if assert.Len(t, req.Messages, 1) {
			assert.Len(t, req.Messages[0].Content, 3, "prompt, canvas and instruction image")
		}

		reply, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"chatcmpl-42","object":"chat.completion","created":1,"model":"gpt-4o",
"choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestVisionCoordinates(t *testing.T) {
	baseURL := visionServer(t, "```json\n{\"found\": true, \"x\": 163, \"y\": 58}\n```")

	v, err := NewVision("sk-test", VisionOptions{BaseURL: baseURL})
	require.NoError(t, err)

	solution, err := v.Coordinates(context.Background(), Task{
		Image:             "aW1hZ2U=",
		TextInstructions:  DefaultTextInstructions,
		ImageInstructions: "aGludA==",
	})
	require.NoError(t, err)

	assert.Equal(t, "chatcmpl-42", solution.ID)
	assert.Equal(t, []Point{{X: 163, Y: 58}}, solution.Points)
	assert.NoError(t, v.Report(context.Background(), solution.ID, true))
}

func TestVisionNotFound(t *testing.T) {
	baseURL := visionServer(t, `{"found": false, "x": 0, "y": 0}`)

	v, err := NewVision("sk-test", VisionOptions{BaseURL: baseURL})
	require.NoError(t, err)

	_, err = v.Coordinates(context.Background(), Task{Image: "aW1hZ2U=", ImageInstructions: "aGludA=="})
	assert.Error(t, err)
}

func TestNewVisionRequiresKey(t *testing.T) {
	_, err := NewVision("", VisionOptions{})
	assert.Error(t, err)
}

func TestStripMarkdownCodeFence(t *testing.T) {
	assert.Equal(t, `{"x":1}`, stripMarkdownCodeFence("```json\n{\"x\":1}\n```"))
	assert.Equal(t, `{"x":1}`, stripMarkdownCodeFence("```\n{\"x\":1}\n```"))
	assert.Equal(t, `{"x":1}`, stripMarkdownCodeFence(`  {"x":1} `))
}
