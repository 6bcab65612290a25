package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// VisionOptions configures the OpenAI backend
type VisionOptions struct {
	BaseURL string
	Model   string
}

// Vision asks a vision model for the puzzle center.
// The model has no feedback channel, so reports are only logged.
type Vision struct {
	client *openai.Client
	model  string
}

// NewVision creates a vision backend for apiKey
func NewVision(apiKey string, opts VisionOptions) (*Vision, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &Vision{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

const visionPrompt = `You are looking at an image puzzle slider captcha. One piece has been cut out of the picture and a matching hole is visible somewhere to the right of the piece.

Origin (0,0) is the TOP-LEFT corner of the first image. X increases going RIGHT, Y increases going DOWN.

Find the CENTER of the hole where the piece must be placed. Return ONLY a JSON object:
{
  "found": true/false,
  "x": pixel_x_of_hole_center,
  "y": pixel_y_of_hole_center
}

Instructions for human solvers: %s`

// Coordinates sends the canvas and instruction image to the model
func (v *Vision) Coordinates(ctx context.Context, task Task) (*Solution, error) {
	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf(visionPrompt, task.TextInstructions),
		},
		{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + task.Image,
				Detail: openai.ImageURLDetailHigh,
			},
		},
	}
	if task.ImageInstructions != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + task.ImageInstructions,
				Detail: openai.ImageURLDetailLow,
			},
		})
	}

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	content := stripMarkdownCodeFence(resp.Choices[0].Message.Content)

	var result struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w (content: %s)", err, content)
	}
	if !result.Found {
		return nil, fmt.Errorf("vision model did not find the puzzle hole")
	}

	return &Solution{
		ID:     resp.ID,
		Points: []Point{{X: result.X, Y: result.Y}},
	}, nil
}

// Report only logs the outcome
func (v *Vision) Report(_ context.Context, id string, correct bool) error {
	log.Printf("[Vision] Answer %s correct=%v", id, correct)
	return nil
}

// stripMarkdownCodeFence removes markdown code fence wrappers from JSON responses
func stripMarkdownCodeFence(text string) string {
	text = strings.TrimSpace(text)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimSpace(strings.TrimPrefix(text, fence))
			if idx := strings.Index(text, "```"); idx != -1 {
				text = text[:idx]
			}
			break
		}
	}

	return strings.TrimSpace(text)
}
