package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/velkovn/agentchat/internal/stream"
)

const anthropicVersion = "2023-06-01"

// Anthropic is a Responder backed by an Anthropic-style streaming messages
// API. It decodes the upstream SSE stream and forwards text deltas as reply
// fragments.
type Anthropic struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

func NewAnthropic(baseURL, apiKey, model string, maxTokens int) *Anthropic {
	return &Anthropic{
		client: &http.Client{
			// No timeout, streaming responses can be long-lived.
			Timeout: 0,
		},
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

type messagesRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []reqMessage `json:"messages"`
	Stream    bool         `json:"stream"`
}

type reqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Upstream SSE payloads, one struct per event type we act on.
type messageStart struct {
	Message struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

type contentBlockDelta struct {
	Delta struct {
		Type string `json:"type"` // "text_delta" | "input_json_delta" | "thinking_delta"
		Text string `json:"text"`
	} `json:"delta"`
}

type messageDelta struct {
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) Respond(ctx context.Context, req Request, emit func(string) error) (Result, error) {
	intent := Classify(req.Message)
	result := Result{Intent: intent}

	body, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    intent.SystemPrompt(),
		Messages:  []reqMessage{{Role: "user", Content: req.Message}},
		Stream:    true,
	})
	if err != nil {
		return result, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Api-Key", a.apiKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return result, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, readAPIError(resp)
	}

	err = stream.Decode(ctx, resp.Body, func(ev stream.Event) error {
		switch ev.Type {
		case "message_start":
			var ms messageStart
			if err := ev.Decode(&ms); err != nil {
				return nil
			}
			result.Model = ms.Message.Model
			result.Usage.InputTokens = ms.Message.Usage.InputTokens
			result.Usage.OutputTokens = ms.Message.Usage.OutputTokens
		case "content_block_delta":
			var cbd contentBlockDelta
			if err := ev.Decode(&cbd); err != nil {
				return nil
			}
			if cbd.Delta.Type == "text_delta" && cbd.Delta.Text != "" {
				return emit(cbd.Delta.Text)
			}
		case "message_delta":
			var md messageDelta
			if err := ev.Decode(&md); err != nil {
				return nil
			}
			if md.Usage.OutputTokens > 0 {
				result.Usage.OutputTokens = md.Usage.OutputTokens
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Usage.TotalTokens = result.Usage.InputTokens + result.Usage.OutputTokens
	log.Debug().
		Str("session_id", req.SessionID).
		Str("intent", string(intent)).
		Int("input_tokens", result.Usage.InputTokens).
		Int("output_tokens", result.Usage.OutputTokens).
		Msg("upstream reply complete")
	return result, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		return fmt.Errorf("upstream %d: %s", resp.StatusCode, ae.Error.Message)
	}
	return fmt.Errorf("upstream returned status %d", resp.StatusCode)
}
