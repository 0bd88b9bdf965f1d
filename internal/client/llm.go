package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"devwish/internal/misc"
)

var ErrLLM = errors.New("LLM error")
var ErrLLMNotConfigured = errors.New("LLM API key is not configured")

type ChatMessage struct {
	Role string `json:"role"`
	// Content is a string for plain messages and a part list for messages
	// carrying an image.
	Content any `json:"content"`
}

type ChatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ChatImageURL `json:"image_url,omitempty"`
}

type ChatImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	// Set Type to "json_object" to force a JSON response.
	ResponseFormat *ChatResponseFormat `json:"response_format,omitempty"`
}

type ChatResponseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c Client) LLMChatCompletion(chatReq ChatCompletionRequest) (string, error) {
	if c.LLMAPIKey == "" {
		return "", ErrLLMNotConfigured
	}
	if chatReq.Model == "" {
		chatReq.Model = c.LLMModel
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", errors.Wrapf(err, "LLMChatCompletion: ChatCompletionRequest JSON marshalling error, req: %+v", chatReq)
	}

	apiURL := strings.TrimSuffix(c.LLMBaseURL, "/") + "/chat/completions"
	req, err := newRequest(http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", errors.Wrapf(err, "LLMChatCompletion: error creating HTTP request to apiURL: %s", apiURL)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.LLMAPIKey)

	httpClient := c.LLMClient
	if httpClient == nil {
		httpClient = c.Client
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrLLM, "error doing request to apiURL: %s, err: %v", apiURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("LLMChatCompletion: Error closing response body, apiURL: %s, err: %v", apiURL, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 3*1024*1024))
	if err != nil {
		return "", errors.Wrapf(err, "error reading ChatCompletionAPI response body, apiURL: %s", apiURL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrLLM, "error getting data from ChatCompletionAPI, status: %s, body:\n%s",
			resp.Status, misc.BytesLimit(body, 2000))
	}

	chatResp := chatCompletionResponse{}
	if err = json.Unmarshal(body, &chatResp); err != nil {
		return "", errors.Wrapf(err, "error unmarshalling ChatCompletionAPI response body, body:\n%s",
			misc.BytesLimit(body, 2000))
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.Wrapf(ErrLLM, "ChatCompletionAPI response has no choices, body:\n%s", misc.BytesLimit(body, 2000))
	}
	return chatResp.Choices[0].Message.Content, nil
}

var llmCodeFenceRe = regexp.MustCompile("(?m)^```(?:json)?\\s*|\\s*```$")
var llmControlCharRe = regexp.MustCompile(`[\x00-\x1f]`)

// CleanLLMJSON strips markdown code fences and raw control characters that
// models sometimes leave in a supposedly-JSON reply.
func CleanLLMJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = llmCodeFenceRe.ReplaceAllString(content, "")
	}
	return llmControlCharRe.ReplaceAllString(content, "")
}
