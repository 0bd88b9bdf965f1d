package server

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"devwish/internal/client"
)

const (
	chatVisionModel    = "moonshot-v1-8k-vision-preview"
	chatHistoryLimit   = 10
	chatMaxRequestSize = 10 << 20 // base64 screenshots get large
)

const chatSystemPrompt = `You are DevWish's assistant, helping developers reason about their ` +
	`GitHub activity, their wishlist goals, and the price alerts they receive. ` +
	`Be concise and practical. When the user sends a screenshot, describe what ` +
	`matters in it before answering.`

func (s Server) chatSendHandler() http.HandlerFunc {
	type historyEntry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type request struct {
		Message string         `json:"message"`
		Image   string         `json:"image"`
		History []historyEntry `json:"history"`
	}
	type response struct {
		Reply string `json:"reply"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		var req request
		if err := decodeJsonBody(w, r, &req, chatMaxRequestSize); err != nil {
			s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" && req.Image == "" {
			s.writeError(w, r, "A message or an image is required", http.StatusUnprocessableEntity)
			return
		}

		messages := []client.ChatMessage{{Role: "system", Content: chatSystemPrompt}}
		history := req.History
		if len(history) > chatHistoryLimit {
			history = history[len(history)-chatHistoryLimit:]
		}
		for _, h := range history {
			if (h.Role != "user" && h.Role != "assistant") || h.Content == "" {
				continue
			}
			messages = append(messages, client.ChatMessage{Role: h.Role, Content: h.Content})
		}

		model := s.Client.LLMModel
		if req.Image != "" {
			model = chatVisionModel
			imageURL := req.Image
			if !strings.HasPrefix(imageURL, "data:") && !strings.HasPrefix(imageURL, "http") {
				imageURL = "data:image/png;base64," + imageURL
			}
			parts := []client.ChatContentPart{
				{Type: "image_url", ImageURL: &client.ChatImageURL{URL: imageURL}},
			}
			if req.Message != "" {
				parts = append(parts, client.ChatContentPart{Type: "text", Text: req.Message})
			}
			messages = append(messages, client.ChatMessage{Role: "user", Content: parts})
		} else {
			messages = append(messages, client.ChatMessage{Role: "user", Content: req.Message})
		}

		reply, err := s.Client.LLMChatCompletion(client.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			Temperature: 0.7,
		})
		if err != nil {
			if errors.Is(err, client.ErrLLMNotConfigured) {
				s.writeError(w, r, "Chat service is not configured", http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("%s: chat: err: %+v", tc, err)
			s.writeError(w, r, "Error reaching the chat model", http.StatusBadGateway)
			return
		}
		s.writeJsonResponse(w, r, response{Reply: reply}, http.StatusOK)
	}
}
