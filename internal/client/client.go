package client

import (
	"io"
	"net/http"

	"github.com/go-redis/redis/v9"
)

type Client struct {
	*http.Client
	// LLMClient is used for chat-completion calls, which need a far longer
	// timeout than the regular API calls. Falls back to Client when nil.
	LLMClient *http.Client

	Redis       *redis.Client
	GitHubToken string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string

	// Base URL overrides for tests. Empty means the real endpoint.
	SteamAPIURL  string
	GitHubAPIURL string

	Logger logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

func newRequest(method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	setDefaultRequestHeader(r)
	return r, nil
}

func setDefaultRequestHeader(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept", "application/json")
}
