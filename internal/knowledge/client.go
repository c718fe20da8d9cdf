package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable wraps every retrieval failure: transport, status, decoding or
// a missing endpoint.
var ErrUnavailable = errors.New("retrieval unavailable")

// Retriever returns up to k policy snippets relevant to question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]string, error)
}

// HTTPRetriever talks to a policy search service:
// POST {base}/search {"query": ..., "k": ...} -> {"snippets": [...]}.
type HTTPRetriever struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

func NewHTTPRetriever(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *HTTPRetriever {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRetriever{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPRetriever) Retrieve(ctx context.Context, question string, k int) ([]string, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: no retrieval url configured", ErrUnavailable)
	}

	b, err := json.Marshal(map[string]any{
		"query": question,
		"k":     k,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: search api error: %s body=%s", ErrUnavailable, resp.Status, respBody)
	}

	var out struct {
		Snippets []string `json:"snippets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	snippets := out.Snippets[:0]
	for _, s := range out.Snippets {
		if s = strings.TrimSpace(s); s != "" {
			snippets = append(snippets, s)
		}
	}
	if k > 0 && len(snippets) > k {
		snippets = snippets[:k]
	}

	c.log.Debug("snippets retrieved", zap.Int("count", len(snippets)))
	return snippets, nil
}
