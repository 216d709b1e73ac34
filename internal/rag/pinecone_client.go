package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Match is one scored vector hit with its source text in metadata.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type indexStatsResponse struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// PineconeClient talks to a single Pinecone serverless index over its REST
// data plane.
type PineconeClient struct {
	host       string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewPineconeClient creates a client for the index reachable at host
// (e.g. "https://carely-abc123.svc.us-east-1.pinecone.io").
func NewPineconeClient(host, apiKey string, logger *logging.Logger) *PineconeClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &PineconeClient{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Query returns the topK nearest matches for the embedding vector.
func (c *PineconeClient) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Match, error) {
	var out queryResponse
	err := c.do(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// Healthy reports whether the index answers a stats call.
func (c *PineconeClient) Healthy(ctx context.Context) error {
	var out indexStatsResponse
	return c.do(ctx, "/describe_index_stats", struct{}{}, &out)
}

func (c *PineconeClient) do(ctx context.Context, path string, in, out interface{}) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return fmt.Errorf("pinecone: missing api key")
	}
	if strings.TrimSpace(c.host) == "" {
		return fmt.Errorf("pinecone: missing index host")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("pinecone: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pinecone: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pinecone: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("pinecone: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("pinecone: unmarshal response: %w", err)
	}
	return nil
}
