package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Wire types for the model runtime's batch endpoint.
type batchRequest struct {
	Requests []wireRequest `json:"requests"`
}

type wireRequest struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type batchResponse struct {
	Responses []wireResponse `json:"responses"`
}

type wireResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RemoteBackend forwards batches to an external model runtime speaking the
// /predict/batch protocol.
type RemoteBackend struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemote creates a backend for the runtime at baseURL.
func NewRemote(baseURL string, logger *slog.Logger) *RemoteBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteBackend{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// PredictBatch sends the whole batch in one HTTP call. Transport-level
// failures fail every item; runtime-reported per-item errors fail only their
// own entry.
func (r *RemoteBackend) PredictBatch(ctx context.Context, requests []Request) []Response {
	wire := batchRequest{Requests: make([]wireRequest, len(requests))}
	for i, req := range requests {
		wire.Requests[i] = wireRequest{ID: req.ID, Data: req.Data}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return errorResponses(requests, fmt.Errorf("failed to encode batch: %w", err))
	}

	url := r.baseURL + "/predict/batch"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errorResponses(requests, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return errorResponses(requests, fmt.Errorf("model runtime unreachable: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponses(requests, fmt.Errorf("failed to read runtime response: %w", err))
	}

	r.logger.Debug("model runtime responded",
		"batch_size", len(requests),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return errorResponses(requests,
			fmt.Errorf("model runtime returned status %d: %s", resp.StatusCode, respBody))
	}

	var decoded batchResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return errorResponses(requests, fmt.Errorf("failed to decode runtime response: %w", err))
	}

	responses := make([]Response, 0, len(decoded.Responses))
	for _, item := range decoded.Responses {
		out := Response{ID: item.ID, Result: item.Result}
		if item.Error != "" {
			out.Err = fmt.Errorf("%s", item.Error)
		}
		responses = append(responses, out)
	}
	return responses
}

// HealthCheck verifies the runtime is reachable and healthy.
func (r *RemoteBackend) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model runtime health check failed with status %d", resp.StatusCode)
	}
	return nil
}
