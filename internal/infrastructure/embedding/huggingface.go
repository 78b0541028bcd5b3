package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds the size of an embedding response body
const maxResponseBytes = 32 << 20

// HuggingFaceBackend calls a feature-extraction inference endpoint
type HuggingFaceBackend struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewHuggingFaceBackend creates a backend for baseURL/model
func NewHuggingFaceBackend(baseURL, model, apiKey string, timeout time.Duration) *HuggingFaceBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	endpoint := strings.TrimRight(baseURL, "/")
	if model != "" {
		endpoint += "/" + strings.TrimLeft(model, "/")
	}

	return &HuggingFaceBackend{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

type featureExtractionRequest struct {
	Inputs  []string                 `json:"inputs"`
	Options featureExtractionOptions `json:"options"`
}

type featureExtractionOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Embed posts the whole batch and normalizes whatever shape comes back
func (b *HuggingFaceBackend) Embed(ctx context.Context, batch []string) (Result, error) {
	body, err := json.Marshal(featureExtractionRequest{
		Inputs:  batch,
		Options: featureExtractionOptions{WaitForModel: true},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "OptiPrice/1.0")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	result := normalizeResponse(payload)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[EMBED] Feature extraction returned status %d", resp.StatusCode)
		if result.Kind != ResultProviderError {
			return providerError("status %d", resp.StatusCode), nil
		}
	}

	return result, nil
}
