package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPEngine talks to the recognition sidecar over HTTP.  The sidecar
// exposes two endpoints taking the raw image body: /v1/qr returns the
// decoded QR payload, /v1/score returns the OCR text and confidence for
// the score field.  It implements both QRDecoder and OCRExtractor.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEngine returns an engine client for the given base URL.
func NewHTTPEngine(baseURL string) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type qrResponse struct {
	Payload string `json:"payload"`
}

type scoreResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Decode implements QRDecoder.
func (e *HTTPEngine) Decode(ctx context.Context, image []byte) (string, error) {
	var out qrResponse
	if err := e.post(ctx, "/v1/qr", image, &out); err != nil {
		return "", err
	}
	if out.Payload == "" {
		return "", fmt.Errorf("no qr code found in image")
	}
	return out.Payload, nil
}

// Extract implements OCRExtractor.
func (e *HTTPEngine) Extract(ctx context.Context, image []byte) (OCRResult, error) {
	var out scoreResponse
	if err := e.post(ctx, "/v1/score", image, &out); err != nil {
		return OCRResult{}, err
	}
	return OCRResult{Text: out.Text, Confidence: out.Confidence}, nil
}

func (e *HTTPEngine) post(ctx context.Context, path string, image []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(image))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("recognition engine: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recognition engine: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("recognition engine: decode response: %w", err)
	}
	return nil
}
