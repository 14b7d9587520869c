package gen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"mapforge/internal/config"
	"mapforge/internal/render"
)

// Client is the HTTP implementation of Generator. It is single-flight:
// a second Generate while one is pending fails fast with ErrInFlight
// instead of racing contexts.
type Client struct {
	endpoint string
	model    string
	httpc    *http.Client
	inflight atomic.Bool
}

// NewClient builds a client from the generator configuration.
func NewClient(cfg config.GeneratorConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		httpc:    &http.Client{Timeout: cfg.Timeout.Std()},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	// Image is the base64-encoded PNG context canvas, if any.
	Image string `json:"image,omitempty"`
}

type generateResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string, contextImg image.Image) (image.Image, error) {
	if !c.inflight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer c.inflight.Store(false)

	req := generateRequest{Model: c.model, Prompt: prompt}
	if contextImg != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, contextImg); err != nil {
			return nil, fmt.Errorf("failed to encode context image: %w", err)
		}
		req.Image = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	slog.Info("gen: dispatching request", "endpoint", c.endpoint, "model", c.model,
		"has_context", contextImg != nil)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request failed: %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("generation failed: %s", out.Error)
	}
	if out.Image == "" {
		return nil, ErrNoImagePayload
	}

	raw, err := base64.StdEncoding.DecodeString(out.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	img, err := render.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImagePayload, err)
	}

	slog.Info("gen: request complete", "elapsed", time.Since(start),
		"size", img.Bounds().Size())
	return img, nil
}
