package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medilink/medilink/internal/platform/apperr"
)

// HTTPClassifier calls a remote inference service that hosts the domain,
// condition, and symptom models. It implements both classifier interfaces.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type imageRequest struct {
	Image       string `json:"image"` // base64
	ContentType string `json:"content_type"`
}

type symptomRequest struct {
	Vector []int `json:"vector"`
	TopK   int   `json:"top_k"`
}

type symptomResponse struct {
	Predictions []RankedPrediction `json:"predictions"`
}

func (c *HTTPClassifier) ClassifyImage(ctx context.Context, data []byte, contentType string) (*ImagePrediction, error) {
	req := imageRequest{
		Image:       base64.StdEncoding.EncodeToString(data),
		ContentType: contentType,
	}
	var out ImagePrediction
	if err := c.post(ctx, "/v1/classify/image", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClassifier) ClassifySymptoms(ctx context.Context, vector []int) ([]RankedPrediction, error) {
	req := symptomRequest{Vector: vector, TopK: TopK}
	var out symptomResponse
	if err := c.post(ctx, "/v1/classify/symptoms", req, &out); err != nil {
		return nil, err
	}
	if len(out.Predictions) != TopK {
		return nil, apperr.Newf(apperr.KindUnavailable, "classifier returned %d predictions, want %d", len(out.Predictions), TopK)
	}
	return out.Predictions, nil
}

func (c *HTTPClassifier) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.Unavailable("classifier unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.Newf(apperr.KindUnavailable, "classifier returned status %d: %s", resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Unavailable("decode classifier response", err)
	}
	return nil
}
