// Package scoring calls the external carbon prediction model service.
// The model's numeric output is opaque to this process: it is persisted
// as returned, never recomputed or adjusted locally.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carbontrace/apiserver/config"
)

// ErrUnavailable is returned when the model service cannot be reached or
// answers with anything other than a decodable scoring response. Callers
// must not persist partial results; the operation is safe to retry.
var ErrUnavailable = errors.New("prediction service unavailable")

// DefaultModelVersion is applied when the model service omits a version
// tag from its response.
const DefaultModelVersion = "1.0.0"

// Result is the scored response from the model service.
type Result struct {
	Prediction   float64  `json:"prediction"`
	Confidence   *float64 `json:"confidence"`
	ModelVersion string   `json:"model_version"`
}

// Scorer produces a prediction for a serialized input payload.
type Scorer interface {
	Score(ctx context.Context, inputData json.RawMessage, predictionType string) (Result, error)
}

// Client is an HTTP Scorer for the model service's JSON contract.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient constructs a scoring client from config.
func NewClient(cfg config.ScoringConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type scoreRequest struct {
	InputData      json.RawMessage `json:"input_data"`
	PredictionType string          `json:"prediction_type"`
}

// Score posts the payload to the model service and decodes the scalar
// response. Transport failures, non-2xx statuses and undecodable bodies
// all collapse into ErrUnavailable.
func (c *Client) Score(ctx context.Context, inputData json.RawMessage, predictionType string) (Result, error) {
	body, err := json.Marshal(scoreRequest{
		InputData:      inputData,
		PredictionType: predictionType,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: model service returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if result.ModelVersion == "" {
		result.ModelVersion = DefaultModelVersion
	}
	return result, nil
}
