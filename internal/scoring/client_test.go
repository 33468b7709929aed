package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carbontrace/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(config.ScoringConfig{URL: url, TimeoutSeconds: 2})
}

func TestScoreDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			InputData      json.RawMessage `json:"input_data"`
			PredictionType string          `json:"prediction_type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "scope1", req.PredictionType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction": 321.5, "confidence": 0.87, "model_version": "3.0.1"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Score(context.Background(), json.RawMessage(`{"monthly_kwh":400}`), "scope1")
	require.NoError(t, err)

	assert.InDelta(t, 321.5, result.Prediction, 1e-9)
	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.87, *result.Confidence, 1e-9)
	assert.Equal(t, "3.0.1", result.ModelVersion)
}

func TestScoreDefaultsModelVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prediction": 10}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Score(context.Background(), json.RawMessage(`{}`), "total")
	require.NoError(t, err)

	assert.Equal(t, DefaultModelVersion, result.ModelVersion)
	assert.Nil(t, result.Confidence)
}

func TestScoreErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Score(context.Background(), json.RawMessage(`{}`), "total")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestScoreUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Score(context.Background(), json.RawMessage(`{}`), "total")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestScoreTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Score(context.Background(), json.RawMessage(`{}`), "total")
	assert.ErrorIs(t, err, ErrUnavailable)
}
