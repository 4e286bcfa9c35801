// Package predict provides the client for the AgroShield classification
// endpoint. The endpoint is an external collaborator of the localization
// subsystem: a prediction result carries the disease identifier the
// description resolver then localizes.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Result is a successful classification outcome.
type Result struct {
	Prediction        string `json:"prediction"`
	DiseaseID         string `json:"disease_id"`
	Suggestion        string `json:"suggestion"`
	OrganicSuggestion string `json:"organic_suggestion"`
}

// Client is the interface for the classification backend.
type Client interface {
	Predict(ctx context.Context, image io.Reader, filename string) (*Result, error)
}

// PredictError indicates a classification failure with a human-readable
// message suitable for display.
type PredictError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *PredictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("predict error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("predict error: %s", e.Message)
}

func (e *PredictError) Unwrap() error {
	return e.Cause
}

// retryable reports whether the failure is worth retrying: server-side
// errors and transport failures are, rejected uploads are not.
func (e *PredictError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 0
}

// HTTPClient talks to the classification endpoint over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// HTTPClientOption is a functional option for configuring the HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) {
		h.client = c
	}
}

// NewHTTPClient creates a client for the classification endpoint at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// predictResponse is the wire shape of the /predict endpoint, success and
// failure alike.
type predictResponse struct {
	Success           bool   `json:"success"`
	Prediction        string `json:"prediction"`
	DiseaseID         string `json:"disease_id"`
	Suggestion        string `json:"suggestion"`
	OrganicSuggestion string `json:"organic_suggestion"`
	Error             string `json:"error"`
}

// Predict uploads an image and returns the classification result.
func (h *HTTPClient) Predict(ctx context.Context, image io.Reader, filename string) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &PredictError{Message: "building upload", Cause: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, &PredictError{Message: "reading image", Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &PredictError{Message: "building upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/predict", &buf)
	if err != nil {
		return nil, &PredictError{Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &PredictError{Message: "could not reach the classification API", Cause: err}
	}
	defer resp.Body.Close()

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &PredictError{
			Message:    "unreadable response from the classification API",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !decoded.Success {
		message := decoded.Error
		if message == "" {
			message = "prediction failed with unknown server error"
		}
		return nil, &PredictError{Message: message, StatusCode: resp.StatusCode}
	}

	return &Result{
		Prediction:        decoded.Prediction,
		DiseaseID:         decoded.DiseaseID,
		Suggestion:        decoded.Suggestion,
		OrganicSuggestion: decoded.OrganicSuggestion,
	}, nil
}

// Verify HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
