package predict

import (
	"context"
	"io"
)

// MockClient is a mock classification client for testing.
type MockClient struct {
	Results      map[string]*Result // keyed by uploaded filename
	Default      *Result            // returned when the filename is unknown
	Err          error              // returned instead of any result when set
	CallCount    int                // number of times Predict was called
	LastFilename string             // filename of the last upload
}

// NewMockClient creates a mock client with a default healthy-tomato result.
func NewMockClient() *MockClient {
	return &MockClient{
		Results: map[string]*Result{
			"blight.jpg": {
				Prediction:        "Tomato Late Blight",
				DiseaseID:         "Tomato Late Blight",
				Suggestion:        "Apply copper-based fungicide.",
				OrganicSuggestion: "Neem oil spray, 5ml per litre of water.",
			},
		},
		Default: &Result{
			Prediction: "Healthy",
			DiseaseID:  "Healthy",
		},
	}
}

// Predict returns the configured result for the uploaded filename.
func (m *MockClient) Predict(ctx context.Context, image io.Reader, filename string) (*Result, error) {
	m.CallCount++
	m.LastFilename = filename

	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Results[filename]; ok {
		return r, nil
	}
	return m.Default, nil
}

// Reset resets the call count and last filename.
func (m *MockClient) Reset() {
	m.CallCount = 0
	m.LastFilename = ""
}

// Verify MockClient implements Client.
var _ Client = (*MockClient)(nil)
