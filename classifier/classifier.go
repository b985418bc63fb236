package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Analysis is the result of the external AI image analysis. IsValid=false
// means the image could not be classified; the report is still accepted.
type Analysis struct {
	IsValid          bool     `json:"isValid"`
	DetectedCategory string   `json:"detectedCategory"`
	Confidence       float64  `json:"confidence"`
	Tags             []string `json:"tags"`
}

// ImageClassifier is the contract for the external AI collaborator. Calls are
// best-effort: a timeout or error degrades severity classification to its
// deterministic default, it never blocks a submission.
type ImageClassifier interface {
	Classify(ctx context.Context, imageURL string) (*Analysis, error)
}

// HTTPClassifier calls a classification endpoint with a bounded timeout.
type HTTPClassifier struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClassifier) Classify(ctx context.Context, imageURL string) (*Analysis, error) {
	body, err := json.Marshal(map[string]string{"imageUrl": imageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var analysis Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
