// Package predict provides an adapter for the emotion prediction backend.
// It uploads an audio artifact as multipart form data and parses the
// model → label mapping returned by the service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:8000"
	formField      = "file"
	formFilename   = "audio.wav"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.Predictor = (*Client)(nil)

// NewClient constructs a prediction client. A nil httpClient uses
// http.DefaultClient, which applies no timeout.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Upload sends the artifact to POST /predict once and returns the parsed
// prediction. It never retries.
func (c *Client) Upload(ctx context.Context, artifact domain.AudioArtifact) (domain.PredictionResult, error) {
	body, contentType, err := encodeForm(artifact)
	if err != nil {
		return nil, fmt.Errorf("predict: encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrUploadRejected, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrMalformedResponse, err)
	}

	return parseResult(raw)
}

func encodeForm(artifact domain.AudioArtifact) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = domain.MIMETypeWAV
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, formFilename))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func parseResult(raw []byte) (domain.PredictionResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", domain.ErrMalformedResponse)
	}

	result := make(domain.PredictionResult, len(fields))
	for model, value := range fields {
		var label string
		if err := json.Unmarshal(value, &label); err != nil {
			log.Printf("DEBUG predict: ignoring non-string value for %q", model)
			continue
		}
		result[model] = label
	}
	return result, nil
}
