package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

func TestClient_Upload(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		want         domain.PredictionResult
		wantErr      error
	}{
		{
			name:         "Success",
			status:       http.StatusOK,
			responseBody: `{"model1":"happiness","model2":"neutral","majority":"happiness"}`,
			want:         domain.PredictionResult{"model1": "happiness", "model2": "neutral", "majority": "happiness"},
		},
		{
			name:         "Backend reports extraction failure",
			status:       http.StatusOK,
			responseBody: `{"error":"Feature extraction failed"}`,
			want:         domain.PredictionResult{"error": "Feature extraction failed"},
		},
		{
			name:         "Non-string values are ignored",
			status:       http.StatusOK,
			responseBody: `{"model1":"anger","confidence":0.9,"majority":"anger"}`,
			want:         domain.PredictionResult{"model1": "anger", "majority": "anger"},
		},
		{
			name:         "Server error",
			status:       http.StatusInternalServerError,
			responseBody: `{"detail":"boom"}`,
			wantErr:      domain.ErrUploadRejected,
		},
		{
			name:         "Unprocessable entity",
			status:       http.StatusUnprocessableEntity,
			responseBody: `{}`,
			wantErr:      domain.ErrUploadRejected,
		},
		{
			name:         "Not JSON",
			status:       http.StatusOK,
			responseBody: `<html>oops</html>`,
			wantErr:      domain.ErrMalformedResponse,
		},
		{
			name:         "JSON array",
			status:       http.StatusOK,
			responseBody: `["happiness"]`,
			wantErr:      domain.ErrMalformedResponse,
		},
		{
			name:         "JSON null",
			status:       http.StatusOK,
			responseBody: `null`,
			wantErr:      domain.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotField    string
				gotFilename string
				gotType     string
				gotData     []byte
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/predict" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if r.Method != http.MethodPost {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				mr, err := r.MultipartReader()
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				part, err := mr.NextPart()
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				gotField = part.FormName()
				gotFilename = part.FileName()
				gotType = part.Header.Get("Content-Type")
				gotData, _ = io.ReadAll(part)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			client := NewClient(srv.Client(), srv.URL+"/")
			artifact := domain.AudioArtifact{Data: []byte("RIFF....WAVE"), MIMEType: domain.MIMETypeWAV}
			got, err := client.Upload(context.Background(), artifact)

			if gotField != "file" || gotFilename != "audio.wav" {
				t.Fatalf("multipart part: got field %q filename %q", gotField, gotFilename)
			}
			if gotType != "audio/wav" {
				t.Fatalf("part content type: got %q", gotType)
			}
			if string(gotData) != "RIFF....WAVE" {
				t.Fatalf("part data: got %q", gotData)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("result: got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Fatalf("result[%q]: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestClient_UploadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(nil, url)
	_, err := client.Upload(context.Background(), domain.AudioArtifact{Data: []byte("x")})
	if !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("expected ErrUploadRejected, got %v", err)
	}
}
