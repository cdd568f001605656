package rest

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ewilliams-labs/moodmelody/internal/audio"
	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// Upload handles POST /v1/upload with a multipart "file" field. WAV files are
// forwarded as-is; MP3 files are transcoded to WAV first.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorWithCode(w, http.StatusRequestEntityTooLarge, "audio file too large", errCodeBadInput)
			return
		}
		writeErrorWithCode(w, http.StatusBadRequest, "multipart field \"file\" is required", errCodeBadInput)
		return
	}
	defer file.Close()

	artifact, err := readArtifact(file, header.Filename)
	if err != nil {
		log.Printf("WARN rest: rejecting upload %q: %v", header.Filename, err)
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, err.Error(), errCodeUnsupportedAudio)
		return
	}

	if err := h.svc.SelectFile(artifact); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
}

var errUnsupportedAudio = errors.New("only .wav and .mp3 files are supported")

func readArtifact(r io.Reader, filename string) (domain.AudioArtifact, error) {
	artifact := domain.AudioArtifact{
		MIMEType: domain.MIMETypeWAV,
		Source:   domain.SourceFile,
		Filename: filename,
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		data, err := io.ReadAll(r)
		if err != nil {
			return domain.AudioArtifact{}, err
		}
		if len(data) > 0 && !audio.IsWAV(data) {
			return domain.AudioArtifact{}, errors.New("file is not a RIFF/WAVE stream")
		}
		artifact.Data = data
	case ".mp3":
		data, err := io.ReadAll(r)
		if err != nil {
			return domain.AudioArtifact{}, err
		}
		if len(data) > 0 {
			wav, _, err := audio.TranscodeMP3ToWAV(bytes.NewReader(data))
			if err != nil {
				return domain.AudioArtifact{}, err
			}
			artifact.Data = wav
		}
	default:
		return domain.AudioArtifact{}, errUnsupportedAudio
	}

	artifact.Duration = audio.WAVDuration(artifact.Data)
	return artifact, nil
}
