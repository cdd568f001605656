package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// ErrNoSamples is returned when a decoded file contains no audio.
var ErrNoSamples = errors.New("audio: file contains no samples")

// mp3 decoder output is always 16-bit little-endian stereo.
const mp3Channels = 2

// TranscodeMP3ToWAV decodes an MP3 stream and re-encodes it as WAV so that
// selected .mp3 files take the same upload path as recordings.
func TranscodeMP3ToWAV(r io.Reader) ([]byte, Format, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, Format{}, fmt.Errorf("audio: mp3 decode failed: %w", err)
	}

	var pcm bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			pcm.Write(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, Format{}, fmt.Errorf("audio: mp3 read failed: %w", err)
		}
	}

	if pcm.Len() == 0 {
		return nil, Format{}, ErrNoSamples
	}

	format := Format{SampleRate: decoder.SampleRate(), Channels: mp3Channels}
	wav, err := EncodeWAV(pcm.Bytes(), format)
	if err != nil {
		return nil, Format{}, fmt.Errorf("audio: wav encode failed: %w", err)
	}
	return wav, format, nil
}
