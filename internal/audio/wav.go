// Package audio converts captured and uploaded audio into the WAV container
// the prediction backend expects.
package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	DefaultSampleRate = 16000
	bitsPerSample     = 16
	wavHeaderSize     = 44
)

var errShortHeader = errors.New("audio: wav header too short")

// Format describes interleaved PCM16LE samples.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) withDefaults() Format {
	if f.SampleRate <= 0 {
		f.SampleRate = DefaultSampleRate
	}
	if f.Channels <= 0 {
		f.Channels = 1
	}
	return f
}

// Duration returns the playback length of pcm in this format.
func (f Format) Duration(pcmBytes int) time.Duration {
	f = f.withDefaults()
	bytesPerSecond := f.SampleRate * f.Channels * bitsPerSample / 8
	return time.Duration(pcmBytes) * time.Second / time.Duration(bytesPerSecond)
}

// EncodeWAV wraps raw PCM16LE bytes in a WAV container.
func EncodeWAV(pcm []byte, format Format) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))
	if err := WriteWAV(&buf, pcm, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAV writes raw PCM16LE bytes to out as a WAV stream.
func WriteWAV(out io.Writer, pcm []byte, format Format) error {
	const audioFormat = 1 // PCM
	format = format.withDefaults()

	dataSize := uint32(len(pcm))
	byteRate := uint32(format.SampleRate * format.Channels * bitsPerSample / 8)
	blockAlign := uint16(format.Channels * bitsPerSample / 8)

	w := bufio.NewWriter(out)

	// RIFF header.
	if _, err := w.WriteString("RIFF"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36)+dataSize); err != nil {
		return err
	}
	if _, err := w.WriteString("WAVE"); err != nil {
		return err
	}

	// fmt chunk.
	if _, err := w.WriteString("fmt "); err != nil {
		return err
	}
	fields := []any{
		uint32(16),
		uint16(audioFormat),
		uint16(format.Channels),
		uint32(format.SampleRate),
		byteRate,
		blockAlign,
		uint16(bitsPerSample),
	}
	for _, v := range fields {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	// data chunk.
	if _, err := w.WriteString("data"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}

// IsWAV sniffs the RIFF/WAVE magic.
func IsWAV(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

// ReadFormat parses the fmt chunk of a canonical 44-byte-header WAV.
func ReadFormat(b []byte) (Format, error) {
	if len(b) < wavHeaderSize || !IsWAV(b) {
		return Format{}, errShortHeader
	}
	return Format{
		Channels:   int(binary.LittleEndian.Uint16(b[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(b[24:28])),
	}, nil
}

// WAVDuration estimates the length of a canonical WAV payload. It returns
// zero when the header cannot be read.
func WAVDuration(b []byte) time.Duration {
	f, err := ReadFormat(b)
	if err != nil || f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	return f.Duration(len(b) - wavHeaderSize)
}
