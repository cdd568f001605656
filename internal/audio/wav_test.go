package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestEncodeWAV(t *testing.T) {
	tests := []struct {
		name       string
		pcm        []byte
		format     Format
		wantRate   int
		wantChans  int
		wantLength int
	}{
		{
			name:       "defaults to 16kHz mono",
			pcm:        []byte{1, 2, 3, 4},
			format:     Format{},
			wantRate:   16000,
			wantChans:  1,
			wantLength: 44 + 4,
		},
		{
			name:       "stereo 44.1kHz",
			pcm:        make([]byte, 8),
			format:     Format{SampleRate: 44100, Channels: 2},
			wantRate:   44100,
			wantChans:  2,
			wantLength: 44 + 8,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeWAV(tc.pcm, tc.format)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if len(got) != tc.wantLength {
				t.Fatalf("length: got %d, want %d", len(got), tc.wantLength)
			}
			if !IsWAV(got) {
				t.Fatalf("expected RIFF/WAVE header")
			}
			format, err := ReadFormat(got)
			if err != nil {
				t.Fatalf("read format: %v", err)
			}
			if format.SampleRate != tc.wantRate || format.Channels != tc.wantChans {
				t.Fatalf("format: got %+v, want rate %d channels %d", format, tc.wantRate, tc.wantChans)
			}
			if size := binary.LittleEndian.Uint32(got[40:44]); int(size) != len(tc.pcm) {
				t.Fatalf("data size: got %d, want %d", size, len(tc.pcm))
			}
			if !bytes.Equal(got[44:], tc.pcm) {
				t.Fatalf("pcm payload mismatch")
			}
		})
	}
}

func TestFormat_Duration(t *testing.T) {
	f := Format{SampleRate: 16000, Channels: 1}
	if got := f.Duration(32000); got != time.Second {
		t.Fatalf("duration: got %v, want 1s", got)
	}
}

func TestReadFormat_RejectsGarbage(t *testing.T) {
	if _, err := ReadFormat([]byte("not a wav file at all, definitely not one")); !errors.Is(err, errShortHeader) {
		t.Fatalf("expected errShortHeader, got %v", err)
	}
}

func TestTranscodeMP3ToWAV_InvalidInput(t *testing.T) {
	if _, _, err := TranscodeMP3ToWAV(bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestWAVDuration(t *testing.T) {
	wav, err := EncodeWAV(make([]byte, 16000*2*3), Format{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := WAVDuration(wav); got != 3*time.Second {
		t.Fatalf("duration: got %s, want 3s", got)
	}
	if got := WAVDuration([]byte("not audio")); got != 0 {
		t.Fatalf("duration of garbage: got %s, want 0", got)
	}
}
