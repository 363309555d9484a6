package audio

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"

	"github.com/echodiary/echodiary/domain/entities"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
	}{
		{"silence", []float32{0, 0, 0, 0}},
		{"ramp", []float32{-1, -0.5, 0, 0.5, 1}},
		{"sine-ish", []float32{0.1, 0.7, -0.3, 0.99, -0.99, 0.25}},
		{"out of range clamped", []float32{1.5, -2.0, 1.0, -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := EncodeFrame(tt.samples)
			raw, err := DecodeBase64(payload)
			if err != nil {
				t.Fatalf("DecodeBase64() error = %v", err)
			}
			buf, err := DecodePCM(raw, 16000, 16000, 1)
			if err != nil {
				t.Fatalf("DecodePCM() error = %v", err)
			}
			if len(buf.Samples) != len(tt.samples) {
				t.Fatalf("got %d samples, want %d", len(buf.Samples), len(tt.samples))
			}
			for i, want := range tt.samples {
				if want > 1 {
					want = 1
				} else if want < -1 {
					want = -1
				}
				got := buf.Samples[i]
				// One unit of 16-bit quantization error per sample.
				if math.Abs(float64(got-want)) > 1.0/32767.0 {
					t.Errorf("sample %d: got %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestEncodePCMRoundsToNearest(t *testing.T) {
	// 0.7*32767 = 22936.9; truncation would store 22937-1 and reintroduce
	// a full quantization step of drift on every pass through the codec.
	raw := EncodePCM([]float32{0.7, -0.7})
	pos := int16(raw[0]) | int16(raw[1])<<8
	neg := int16(raw[2]) | int16(raw[3])<<8
	if pos != 22937 {
		t.Errorf("0.7 encoded as %d, want 22937", pos)
	}
	if neg != -22937 {
		t.Errorf("-0.7 encoded as %d, want -22937", neg)
	}
}

func TestEncodeFrameFullScaleDoesNotOverflow(t *testing.T) {
	payload := EncodeFrame([]float32{1.0, -1.0})
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	pos := int16(raw[0]) | int16(raw[1])<<8
	neg := int16(raw[2]) | int16(raw[3])<<8
	if pos != 32767 {
		t.Errorf("+1.0 encoded as %d, want 32767", pos)
	}
	if neg != -32767 {
		t.Errorf("-1.0 encoded as %d, want -32767", neg)
	}
}

func TestDecodePCMOddLength(t *testing.T) {
	_, err := DecodePCM([]byte{0x01, 0x02, 0x03}, 24000, 24000, 1)
	if !errors.Is(err, entities.ErrCodec) {
		t.Fatalf("DecodePCM() error = %v, want ErrCodec", err)
	}
}

func TestDecodeBase64Invalid(t *testing.T) {
	_, err := DecodeBase64("not***base64")
	if !errors.Is(err, entities.ErrCodec) {
		t.Fatalf("DecodeBase64() error = %v, want ErrCodec", err)
	}
}

func TestDecodePCMResample(t *testing.T) {
	// 10 samples at 24000 -> 20 samples at 48000.
	raw := make([]byte, 20)
	buf, err := DecodePCM(raw, 24000, 48000, 1)
	if err != nil {
		t.Fatalf("DecodePCM() error = %v", err)
	}
	if len(buf.Samples) != 20 {
		t.Errorf("got %d samples after upsampling, want 20", len(buf.Samples))
	}
	if buf.SampleRate != 48000 {
		t.Errorf("got sample rate %d, want 48000", buf.SampleRate)
	}
}

func TestDecodePCMResampleStereoKeepsChannelsSeparate(t *testing.T) {
	// Steady left at +0.5 and right at -0.5; interpolating across the
	// interleaved stream instead of per channel would blend them toward 0.
	interleaved := make([]float32, 40)
	for f := 0; f < 20; f++ {
		interleaved[f*2] = 0.5
		interleaved[f*2+1] = -0.5
	}
	buf, err := DecodePCM(EncodePCM(interleaved), 24000, 48000, 2)
	if err != nil {
		t.Fatalf("DecodePCM() error = %v", err)
	}
	if len(buf.Samples)%2 != 0 {
		t.Fatalf("got %d samples, want an even interleaved count", len(buf.Samples))
	}
	for f := 0; f < len(buf.Samples)/2; f++ {
		left, right := buf.Samples[f*2], buf.Samples[f*2+1]
		if math.Abs(float64(left-0.5)) > 1.0/32767.0 {
			t.Fatalf("frame %d left = %v, want 0.5", f, left)
		}
		if math.Abs(float64(right+0.5)) > 1.0/32767.0 {
			t.Fatalf("frame %d right = %v, want -0.5", f, right)
		}
	}
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{Samples: make([]float32, 24000), SampleRate: 24000, Channels: 1}
	if d := buf.Duration(); d != 1.0 {
		t.Errorf("Duration() = %v, want 1.0", d)
	}
	var nilBuf *Buffer
	if d := nilBuf.Duration(); d != 0 {
		t.Errorf("nil Duration() = %v, want 0", d)
	}
}
