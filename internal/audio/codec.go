// Package audio converts between float sample blocks and the transport wire
// form (16-bit little-endian PCM, base64 encoded) and decodes inbound agent
// speech into playable buffers.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/echodiary/echodiary/domain/entities"
)

// Buffer is one decoded, playable block of audio. Never mutated after decode.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the playback length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return float64(frames) / float64(b.SampleRate)
}

// EncodePCM converts float samples to raw 16-bit little-endian PCM. Samples
// are clamped to [-1, 1] and scaled by 32767 with rounding to nearest (not
// 32768, so +1.0 cannot overflow int16).
func EncodePCM(samples []float32) []byte {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	return raw
}

// EncodeFrame converts one block of float samples to the transport payload:
// 16-bit little-endian PCM, base64 encoded.
func EncodeFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM(samples))
}

// DecodeBase64 reverses the transport text encoding.
func DecodeBase64(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", entities.ErrCodec, err)
	}
	return raw, nil
}

// DecodePCM converts raw 16-bit little-endian PCM to a playable buffer,
// resampling from srcRate to dstRate with linear interpolation when the rates
// differ. Fails when the payload is not a whole number of samples.
func DecodePCM(raw []byte, srcRate, dstRate, channels int) (*Buffer, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a multiple of the sample width", entities.ErrCodec, len(raw))
	}
	if srcRate <= 0 || dstRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: invalid rate or channel count", entities.ErrCodec)
	}

	// Divide by the same 32767 scale used on encode so a round trip is
	// exact to within one quantization unit.
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32767.0
	}

	if srcRate != dstRate {
		samples = resampleChannels(samples, srcRate, dstRate, channels)
	}

	return &Buffer{Samples: samples, SampleRate: dstRate, Channels: channels}, nil
}

// resampleChannels resamples interleaved audio one channel at a time so that
// interpolation never mixes neighboring channels.
func resampleChannels(samples []float32, srcRate, dstRate, channels int) []float32 {
	if channels <= 1 {
		return resample(samples, srcRate, dstRate)
	}
	frames := len(samples) / channels
	resampled := make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		mono := make([]float32, frames)
		for f := 0; f < frames; f++ {
			mono[f] = samples[f*channels+ch]
		}
		resampled[ch] = resample(mono, srcRate, dstRate)
	}
	outFrames := len(resampled[0])
	out := make([]float32, outFrames*channels)
	for f := 0; f < outFrames; f++ {
		for ch := 0; ch < channels; ch++ {
			out[f*channels+ch] = resampled[ch][f]
		}
	}
	return out
}

// resample performs linear interpolation between neighboring samples of a
// single channel. Good enough for speech; gross rate mismatches are not
// expected on this path.
func resample(samples []float32, srcRate, dstRate int) []float32 {
	if len(samples) == 0 {
		return samples
	}
	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	if outLen <= 0 {
		return nil
	}
	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}
