// Package wavio reads and writes the WAV files the calibration and
// render commands exchange with the outside world: captured loopback
// recordings in, generated stimuli and rendered tracks out.
package wavio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// pcmBitDepth is the output encoding depth.
	pcmBitDepth = 16

	// pcmFormat is the WAV audio format tag for linear PCM.
	pcmFormat = 1

	// maxInt16 scales between float samples and 16-bit PCM.
	maxInt16 = 32767.0

	monoChannels   = 1
	stereoChannels = 2
)

// ErrInvalidWAV indicates a file that could not be decoded as WAV.
var ErrInvalidWAV = errors.New("invalid wav file")

// ReadMono decodes a WAV file to float64 samples in [-1, 1] and returns
// its sample rate. Multi-channel files are reduced to their first
// channel; calibration captures are mono by contract.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: %s has no samples", ErrInvalidWAV, path)
	}

	channels := buf.Format.NumChannels
	if channels < monoChannels {
		return nil, 0, fmt.Errorf("%w: %s reports %d channels", ErrInvalidWAV, path, channels)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = pcmBitDepth
	}
	scale := float64(int(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := range frames {
		out[i] = float64(buf.Data[i*channels]) / scale
	}
	return out, buf.Format.SampleRate, nil
}

// WriteMono encodes float64 samples in [-1, 1] as 16-bit mono PCM.
func WriteMono(path string, samples []float64, sampleRate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = quantize(v)
	}
	return writePCM(path, data, sampleRate, monoChannels)
}

// WriteStereo encodes interleaved float32 samples as 16-bit stereo PCM.
func WriteStereo(path string, interleaved []float32, sampleRate int) error {
	if len(interleaved)%stereoChannels != 0 {
		return fmt.Errorf("%w: odd interleaved sample count %d", ErrInvalidWAV, len(interleaved))
	}
	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		data[i] = quantize(float64(v))
	}
	return writePCM(path, data, sampleRate, stereoChannels)
}

func writePCM(path string, data []int, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, pcmBitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("wavio: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("wavio: finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wavio: close %s: %w", path, err)
	}
	return nil
}

// quantize clips v to [-1, 1] and scales to 16-bit.
func quantize(v float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(v * maxInt16)
}
