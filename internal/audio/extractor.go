// Package audio turns raw uploaded audio bytes into the fixed-length feature
// vectors the classifier compares. The transform is deterministic: the same
// bytes always produce the same vector.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrDecode marks input bytes that are not decodable audio.
	ErrDecode = errors.New("undecodable audio")
	// ErrExtract marks audio that decoded but cannot yield a feature vector.
	ErrExtract = errors.New("feature extraction failed")
)

// VectorSize is the length of every extracted feature vector and of every
// reference fingerprint.
const VectorSize = 26

const (
	frameSize = 2048
	hopSize   = 1024
)

// Extractor computes a VectorSize-dimensional spectral fingerprint: framed
// FFT, mel-spaced log band energies averaged over time, L2-normalized.
type Extractor struct {
	fft *fourier.FFT
}

func NewExtractor() *Extractor {
	return &Extractor{
		fft: fourier.NewFFT(frameSize),
	}
}

func (e *Extractor) Extract(data []byte) ([]float64, error) {
	samples, sampleRate, err := decodeWAV(data)
	if err != nil {
		return nil, err
	}

	if len(samples) < frameSize {
		return nil, fmt.Errorf("%w: audio shorter than one analysis frame", ErrExtract)
	}

	edges := bandEdges(sampleRate)

	sum := make([]float64, VectorSize)
	frame := make([]float64, frameSize)
	spectrum := make([]complex128, frameSize/2+1)

	frames := 0
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		copy(frame, samples[start:start+frameSize])
		window.Hann(frame)

		spectrum = e.fft.Coefficients(spectrum, frame)

		for band := 0; band < VectorSize; band++ {
			energy := 0.0
			for bin := edges[band]; bin < edges[band+1]; bin++ {
				re := real(spectrum[bin])
				im := imag(spectrum[bin])
				energy += re*re + im*im
			}
			sum[band] += math.Log1p(energy)
		}
		frames++
	}

	vec := make([]float64, VectorSize)
	for i := range sum {
		vec[i] = sum[i] / float64(frames)
	}

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}

	return vec, nil
}

// decodeWAV decodes WAV bytes to mono float64 samples in [-1, 1].
func decodeWAV(data []byte) ([]float64, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input", ErrDecode)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a valid WAV file", ErrDecode)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: no samples", ErrDecode)
	}

	return monoSamples(buf, int(decoder.BitDepth)), buf.Format.SampleRate, nil
}

// monoSamples averages channels and scales PCM integers to [-1, 1].
func monoSamples(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	n := len(buf.Data) / channels
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for ch := 0; ch < channels; ch++ {
			acc += float64(buf.Data[i*channels+ch])
		}
		samples[i] = acc / float64(channels) / scale
	}

	return samples
}

// bandEdges maps VectorSize mel-spaced bands onto FFT bin indices for the
// given sample rate. Mel spacing keeps low-frequency resolution where genre
// cues live.
func bandEdges(sampleRate int) []int {
	nyquist := float64(sampleRate) / 2
	maxMel := hzToMel(nyquist)

	bins := frameSize/2 + 1
	edges := make([]int, VectorSize+1)
	for i := 0; i <= VectorSize; i++ {
		hz := melToHz(maxMel * float64(i) / float64(VectorSize))
		bin := int(hz / nyquist * float64(bins-1))
		edges[i] = bin
	}

	// Keep edges monotonic and inside the spectrum
	for i := 1; i <= VectorSize; i++ {
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
		if edges[i] > bins {
			edges[i] = bins
		}
	}

	return edges
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
