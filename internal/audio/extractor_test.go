package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// sineWAV builds a 16-bit mono PCM WAV holding a sine tone.
func sineWAV(freq float64, sampleRate, numSamples int) []byte {
	var pcm bytes.Buffer
	for i := 0; i < numSamples; i++ {
		v := int16(20000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		_ = binary.Write(&pcm, binary.LittleEndian, v)
	}
	return wavContainer(pcm.Bytes(), sampleRate, 1, 16)
}

func wavContainer(data []byte, sampleRate, channels, bits int) []byte {
	var buf bytes.Buffer
	byteRate := sampleRate * channels * bits / 8
	blockAlign := channels * bits / 8

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestExtract_VectorShape(t *testing.T) {
	e := NewExtractor()

	vec, err := e.Extract(sineWAV(440, 8000, 8000))
	require.NoError(t, err)

	assert.Len(t, vec, VectorSize)
	assert.InDelta(t, 1.0, floats.Norm(vec, 2), 1e-9, "vector should be L2-normalized")
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor()
	data := sineWAV(440, 8000, 8000)

	first, err := e.Extract(data)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		vec, err := e.Extract(data)
		require.NoError(t, err)
		assert.Equal(t, first, vec)
	}
}

func TestExtract_DistinguishesTones(t *testing.T) {
	e := NewExtractor()

	low, err := e.Extract(sineWAV(220, 8000, 8000))
	require.NoError(t, err)
	high, err := e.Extract(sineWAV(3500, 8000, 8000))
	require.NoError(t, err)

	assert.NotEqual(t, low, high)
	assert.Greater(t, floats.Distance(low, high, 2), 0.1)
}

func TestExtract_EmptyInput(t *testing.T) {
	e := NewExtractor()

	vec, err := e.Extract(nil)

	assert.ErrorIs(t, err, ErrDecode)
	assert.Nil(t, vec)
}

func TestExtract_GarbageInput(t *testing.T) {
	e := NewExtractor()

	vec, err := e.Extract([]byte("definitely not a wav file, just some text bytes"))

	assert.ErrorIs(t, err, ErrDecode)
	assert.Nil(t, vec)
}

func TestExtract_TooShortForOneFrame(t *testing.T) {
	e := NewExtractor()

	// Decodes fine but holds fewer samples than one analysis frame
	vec, err := e.Extract(sineWAV(440, 8000, 100))

	assert.ErrorIs(t, err, ErrExtract)
	assert.Nil(t, vec)
}

func TestExtract_StereoDownmix(t *testing.T) {
	e := NewExtractor()

	// Identical tone in both channels should land near the mono vector
	var pcm bytes.Buffer
	for i := 0; i < 8000; i++ {
		v := int16(20000 * math.Sin(2*math.Pi*440*float64(i)/8000))
		_ = binary.Write(&pcm, binary.LittleEndian, v)
		_ = binary.Write(&pcm, binary.LittleEndian, v)
	}
	stereo, err := e.Extract(wavContainer(pcm.Bytes(), 8000, 2, 16))
	require.NoError(t, err)

	mono, err := e.Extract(sineWAV(440, 8000, 8000))
	require.NoError(t, err)

	assert.InDeltaSlice(t, mono, stereo, 1e-6)
}
