package transcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/logging"
)

// Input container formats
const (
	FormatRaw = "raw"
	FormatWAV = "wav"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	SampleRate  int    `json:"sample_rate"`  // declared rate for headerless input
	SampleWidth int    `json:"sample_width"` // bytes per signed little-endian sample
	Format      string `json:"format"`       // "raw" or "wav"
}

// DefaultDecoderConfig returns the configuration of the recording app:
// 48 kHz, 16-bit signed little-endian, no header
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		SampleRate:  48000,
		SampleWidth: 2,
		Format:      FormatRaw,
	}
}

// Decoder turns PCM files and byte slices into normalized Signals
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new PCM decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "pcm_decoder",
		}),
	}
}

// LoadPCM reads a headerless single-channel PCM file
func LoadPCM(path string, sampleRate, sampleWidth int) (*Signal, error) {
	return NewDecoder(&DecoderConfig{
		SampleRate:  sampleRate,
		SampleWidth: sampleWidth,
		Format:      FormatRaw,
	}).DecodeFile(path)
}

// LoadWAV reads a mono RIFF/WAVE file; rate and width come from the header
func LoadWAV(path string) (*Signal, error) {
	return NewDecoder(&DecoderConfig{Format: FormatWAV}).DecodeFile(path)
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	switch d.config.Format {
	case FormatWAV:
		return nil
	case FormatRaw:
	default:
		return common.NewConfigurationError("ValidateConfig", fmt.Sprintf("unknown input format %q", d.config.Format))
	}

	if d.config.SampleRate <= 0 {
		return common.NewConfigurationError("ValidateConfig", fmt.Sprintf("sample rate must be positive: %d", d.config.SampleRate))
	}
	if _, err := NewEncoding(d.config.SampleWidth * 8); err != nil {
		return err
	}
	return nil
}

// DecodeFile reads the whole file at path and decodes it
func (d *Decoder) DecodeFile(path string) (*Signal, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"path":     path,
		"format":   d.config.Format,
	})

	if err := d.ValidateConfig(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewIOError("DecodeFile", "cannot read "+path, err)
	}

	sig, err := d.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	sig.Metadata.Path = path

	logger.Debug("Decoded signal", logging.Fields{
		"samples":     sig.Len(),
		"sample_rate": sig.SampleRate,
		"duration":    sig.Duration.String(),
	})

	return sig, nil
}

// DecodeBytes decodes an in-memory file image
func (d *Decoder) DecodeBytes(data []byte) (*Signal, error) {
	if err := d.ValidateConfig(); err != nil {
		return nil, err
	}

	if d.config.Format == FormatWAV {
		return d.decodeWAV(bytes.NewReader(data), len(data))
	}

	enc, _ := NewEncoding(d.config.SampleWidth * 8)
	return DecodePCM(data, enc, d.config.SampleRate)
}

// DecodePCM decodes headerless signed little-endian samples
func DecodePCM(data []byte, enc Encoding, sampleRate int) (*Signal, error) {
	buf, err := enc.intBuffer(data, sampleRate)
	if err != nil {
		return nil, err
	}

	sig, err := fromIntBuffer(buf)
	if err != nil {
		return nil, err
	}
	sig.Metadata = &SourceMetadata{
		Format:      FormatRaw,
		SampleWidth: enc.SampleWidth(),
		ByteCount:   len(data),
	}
	return sig, nil
}

func (d *Decoder) decodeWAV(r io.ReadSeeker, size int) (*Signal, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, common.NewFormatError("decodeWAV", "invalid WAV file")
	}

	// 1 = integer PCM
	if decoder.WavAudioFormat != 1 {
		return nil, common.NewFormatError("decodeWAV", fmt.Sprintf("unsupported WAV audio format %d", decoder.WavAudioFormat))
	}
	if decoder.NumChans != 1 {
		return nil, common.NewFormatError("decodeWAV",
			fmt.Sprintf("only single-channel WAV files are supported, got %d channels", decoder.NumChans))
	}

	if _, err := NewEncoding(int(decoder.BitDepth)); err != nil {
		return nil, common.NewFormatError("decodeWAV", fmt.Sprintf("unsupported WAV bit depth %d", decoder.BitDepth))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, common.NewFormatError("decodeWAV", fmt.Sprintf("could not read PCM buffer: %v", err))
	}

	// 8-bit WAV is stored unsigned
	if buf.SourceBitDepth == 8 {
		for i := range buf.Data {
			buf.Data[i] -= 128
		}
	}

	sig, err := fromIntBuffer(buf)
	if err != nil {
		return nil, err
	}
	sig.Metadata = &SourceMetadata{
		Format:      FormatWAV,
		SampleWidth: buf.SourceBitDepth / 8,
		ByteCount:   size,
	}
	return sig, nil
}

// fromIntBuffer scales integer samples by the encoding's full scale
func fromIntBuffer(buf *audio.IntBuffer) (*Signal, error) {
	enc, err := NewEncoding(buf.SourceBitDepth)
	if err != nil {
		return nil, err
	}
	if len(buf.Data) == 0 {
		return nil, common.NewFormatError("decode", "empty signal")
	}

	scale := enc.FullScale()
	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = float64(v) / scale
	}

	return NewSignal(pcm, buf.Format.SampleRate)
}

// Encoding is a fixed-width signed little-endian integer sample format
type Encoding struct {
	BitDepth int `json:"bit_depth"`
}

var supportedBitDepths = []int{8, 16, 24, 32}

// NewEncoding creates an encoding for the given bit depth
func NewEncoding(bitDepth int) (Encoding, error) {
	if !slices.Contains(supportedBitDepths, bitDepth) {
		return Encoding{}, common.NewConfigurationError("NewEncoding", fmt.Sprintf("unsupported bit depth %d", bitDepth))
	}
	return Encoding{BitDepth: bitDepth}, nil
}

// SampleWidth returns bytes per sample
func (e Encoding) SampleWidth() int {
	return e.BitDepth / 8
}

// FullScale returns the largest representable magnitude, 2^(bits-1).
// Dividing by it maps the most negative code to exactly -1.0.
func (e Encoding) FullScale() float64 {
	return float64(int64(1) << (e.BitDepth - 1))
}

func (e Encoding) intBuffer(data []byte, sampleRate int) (*audio.IntBuffer, error) {
	width := e.SampleWidth()
	if width == 0 {
		return nil, common.NewConfigurationError("decode", "zero sample width")
	}
	if len(data) == 0 {
		return nil, common.NewFormatError("decode", "empty signal")
	}
	if len(data)%width != 0 {
		return nil, common.NewFormatError("decode",
			fmt.Sprintf("byte count %d is not a multiple of sample width %d", len(data), width))
	}

	samples := make([]int, len(data)/width)
	for i := range samples {
		b := data[i*width : (i+1)*width]
		switch width {
		case 1:
			samples[i] = int(int8(b[0]))
		case 2:
			samples[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			samples[i] = int(v<<8) >> 8
		case 4:
			samples[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}

	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: e.BitDepth,
	}, nil
}
