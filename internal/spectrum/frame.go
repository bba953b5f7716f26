package spectrum

import (
	"encoding/binary"
	"fmt"
	"math"
)

// frameRecordSize is the wire size of one sample: two little-endian IEEE-754
// float64 values (frequency in Hz, amplitude) with no padding.
const frameRecordSize = 16

// DecodeBinaryFrame decodes a live-mode binary frame into samples in input
// order. The payload is a flat buffer of 16-byte records with no header or
// count prefix. A payload whose length is not a multiple of the record size
// is rejected with ErrMalformedFrame; trailing partial records are never
// silently truncated.
func DecodeBinaryFrame(payload []byte) ([]Sample, error) {
	if len(payload)%frameRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedFrame, len(payload), frameRecordSize)
	}
	samples := make([]Sample, 0, len(payload)/frameRecordSize)
	for off := 0; off < len(payload); off += frameRecordSize {
		samples = append(samples, Sample{
			FrequencyHz: math.Float64frombits(binary.LittleEndian.Uint64(payload[off:])),
			Amplitude:   math.Float64frombits(binary.LittleEndian.Uint64(payload[off+8:])),
		})
	}
	return samples, nil
}

// EncodeBinaryFrame encodes samples into the live-mode wire format. It is the
// exact inverse of DecodeBinaryFrame.
func EncodeBinaryFrame(samples []Sample) []byte {
	payload := make([]byte, len(samples)*frameRecordSize)
	for i, s := range samples {
		off := i * frameRecordSize
		binary.LittleEndian.PutUint64(payload[off:], math.Float64bits(s.FrequencyHz))
		binary.LittleEndian.PutUint64(payload[off+8:], math.Float64bits(s.Amplitude))
	}
	return payload
}

// SamplesFromSeries pairs the historical-mode frequency and amplitude arrays
// positionally. The arrays must be the same length.
func SamplesFromSeries(frequencies, amplitudes []float64) ([]Sample, error) {
	if len(frequencies) != len(amplitudes) {
		return nil, fmt.Errorf("%w: %d frequencies but %d amplitudes", ErrMalformedFrame, len(frequencies), len(amplitudes))
	}
	samples := make([]Sample, len(frequencies))
	for i := range frequencies {
		samples[i] = Sample{FrequencyHz: frequencies[i], Amplitude: amplitudes[i]}
	}
	return samples, nil
}
