// ABOUTME: Level math helpers
// ABOUTME: Converts between decibels, linear gain, and integer sample widths
package audio

import "math"

// SilenceFloorDB is the level reported for digital silence.
const SilenceFloorDB = -100.0

// DBToLinear converts a decibel value to a linear gain factor.
// 0 dB is unity, +6.02 dB doubles amplitude, -6.02 dB halves it.
func DBToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// LinearToDB converts a linear amplitude to decibels, clamping
// silence to SilenceFloorDB instead of -Inf.
func LinearToDB(linear float32) float32 {
	if linear <= 0 {
		return SilenceFloorDB
	}
	return float32(20 * math.Log10(float64(linear)))
}

// Clamp limits a sample to the valid [-1, 1] range.
func Clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// SampleToInt16 converts a float sample to 16-bit PCM with clamping.
func SampleToInt16(s float32) int16 {
	return int16(Clamp(s) * 32767)
}

// SampleFromInt16 converts 16-bit PCM to a float sample.
func SampleFromInt16(s int16) float32 {
	return float32(s) / 32768
}

// SampleToInt24 converts a float sample to a 24-bit value held in an int.
func SampleToInt24(s float32) int {
	return int(Clamp(s) * float32(Max24Bit))
}

// SampleToInt32 converts a float sample to 32-bit PCM with clamping.
func SampleToInt32(s float32) int32 {
	return int32(float64(Clamp(s)) * 2147483647)
}

// SampleFromInt32 converts 32-bit PCM to a float sample.
func SampleFromInt32(s int32) float32 {
	return float32(float64(s) / 2147483648)
}
