// Package sample holds small helpers for mono float32 PCM buffers.
package sample

import (
	"math"

	"github.com/jsphweid/strumdex/util"
)

// Sine fills n samples of a sine wave at freq Hz.
func Sine(freq, sampleRate float64, n int, amp float64) []float32 {
	res := make([]float32, n)
	for i := range res {
		res[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return res
}

func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// Peak returns the largest absolute sample value.
func Peak(buf []float32) float64 {
	var peak float64
	for _, v := range buf {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	return peak
}

// Gain scales buf in place.
func Gain(buf []float32, g float64) {
	for i, v := range buf {
		buf[i] = float32(float64(v) * g)
	}
}

// ToInt converts samples in [-1, 1] to signed integers of the given bit
// depth, clipping anything outside that range.
func ToInt(buf []float32, bitDepth int) []int {
	max := float64(int(1)<<(bitDepth-1) - 1)
	res := make([]int, len(buf))
	for i, v := range buf {
		res[i] = int(math.Round(util.Clamp(float64(v), -1, 1) * max))
	}
	return res
}

func FromInt(buf []int, bitDepth int) []float32 {
	max := float64(int(1) << (bitDepth - 1))
	res := make([]float32, len(buf))
	for i, v := range buf {
		res[i] = float32(float64(v) / max)
	}
	return res
}

// Mono averages interleaved channels down to one.
func Mono(buf []float32, channels int) []float32 {
	if channels <= 1 {
		return buf
	}
	res := make([]float32, len(buf)/channels)
	for i := range res {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += buf[i*channels+c]
		}
		res[i] = sum / float32(channels)
	}
	return res
}
