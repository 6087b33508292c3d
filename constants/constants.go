package constants

import (
	"os"
	"path/filepath"
)

func GetConfigPath() string {
	path := os.Getenv("STRUMDEX_CONFIG")
	if path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "strumdex.yaml"
	}
	return filepath.Join(dir, "strumdex", "config.yaml")
}

func GetListenAddr(fallback string) string {
	addr := os.Getenv("STRUMDEX_LISTEN")
	if addr != "" {
		return addr
	}
	return fallback
}

// Open-string pitches, low E to high e: E2 A2 D3 G3 B3 E4
var ReferenceTuning = [NumStrings]int{40, 45, 50, 55, 59, 64}

const NumStrings = 6

const StepsPerBar = 8

// 69 is A4 at 440 Hz
const (
	ReferencePitch     = 69
	ReferenceFrequency = 440.0
)

// pitch detector
const (
	DetectorBufferSize = 2048
	DetectorWindow     = 1024
	DetectorMinOffset  = 32
	DetectorMinRMS     = 0.01
	DetectorGoodScore  = 0.9
	DetectorMinScore   = 0.01
)

// strum shaping
const (
	BaseVelocity     = 0.9
	DownDecay        = 0.05
	UpDecay          = 0.04
	UnaccentedFactor = 0.85
	MinVelocity      = 0.10
	MaxVelocity      = 1.00
	MinRootSustain   = 0.22
)
