package primitive

import (
	"fmt"
	"strings"
)

// Resolution selects how finely curved primitives are tessellated.
type Resolution int

const (
	ResolutionDefault Resolution = iota
	ResolutionLow
	ResolutionHigh
)

// segments holds the per-shape subdivision counts for one resolution.
type segments struct {
	sphereWidth, sphereHeight int
	radial                    int
	torusRadial, torusTubular int
	knotTubular, knotRadial   int
}

func (r Resolution) segments() segments {
	switch r {
	case ResolutionLow:
		return segments{sphereWidth: 12, sphereHeight: 6, radial: 12, torusRadial: 8, torusTubular: 24, knotTubular: 48, knotRadial: 8}
	case ResolutionHigh:
		return segments{sphereWidth: 64, sphereHeight: 32, radial: 64, torusRadial: 24, torusTubular: 160, knotTubular: 200, knotRadial: 24}
	}
	return segments{sphereWidth: 32, sphereHeight: 16, radial: 32, torusRadial: 16, torusTubular: 100, knotTubular: 100, knotRadial: 16}
}

func (r Resolution) String() string {
	switch r {
	case ResolutionLow:
		return "low"
	case ResolutionHigh:
		return "high"
	}
	return "default"
}

// ParseResolution parses "low", "default" or "high" (case-insensitive). An empty string is "default".
//
// Parameters:
//   - s: the resolution name
//
// Returns:
//   - Resolution: the parsed resolution
//   - error: if s is not a known resolution
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ResolutionDefault, nil
	case "low":
		return ResolutionLow, nil
	case "high":
		return ResolutionHigh, nil
	}
	return ResolutionDefault, fmt.Errorf("unknown resolution %q", s)
}
