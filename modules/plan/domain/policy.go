package domain

import "fmt"

// AnchorPolicy decides what happens to an anchor whose target is not an
// activity of the same file.
type AnchorPolicy string

const (
	// AnchorLenient skips such anchors with a warning.
	AnchorLenient AnchorPolicy = "lenient"
	// AnchorStrict rejects the file before anything is created.
	AnchorStrict AnchorPolicy = "strict"
)

func ParseAnchorPolicy(s string) (AnchorPolicy, error) {
	switch p := AnchorPolicy(s); p {
	case AnchorLenient, AnchorStrict:
		return p, nil
	case "":
		return AnchorLenient, nil
	default:
		return "", fmt.Errorf("unknown anchor policy %q", s)
	}
}

// SimulationPolicy decides whether failing to store the simulation
// arguments fails the import.
type SimulationPolicy string

const (
	SimulationBestEffort SimulationPolicy = "best_effort"
	SimulationRequired   SimulationPolicy = "required"
)

func ParseSimulationPolicy(s string) (SimulationPolicy, error) {
	switch p := SimulationPolicy(s); p {
	case SimulationBestEffort, SimulationRequired:
		return p, nil
	case "":
		return SimulationBestEffort, nil
	default:
		return "", fmt.Errorf("unknown simulation policy %q", s)
	}
}
