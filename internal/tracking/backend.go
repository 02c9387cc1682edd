// Package tracking manages the set of visual point trackers and decides when a
// fingertip touches one of them.
package tracking

import (
	"fmt"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// Factory creates an uninitialised tracker. Trackers follow the gocv.Tracker
// contract: Init once against a frame and box, then Update per frame.
type Factory func() gocv.Tracker

// Supported tracker algorithms.
const (
	AlgorithmKCF = "kcf"
	AlgorithmMIL = "mil"
)

// NewKCF returns a kernelized correlation filter tracker.
func NewKCF() gocv.Tracker {
	return contrib.NewTrackerKCF()
}

// NewMIL returns a multiple instance learning tracker.
func NewMIL() gocv.Tracker {
	return gocv.NewTrackerMIL()
}

// FactoryFor returns the Factory for the named algorithm.
func FactoryFor(algorithm string) (Factory, error) {
	switch algorithm {
	case AlgorithmKCF, "":
		return NewKCF, nil
	case AlgorithmMIL:
		return NewMIL, nil
	default:
		return nil, fmt.Errorf("unknown tracker algorithm %q", algorithm)
	}
}
