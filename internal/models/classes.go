// Package models holds the small shared types of the flood detector:
// classification labels and run metadata.
package models

// Classification labels for the final tri-state raster.
const (
	// NodataClass marks pixels with no usable input data.
	NodataClass uint8 = 0

	// LandClass marks dry pixels.
	LandClass uint8 = 1

	// WaterClass marks flooded pixels.
	WaterClass uint8 = 255
)

// RunInfo records the per-run metadata the pipeline computes once at start
// and the headline numbers it derives, for logging and diagnostics.
type RunInfo struct {
	// Cols and Rows are the processed image extent.
	Cols, Rows int

	// MetersPerPixel is the ground resolution at the scene center.
	MetersPerPixel float64

	// GlobalThreshold is the fused intensity threshold in the processed
	// (decibel) domain.
	GlobalThreshold float64

	// ThresholdStdDev is the spread of the per-tile thresholds. It is
	// reported for diagnostics and does not gate the run.
	ThresholdStdDev float64

	// TilesKept is the number of tiles used for threshold estimation.
	TilesKept int
}
