package detect

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"sarflood/pkg/raster"
)

// TestComputeGlobalThreshold verifies per-tile minimum-error estimation and
// aggregation over two bimodal tiles.
func TestComputeGlobalThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Two 64x64 tiles side by side, each with a dark water mode near 8 dB
	// and a land mode near 22 dB.
	im := raster.NewImage(128, 64)
	for i := range im.Pix {
		if rng.Float64() < 0.3 {
			im.Pix[i] = raster.Value(8 + rng.NormFloat64()*1.5)
		} else {
			im.Pix[i] = raster.Value(22 + rng.NormFloat64()*2.0)
		}
	}

	grid := raster.DivideROI(im.Bounds(), 64, false)
	kept := []TileRef{{Col: 0, Row: 0}, {Col: 1, Row: 0}}

	res, err := ComputeGlobalThreshold(im, kept, grid, ProcMinDb, ProcMaxDb)
	if err != nil {
		t.Fatalf("threshold estimation failed: %v", err)
	}
	if res.Degraded {
		t.Error("bimodal tiles should not degrade the estimate")
	}
	if len(res.PerTile) != 2 {
		t.Fatalf("got %d per-tile thresholds, want 2", len(res.PerTile))
	}
	if res.Mean <= 8 || res.Mean >= 22 {
		t.Errorf("global threshold = %v dB, want between the modes 8 and 22", res.Mean)
	}
	for i, th := range res.PerTile {
		if th <= 8 || th >= 22 {
			t.Errorf("tile %d threshold = %v dB, want between the modes", i, th)
		}
	}
	if res.StdDev < 0 || math.IsNaN(res.StdDev) {
		t.Errorf("threshold spread = %v, want a finite non-negative diagnostic", res.StdDev)
	}
}

// TestComputeGlobalThresholdDegraded verifies the fallback flag on a
// two-level tile with no intensity spread.
func TestComputeGlobalThresholdDegraded(t *testing.T) {
	im := raster.NewImage(64, 64)
	for i := range im.Pix {
		if i%10 == 0 {
			im.Pix[i] = raster.Value(10)
		} else {
			im.Pix[i] = raster.Value(20)
		}
	}

	grid := raster.DivideROI(im.Bounds(), 64, false)
	res, err := ComputeGlobalThreshold(im, []TileRef{{Col: 0, Row: 0}}, grid, ProcMinDb, ProcMaxDb)
	if err != nil {
		t.Fatalf("threshold estimation failed: %v", err)
	}
	if !res.Degraded {
		t.Error("a two-spike histogram should mark the result degraded")
	}
	if res.Mean <= 10 || res.Mean >= 20 {
		t.Errorf("fallback threshold = %v, want between the two levels", res.Mean)
	}
}

// TestComputeGlobalThresholdErrors verifies the logic errors for an empty
// selection and an out-of-grid tile.
func TestComputeGlobalThresholdErrors(t *testing.T) {
	im := raster.NewImage(64, 64)
	grid := raster.DivideROI(im.Bounds(), 64, false)

	if _, err := ComputeGlobalThreshold(im, nil, grid, ProcMinDb, ProcMaxDb); !errors.Is(err, ErrLogic) {
		t.Errorf("expected ErrLogic for an empty selection, got %v", err)
	}
	bad := []TileRef{{Col: 3, Row: 0}}
	if _, err := ComputeGlobalThreshold(im, bad, grid, ProcMinDb, ProcMaxDb); !errors.Is(err, ErrLogic) {
		t.Errorf("expected ErrLogic for a tile outside the grid, got %v", err)
	}
}
