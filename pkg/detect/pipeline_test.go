package detect

import (
	"errors"
	"testing"

	"sarflood/internal/models"
	"sarflood/pkg/georef"
	"sarflood/pkg/raster"
)

// TestParamsDefaults verifies zero-value parameters take the documented
// defaults while explicit settings survive untouched.
func TestParamsDefaults(t *testing.T) {
	var p Params
	p.applyDefaults()
	if p.TileSize != 512 || p.DemSubsample != 10 {
		t.Errorf("processing defaults = %d/%d, want 512/10", p.TileSize, p.DemSubsample)
	}
	if p.StrictThreshold != 0.6 || p.GrowThreshold != 0.45 {
		t.Errorf("hysteresis defaults = %v/%v, want 0.6/0.45", p.StrictThreshold, p.GrowThreshold)
	}
	if p.SlopeHighDeg != 15 || p.MinBlobMeters != 250 || p.MaxBlobMeters != 1000 {
		t.Errorf("evidence defaults = %v/%v/%v, want 15/250/1000",
			p.SlopeHighDeg, p.MinBlobMeters, p.MaxBlobMeters)
	}
	if p.Workers < 1 {
		t.Errorf("default workers = %d, want at least 1", p.Workers)
	}

	q := Params{TileSize: 128, StrictThreshold: 0.7, GrowThreshold: 0.3, MaxBlobMeters: 5000}
	q.applyDefaults()
	if q.TileSize != 128 || q.StrictThreshold != 0.7 || q.GrowThreshold != 0.3 || q.MaxBlobMeters != 5000 {
		t.Errorf("explicit parameters changed by defaulting: %+v", q)
	}
}

// TestDetectorRunArguments verifies the fatal argument checks.
func TestDetectorRunArguments(t *testing.T) {
	d := NewDetector(Params{})

	_, err := d.Run(Inputs{})
	if !errors.Is(err, ErrArgument) {
		t.Errorf("expected ErrArgument without rasters, got %v", err)
	}

	radar := raster.NewImage(8, 8)
	dem := raster.NewImage(8, 8)
	_, err = d.Run(Inputs{Radar: radar, Dem: dem})
	if !errors.Is(err, ErrArgument) {
		t.Errorf("expected ErrArgument without georeferencing, got %v", err)
	}
}

// TestDetectorRunSyntheticFlood runs the full pipeline over a synthetic
// scene: a uniform bright background with one embedded dark square over a
// flat elevation field. The square must classify as water, the rest as
// land, with no nodata pixels.
func TestDetectorRunSyntheticFlood(t *testing.T) {
	if testing.Short() {
		t.Skip("synthetic scene is a megapixel run")
	}

	const (
		size    = 1024
		sqMin   = 300 // square spans [300, 400) in both axes
		sqMax   = 400
		bgDN    = 100 // 20 dB background
		waterDN = 10  // 10 dB water
	)

	radar := raster.NewImage(size, size)
	radar.Fill(raster.Value(bgDN))
	for r := sqMin; r < sqMax; r++ {
		for c := sqMin; c < sqMax; c++ {
			radar.Set(c, r, raster.Value(waterDN))
		}
	}

	// About 10 m ground resolution at 30 degrees north.
	radarGT := georef.GeoTransform{-95.0, 8.983e-5, 0, 30.0, 0, -8.983e-5}

	// A coarse flat elevation raster covering the same extent.
	dem := raster.NewImage(64, 64)
	dem.Fill(raster.Value(0))
	demGT := georef.GeoTransform{-95.0, 8.983e-5 * 16, 0, 30.0, 0, -8.983e-5 * 16}

	d := NewDetector(Params{TileSize: 256, Workers: 4})
	res, err := d.Run(Inputs{
		Radar:     radar,
		RadarGeo:  radarGT,
		HasGeoref: true,
		Dem:       dem,
		DemGeo:    demGT,
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if res.Cols != size || res.Rows != size {
		t.Fatalf("result extent %dx%d, want %dx%d", res.Cols, res.Rows, size, size)
	}

	// The two-level histogram forces the fallback threshold; it still
	// separates the modes.
	th := d.Threshold()
	if th.Mean <= 10 || th.Mean >= 20 {
		t.Errorf("global threshold = %v dB, want between the 10 and 20 dB modes", th.Mean)
	}
	if res.Info.TilesKept != 1 {
		t.Errorf("kept %d tiles, want exactly the tile containing the square", res.Info.TilesKept)
	}

	// Verify classes away from the square boundary, where the speckle
	// filter reshapes the outline by a pixel.
	var wrongWater, wrongLand, nodata int
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			cls := res.Classes[r*size+c]
			if cls == models.NodataClass {
				nodata++
				continue
			}
			interior := c >= sqMin+1 && c < sqMax-1 && r >= sqMin+1 && r < sqMax-1
			exterior := c < sqMin-1 || c >= sqMax+1 || r < sqMin-1 || r >= sqMax+1
			switch {
			case interior && cls != models.WaterClass:
				wrongLand++
			case exterior && cls != models.LandClass:
				wrongWater++
			}
		}
	}
	if wrongLand > 0 {
		t.Errorf("%d square-interior pixels not classified water", wrongLand)
	}
	if wrongWater > 0 {
		t.Errorf("%d background pixels not classified land", wrongWater)
	}
	if nodata > 0 {
		t.Errorf("%d nodata pixels in a fully valid scene", nodata)
	}
}

// TestDetectorRunNodataPassthrough verifies masked input pixels come out as
// nodata regardless of classification.
func TestDetectorRunNodataPassthrough(t *testing.T) {
	if testing.Short() {
		t.Skip("synthetic scene is a megapixel run")
	}

	const size = 1024
	radar := raster.NewImage(size, size)
	radar.Fill(raster.Value(100))
	for r := 300; r < 400; r++ {
		for c := 300; c < 400; c++ {
			radar.Set(c, r, raster.Value(10))
		}
	}
	// A masked strip of the scene, away from the square.
	for r := 0; r < 20; r++ {
		for c := 0; c < size; c++ {
			radar.Set(c, r, raster.Invalid())
		}
	}

	gt := georef.GeoTransform{-95.0, 8.983e-5, 0, 30.0, 0, -8.983e-5}
	dem := raster.NewImage(64, 64)
	dem.Fill(raster.Value(0))
	demGT := georef.GeoTransform{-95.0, 8.983e-5 * 16, 0, 30.0, 0, -8.983e-5 * 16}

	d := NewDetector(Params{TileSize: 256, Workers: 4})
	res, err := d.Run(Inputs{
		Radar: radar, RadarGeo: gt, HasGeoref: true,
		Dem: dem, DemGeo: demGT,
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	for r := 0; r < 20; r++ {
		for c := 0; c < size; c++ {
			if res.Classes[r*size+c] != models.NodataClass {
				t.Fatalf("masked pixel (%d,%d) classified %d, want nodata", c, r, res.Classes[r*size+c])
			}
		}
	}
	if res.Classes[350*size+350] != models.WaterClass {
		t.Error("square center lost its water classification")
	}
}
