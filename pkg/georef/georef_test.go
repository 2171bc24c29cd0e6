package georef

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"sarflood/pkg/raster"
)

// TestAffineRoundtrip verifies LonLatToPixel inverts PixelToLonLat.
func TestAffineRoundtrip(t *testing.T) {
	gt := GeoTransform{-95.0, 8.983e-5, 0, 30.0, 0, -8.983e-5}

	for _, p := range [][2]float64{{0, 0}, {512, 300}, {1023.5, 17.25}} {
		lon, lat := gt.PixelToLonLat(p[0], p[1])
		px, py, ok := gt.LonLatToPixel(lon, lat)
		if !ok {
			t.Fatal("nonsingular transform reported singular")
		}
		if math.Abs(px-p[0]) > 1e-6 || math.Abs(py-p[1]) > 1e-6 {
			t.Errorf("roundtrip of (%v,%v) gave (%v,%v)", p[0], p[1], px, py)
		}
	}

	if _, _, ok := (GeoTransform{}).LonLatToPixel(0, 0); ok {
		t.Error("singular transform should report ok=false")
	}
}

// TestCropAndResample verifies derived transforms keep geographic placement.
func TestCropAndResample(t *testing.T) {
	gt := GeoTransform{-95.0, 1e-4, 0, 30.0, 0, -1e-4}

	cropped := gt.Crop(100, 50)
	lon, lat := cropped.PixelToLonLat(0, 0)
	wantLon, wantLat := gt.PixelToLonLat(100, 50)
	if math.Abs(lon-wantLon) > 1e-12 || math.Abs(lat-wantLat) > 1e-12 {
		t.Errorf("cropped origin (%v,%v), want (%v,%v)", lon, lat, wantLon, wantLat)
	}

	coarse := gt.Resample(0.1)
	lon, lat = coarse.PixelToLonLat(10, 10)
	wantLon, wantLat = gt.PixelToLonLat(100, 100)
	if math.Abs(lon-wantLon) > 1e-9 || math.Abs(lat-wantLat) > 1e-9 {
		t.Errorf("resampled (10,10) maps to (%v,%v), want (%v,%v)", lon, lat, wantLon, wantLat)
	}
}

// TestMetersPerPixel verifies ground resolution against a known scale.
// 8.983e-5 degrees is almost exactly 10 m at the equator.
func TestMetersPerPixel(t *testing.T) {
	gt := GeoTransform{-95.0, 8.983e-5, 0, 0.0, 0, -8.983e-5}
	res := MetersPerPixel(gt, 100, 100)
	if math.Abs(res-10) > 0.1 {
		t.Errorf("resolution = %v m/px, want about 10", res)
	}

	// Away from the equator the lon step shrinks, so the average drops.
	gt[3] = 60.0
	res = MetersPerPixel(gt, 100, 100)
	if res >= 10 || res < 5 {
		t.Errorf("resolution at 60N = %v m/px, want between 5 and 10", res)
	}
}

// TestReprojectIdentity verifies reprojection onto the same grid reproduces
// the source, invalid pixels included.
func TestReprojectIdentity(t *testing.T) {
	gt := GeoTransform{-95.0, 1e-4, 0, 30.0, 0, -1e-4}

	src := raster.NewImage(8, 6)
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			src.Set(c, r, raster.Value(float64(r*10+c)))
		}
	}
	src.Set(3, 2, raster.Invalid())

	out, err := Reproject(src, gt, gt, 8, 6)
	if err != nil {
		t.Fatalf("reproject failed: %v", err)
	}
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			got, want := out.At(c, r), src.At(c, r)
			if got.Valid != want.Valid {
				t.Fatalf("pixel (%d,%d) validity %v, want %v", c, r, got.Valid, want.Valid)
			}
			if got.Valid && math.Abs(got.V-want.V) > 1e-9 {
				t.Fatalf("pixel (%d,%d) = %v, want %v", c, r, got.V, want.V)
			}
		}
	}
}

// TestReprojectDownscale verifies bilinear interpolation between grid cells.
func TestReprojectDownscale(t *testing.T) {
	srcGT := GeoTransform{0, 1, 0, 0, 0, -1}
	// A target grid offset by half a source pixel samples midway between
	// neighbors.
	dstGT := GeoTransform{0.5, 1, 0, 0, 0, -1}

	src := raster.NewImage(4, 1)
	for c := 0; c < 4; c++ {
		src.Set(c, 0, raster.Value(float64(c*10)))
	}

	out, err := Reproject(src, srcGT, dstGT, 3, 1)
	if err != nil {
		t.Fatalf("reproject failed: %v", err)
	}
	want := []float64{5, 15, 25}
	for c, w := range want {
		got := out.At(c, 0)
		if !got.Valid || math.Abs(got.V-w) > 1e-9 {
			t.Errorf("pixel %d = %+v, want %v", c, got, w)
		}
	}
}

// TestReadWorldFile verifies parsing and the reordering into the GDAL term
// layout.
func TestReadWorldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.tfw")
	content := "8.983e-5\n0.0\n0.0\n-8.983e-5\n-95.0\n30.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	gt, err := ReadWorldFile(path)
	if err != nil {
		t.Fatalf("read world file: %v", err)
	}
	want := GeoTransform{-95.0, 8.983e-5, 0, 30.0, 0, -8.983e-5}
	for i := range want {
		if gt[i] != want[i] {
			t.Errorf("term %d = %v, want %v", i, gt[i], want[i])
		}
	}

	short := filepath.Join(t.TempDir(), "short.tfw")
	if err := os.WriteFile(short, []byte("1\n2\n3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWorldFile(short); err == nil {
		t.Error("expected an error for a truncated world file")
	}
}
