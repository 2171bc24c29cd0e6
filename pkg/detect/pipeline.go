// Package detect implements the unsupervised flood detection pipeline:
// tile-parallel intensity statistics, representative tile selection,
// minimum-error threshold estimation, fuzzy evidence fusion and
// region consolidation.
//
// The algorithm follows Martinis, Kersten and Twele, "A fully automated
// TerraSAR-X based flood service", ISPRS Journal of Photogrammetry and
// Remote Sensing 104 (2015).
package detect

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"gonum.org/v1/gonum/stat"

	"sarflood/internal/models"
	"sarflood/pkg/blob"
	"sarflood/pkg/fuzzy"
	"sarflood/pkg/georef"
	"sarflood/pkg/raster"
)

// Params configures a detection run. Zero values fall back to the defaults
// from the flood service paper.
type Params struct {
	// TileSize is the edge length of the statistics tiles in pixels.
	TileSize int

	// Workers bounds the tile-parallel worker pool.
	Workers int

	// StrictThreshold seeds water regions in the fused confidence map.
	// Zero selects the default 0.6; an exact zero threshold cannot be
	// expressed, which would accept every scored pixel anyway.
	StrictThreshold float64

	// GrowThreshold is the lower hysteresis bound water regions grow to.
	// Zero selects the default 0.45.
	GrowThreshold float64

	// SlopeLowDeg and SlopeHighDeg bound the slope fuzzy channel.
	SlopeLowDeg, SlopeHighDeg float64

	// MinBlobMeters and MaxBlobMeters bound the plausible water body size;
	// they are converted to pixels using the scene's ground resolution.
	MinBlobMeters, MaxBlobMeters float64

	// DemSubsample is the decimation factor for the image-wide elevation
	// statistics.
	DemSubsample int

	// Logger receives run diagnostics. Nil disables logging.
	Logger *zerolog.Logger

	// DebugWriter, when set, receives intermediate rasters by name.
	DebugWriter func(name string, im *raster.Image) error
}

func (p *Params) applyDefaults() {
	if p.TileSize <= 0 {
		p.TileSize = 512
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.StrictThreshold == 0 {
		p.StrictThreshold = 0.6
	}
	if p.GrowThreshold == 0 {
		p.GrowThreshold = 0.45
	}
	if p.SlopeHighDeg == 0 {
		p.SlopeHighDeg = 15
	}
	if p.MinBlobMeters == 0 {
		p.MinBlobMeters = 250
	}
	if p.MaxBlobMeters == 0 {
		p.MaxBlobMeters = 1000
	}
	if p.DemSubsample <= 0 {
		p.DemSubsample = 10
	}
}

// Inputs are the rasters and georeferencing a run consumes. Radar is the
// single-channel intensity image in digital numbers with nodata pixels
// already masked invalid; Dem is the auxiliary elevation raster in its own
// grid.
type Inputs struct {
	Radar     *raster.Image
	RadarGeo  georef.GeoTransform
	HasGeoref bool

	Dem    *raster.Image
	DemGeo georef.GeoTransform
}

// Result is the terminal output of a run: the tri-state classification in
// row-major order plus the run metadata.
type Result struct {
	Classes    []uint8
	Cols, Rows int
	Info       models.RunInfo
}

// Detector owns one detection run and its intermediate artifacts. The
// stages run strictly in sequence; each consumes only the previous stage's
// output plus read-only side inputs.
type Detector struct {
	params Params
	log    zerolog.Logger

	proc        *raster.Image
	grid        [][]raster.Rect
	tileMeans   *raster.Image
	tileStddevs *raster.Image
	keptTiles   []TileRef
	threshold   ThresholdResult
}

// NewDetector creates a detector with the given parameters.
func NewDetector(params Params) *Detector {
	params.applyDefaults()
	log := zerolog.Nop()
	if params.Logger != nil {
		log = *params.Logger
	}
	return &Detector{params: params, log: log}
}

// Run executes the full pipeline and returns the classification raster.
func (d *Detector) Run(in Inputs) (*Result, error) {
	if in.Radar == nil || in.Dem == nil {
		return nil, fmt.Errorf("%w: radar and elevation rasters are required", ErrArgument)
	}
	if !in.HasGeoref {
		return nil, fmt.Errorf("%w: failed to read image georeference", ErrArgument)
	}

	cols, rows := in.Radar.Cols, in.Radar.Rows
	metersPerPixel := georef.MetersPerPixel(in.RadarGeo, cols, rows)
	d.log.Info().
		Int("cols", cols).Int("rows", rows).
		Float64("meters_per_pixel", metersPerPixel).
		Msg("starting flood detection")

	// Stage 1: preprocess to the decibel domain and correct speckles.
	d.proc = MedianFilter3(DNToDecibels(in.Radar))

	// Stage 2: tile-parallel statistics over the tile grid.
	d.grid = raster.DivideROI(d.proc.Bounds(), d.params.TileSize, false)
	var err error
	d.tileMeans, d.tileStddevs, err = TileStatistics(
		raster.NewImageView(d.proc), d.params.TileSize, d.params.Workers)
	if err != nil {
		return nil, err
	}
	d.saveDebug("tile_means", d.tileMeans)
	d.saveDebug("tile_stddevs", d.tileStddevs)

	// Stage 3: pick the representative tiles.
	d.keptTiles, err = SelectBestTiles(d.tileMeans, d.tileStddevs)
	if err != nil {
		return nil, err
	}
	d.log.Info().Int("tiles", len(d.keptTiles)).Msg("selected threshold tiles")
	d.saveDebug("kept_tiles", d.keptTileMask())

	// Stage 4: global threshold from the kept tiles. A degraded estimate
	// is a data-quality concern, not a configuration error: warn and
	// continue with what we have.
	d.threshold, err = ComputeGlobalThreshold(d.proc, d.keptTiles, d.grid, ProcMinDb, ProcMaxDb)
	if err != nil {
		return nil, err
	}
	if d.threshold.Degraded {
		d.log.Warn().
			Float64("threshold_db", d.threshold.Mean).
			Msg("computed threshold may be inaccurate")
	}
	d.log.Info().
		Float64("threshold_db", d.threshold.Mean).
		Float64("threshold_stddev", d.threshold.StdDev).
		Msg("computed global threshold")

	// Stage 5: fuzzy fusion and region consolidation.
	scores, err := d.fuseEvidence(in, metersPerPixel)
	if err != nil {
		return nil, err
	}
	d.saveDebug("fused_scores", scores)

	classes := blob.TwoThresholdFill(scores, d.params.StrictThreshold, d.params.GrowThreshold,
		models.LandClass, models.WaterClass)

	// The input nodata mask overrides everything else, applied last.
	for i, px := range in.Radar.Pix[:cols*rows] {
		if !px.Valid {
			classes[i] = models.NodataClass
		}
	}

	return &Result{
		Classes: classes,
		Cols:    cols,
		Rows:    rows,
		Info: models.RunInfo{
			Cols:            cols,
			Rows:            rows,
			MetersPerPixel:  metersPerPixel,
			GlobalThreshold: d.threshold.Mean,
			ThresholdStdDev: d.threshold.StdDev,
			TilesKept:       len(d.keptTiles),
		},
	}, nil
}

// fuseEvidence builds the four fuzzy evidence channels and combines them
// into the per-pixel confidence map.
func (d *Detector) fuseEvidence(in Inputs, metersPerPixel float64) (*raster.Image, error) {
	cols, rows := d.proc.Cols, d.proc.Rows

	// Initial water mask: pixels at or below the global threshold. Water
	// is darker than land in SAR intensity.
	waterMask := raster.NewImage(cols, rows)
	for i, px := range d.proc.Pix[:cols*rows] {
		if px.Valid && px.V <= d.threshold.Mean {
			waterMask.Pix[i] = raster.Value(1)
		}
	}

	// Region sizes for the water-body-size channel.
	minBlobPx := d.params.MinBlobMeters / metersPerPixel
	maxBlobPx := d.params.MaxBlobMeters / metersPerPixel
	capSize := int(maxBlobPx)
	if capSize < 1 {
		capSize = 1
	}
	blobSizes := blob.Sizes(waterMask, capSize)

	// Mean radar intensity of the initially flooded pixels, computed at
	// reduced resolution for speed.
	lowResWater := raster.Subsample(raster.CopyMask(d.proc, waterMask), d.params.DemSubsample)
	meanRawWater, ok := lowResWater.MeanValid()
	if !ok {
		d.log.Warn().Msg("initial threshold detected no water pixels")
		meanRawWater = d.threshold.Mean
	}

	// Elevation in the image grid, plus statistics over the flooded area.
	demInImage, err := georef.Reproject(in.Dem, in.DemGeo, in.RadarGeo, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArgument, err)
	}
	lowResDem := raster.Subsample(raster.CopyMask(demInImage, waterMask), d.params.DemSubsample)
	meanWaterHeight, stddevWaterHeight := maskedMeanStdDev(lowResDem)
	// The heuristic high bound comes straight from the paper.
	highHeight := meanWaterHeight + stddevWaterHeight*(stddevWaterHeight+3.5)

	slope := SlopeAngles(demInImage, metersPerPixel)

	d.log.Info().
		Float64("mean_flooded_db", meanRawWater).
		Float64("mean_flooded_elevation", meanWaterHeight).
		Float64("min_blob_px", minBlobPx).
		Float64("max_blob_px", maxBlobPx).
		Msg("evidence channel bounds")

	radarFuzz := fuzzy.NewZ(meanRawWater, d.threshold.Mean)
	heightFuzz := fuzzy.NewZ(meanWaterHeight, highHeight)
	slopeFuzz := fuzzy.NewZ(d.params.SlopeLowDeg, d.params.SlopeHighDeg)
	blobFuzz := fuzzy.NewS(minBlobPx, maxBlobPx)

	scores := raster.NewImage(cols, rows)
	for i := range scores.Pix[:cols*rows] {
		scores.Pix[i] = fuzzy.Defuzz(
			radarFuzz.EvalMasked(d.proc.Pix[i]),
			heightFuzz.EvalMasked(demInImage.Pix[i]),
			slopeFuzz.EvalMasked(slope.Pix[i]),
			blobFuzz.EvalMasked(blobSizes.Pix[i]),
		)
	}
	return scores, nil
}

// maskedMeanStdDev returns the mean and population standard deviation of
// the valid pixels, zero for an all-invalid image.
func maskedMeanStdDev(im *raster.Image) (mean, stddev float64) {
	var values []float64
	for _, px := range im.Pix {
		if px.Valid {
			values = append(values, px.V)
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return stat.Mean(values, nil), stat.PopStdDev(values, nil)
}

// keptTileMask renders the selected tiles as a debug raster sized to the
// tile grid.
func (d *Detector) keptTileMask() *raster.Image {
	mask := raster.NewImage(d.tileMeans.Cols, d.tileMeans.Rows)
	mask.Fill(raster.Value(0))
	for _, ref := range d.keptTiles {
		mask.Set(ref.Col, ref.Row, raster.Value(255))
	}
	return mask
}

func (d *Detector) saveDebug(name string, im *raster.Image) {
	if d.params.DebugWriter == nil {
		return
	}
	if err := d.params.DebugWriter(name, im); err != nil {
		d.log.Warn().Err(err).Str("raster", name).Msg("failed to save debug raster")
	}
}

// TileGrid exposes the tile grid computed for the run, for diagnostics.
func (d *Detector) TileGrid() [][]raster.Rect { return d.grid }

// Threshold exposes the threshold estimation result of the last run.
func (d *Detector) Threshold() ThresholdResult { return d.threshold }
