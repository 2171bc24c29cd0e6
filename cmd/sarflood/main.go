package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sarflood/internal/models"
	"sarflood/pkg/config"
	"sarflood/pkg/detect"
	"sarflood/pkg/georef"
	"sarflood/pkg/raster"
	"sarflood/pkg/rasterio"
)

func main() {
	radarPath := flag.String("radar", "", "Single-channel SAR intensity raster (TIFF with .tfw world file)")
	demPath := flag.String("dem", "", "Elevation raster (TIFF with .tfw world file)")
	outputPath := flag.String("output", "flood_classes.tif", "Output classification raster")
	configPath := flag.String("config", "sarflood.yaml", "Configuration file")
	workers := flag.Int("workers", 0, "Number of parallel tile workers (default: from config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()

	if *radarPath == "" || *demPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *verbose || cfg.Output.Verbose {
		log = log.Level(zerolog.DebugLevel)
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}

	start := time.Now()
	result, err := run(cfg, log, *radarPath, *demPath, *outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("flood detection failed")
	}

	water, land, nodata := countClasses(result.Classes)
	log.Info().
		Dur("elapsed", time.Since(start)).
		Str("output", *outputPath).
		Float64("threshold_db", result.Info.GlobalThreshold).
		Float64("threshold_stddev", result.Info.ThresholdStdDev).
		Int("tiles_kept", result.Info.TilesKept).
		Int("water_px", water).
		Int("land_px", land).
		Int("nodata_px", nodata).
		Msg("flood detection complete")
}

func run(cfg *config.Config, log zerolog.Logger, radarPath, demPath, outputPath string) (*detect.Result, error) {
	radar, radarGT, err := loadGeoRaster(radarPath, cfg.Input.RadarNodata)
	if err != nil {
		return nil, fmt.Errorf("load radar: %w", err)
	}
	dem, demGT, err := loadGeoRaster(demPath, cfg.Input.DemNodata)
	if err != nil {
		return nil, fmt.Errorf("load dem: %w", err)
	}

	params := detect.Params{
		TileSize:        cfg.Processing.TileSize,
		Workers:         cfg.Processing.Workers,
		DemSubsample:    cfg.Processing.DemSubsample,
		StrictThreshold: cfg.Fuzzy.StrictThreshold,
		GrowThreshold:   cfg.Fuzzy.GrowThreshold,
		SlopeLowDeg:     cfg.Fuzzy.SlopeLowDeg,
		SlopeHighDeg:    cfg.Fuzzy.SlopeHighDeg,
		MinBlobMeters:   cfg.Fuzzy.MinBlobMeters,
		MaxBlobMeters:   cfg.Fuzzy.MaxBlobMeters,
		Logger:          &log,
	}
	if cfg.Output.SaveDebugRasters {
		debugDir := cfg.Output.DebugDir
		params.DebugWriter = func(name string, im *raster.Image) error {
			return rasterio.WriteGray(filepath.Join(debugDir, name+".tif"), im)
		}
	}

	detector := detect.NewDetector(params)
	result, err := detector.Run(detect.Inputs{
		Radar:     radar,
		RadarGeo:  radarGT,
		HasGeoref: true,
		Dem:       dem,
		DemGeo:    demGT,
	})
	if err != nil {
		return nil, err
	}

	if err := rasterio.WriteClasses(outputPath, result.Classes, result.Cols, result.Rows); err != nil {
		return nil, fmt.Errorf("write classification: %w", err)
	}
	return result, nil
}

// loadGeoRaster reads a TIFF raster together with the world file that
// georeferences it. The world file is required: without georeferencing the
// pipeline cannot compute ground resolution.
func loadGeoRaster(path string, nodata float64) (*raster.Image, georef.GeoTransform, error) {
	im, err := rasterio.ReadGray(path, nodata)
	if err != nil {
		return nil, georef.GeoTransform{}, err
	}
	gt, err := georef.ReadWorldFile(worldFilePath(path))
	if err != nil {
		return nil, georef.GeoTransform{}, fmt.Errorf("%w: %v", detect.ErrArgument, err)
	}
	return im, gt, nil
}

func worldFilePath(rasterPath string) string {
	ext := filepath.Ext(rasterPath)
	return strings.TrimSuffix(rasterPath, ext) + ".tfw"
}

func countClasses(classes []uint8) (water, land, nodata int) {
	for _, c := range classes {
		switch c {
		case models.WaterClass:
			water++
		case models.LandClass:
			land++
		default:
			nodata++
		}
	}
	return water, land, nodata
}
