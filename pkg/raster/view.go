package raster

import (
	"fmt"
	"sync"
)

// Tile is a materialized rectangular piece of a view: a concrete pixel
// buffer plus the origin at which it pastes back into the full extent.
type Tile struct {
	Image   *Image
	OriginX int
	OriginY int
}

// View is a lazily evaluated image-like object. A view advertises its
// extent and can realize any requested region as a Tile. The plan/realize
// split is what lets the block scheduler drive many regions concurrently:
// Plan must be safe to call from multiple goroutines as long as
// implementations confine any shared accumulation to non-aliased cells.
type View interface {
	Cols() int
	Rows() int
	Planes() int

	// Plan materializes the requested region.
	Plan(region Rect) (*Tile, error)
}

// ImageView wraps an in-memory image as a View, realizing tiles by
// cropping.
type ImageView struct {
	im *Image
}

// NewImageView wraps im.
func NewImageView(im *Image) *ImageView { return &ImageView{im: im} }

func (v *ImageView) Cols() int   { return v.im.Cols }
func (v *ImageView) Rows() int   { return v.im.Rows }
func (v *ImageView) Planes() int { return v.im.Planes }

// Plan crops the requested region out of the backing image.
func (v *ImageView) Plan(region Rect) (*Tile, error) {
	clipped := region.Intersect(v.im.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("raster: plan region %v outside image %v", region, v.im.Bounds())
	}
	return &Tile{
		Image:   v.im.Crop(clipped),
		OriginX: clipped.MinX,
		OriginY: clipped.MinY,
	}, nil
}

// Rasterize drives a view through the block scheduler: the full extent is
// divided into tiles of the given size (partial tiles at the border
// included), each region is planned on a bounded worker pool, and the
// realized tiles are pasted into a single output image at their origins.
func Rasterize(v View, tileSize, workers int) (*Image, error) {
	if workers < 1 {
		workers = 1
	}

	full := Rect{Width: v.Cols(), Height: v.Rows()}
	grid := DivideROI(full, tileSize, true)

	var regions []Rect
	for _, row := range grid {
		regions = append(regions, row...)
	}

	out := NewImage(full.Width, full.Height)

	type result struct {
		tile *Tile
		err  error
	}

	jobs := make(chan Rect)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for region := range jobs {
				tile, err := v.Plan(region)
				results <- result{tile: tile, err: err}
			}
		}()
	}

	go func() {
		for _, region := range regions {
			jobs <- region
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		paste(out, res.tile)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// paste copies a realized tile into the canvas at its origin. Tiles from
// one rasterization never overlap, so no synchronization is needed once
// the scheduler has joined its workers.
func paste(canvas *Image, t *Tile) {
	for r := 0; r < t.Image.Rows; r++ {
		dst := canvas.index(t.OriginX, t.OriginY+r, 0)
		src := r * t.Image.Cols
		copy(canvas.Pix[dst:dst+t.Image.Cols], t.Image.Pix[src:src+t.Image.Cols])
	}
}
