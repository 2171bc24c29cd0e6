// Package blob provides 4-connected region labeling over binary masks and
// the two-threshold hysteresis fill used to consolidate the final water
// classification.
package blob

import "sarflood/pkg/raster"

// Sizes labels the valid pixels of mask into 4-connected regions and
// returns a raster holding, at every pixel, the size in pixels of the
// region it belongs to, capped at maxSize. Pixels outside any region get
// size zero. The result is valid everywhere.
func Sizes(mask *raster.Image, maxSize int) *raster.Image {
	width, height := mask.Cols, mask.Rows
	n := width * height

	out := raster.NewImage(width, height)
	out.Fill(raster.Value(0))

	visited := make([]bool, n)
	stack := make([]int, 0, 256)
	member := make([]int, 0, 256)

	for idx := 0; idx < n; idx++ {
		if visited[idx] || !mask.Pix[idx].Valid {
			continue
		}

		// Collect one connected region with an explicit stack.
		stack = append(stack[:0], idx)
		member = member[:0]
		visited[idx] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			member = append(member, cur)

			x := cur % width
			y := cur / width
			if x > 0 {
				stack = push(stack, cur-1, mask, visited)
			}
			if x+1 < width {
				stack = push(stack, cur+1, mask, visited)
			}
			if y > 0 {
				stack = push(stack, cur-width, mask, visited)
			}
			if y+1 < height {
				stack = push(stack, cur+width, mask, visited)
			}
		}

		size := len(member)
		if size > maxSize {
			size = maxSize
		}
		for _, pix := range member {
			out.Pix[pix] = raster.Value(float64(size))
		}
	}
	return out
}

func push(stack []int, idx int, mask *raster.Image, visited []bool) []int {
	if visited[idx] || !mask.Pix[idx].Valid {
		return stack
	}
	visited[idx] = true
	return append(stack, idx)
}

// TwoThresholdFill labels the score raster with hysteresis: a pixel gets
// highLabel when it scores at least grow and its 4-connected region of
// grow-qualifying pixels contains at least one pixel scoring at least
// strict. Everything else, invalid pixels included, gets lowLabel.
func TwoThresholdFill(scores *raster.Image, strict, grow float64, lowLabel, highLabel uint8) []uint8 {
	width, height := scores.Cols, scores.Rows
	n := width * height

	out := make([]uint8, n)
	for i := range out {
		out[i] = lowLabel
	}

	qualifies := func(idx int) bool {
		px := scores.Pix[idx]
		return px.Valid && px.V >= grow
	}

	visited := make([]bool, n)
	stack := make([]int, 0, 256)
	member := make([]int, 0, 256)

	for idx := 0; idx < n; idx++ {
		if visited[idx] || !qualifies(idx) {
			continue
		}

		stack = append(stack[:0], idx)
		member = member[:0]
		visited[idx] = true
		seeded := false
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			member = append(member, cur)
			if scores.Pix[cur].V >= strict {
				seeded = true
			}

			x := cur % width
			y := cur / width
			if x > 0 && !visited[cur-1] && qualifies(cur-1) {
				visited[cur-1] = true
				stack = append(stack, cur-1)
			}
			if x+1 < width && !visited[cur+1] && qualifies(cur+1) {
				visited[cur+1] = true
				stack = append(stack, cur+1)
			}
			if y > 0 && !visited[cur-width] && qualifies(cur-width) {
				visited[cur-width] = true
				stack = append(stack, cur-width)
			}
			if y+1 < height && !visited[cur+width] && qualifies(cur+width) {
				visited[cur+width] = true
				stack = append(stack, cur+width)
			}
		}

		if seeded {
			for _, pix := range member {
				out[pix] = highLabel
			}
		}
	}
	return out
}
