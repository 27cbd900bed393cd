package superpixel

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

const (
	slicIterations = 10
	slicMinRegion  = 4
)

// slicBackend is the preferred backend: SLIC clustering over the Lab color
// space. Grid-seeded cluster centers are perturbed to the lowest-gradient
// pixel in a 3x3 window, iterated over a 2S search window with the combined
// color/space distance, then orphan fragments are absorbed so every label is
// one connected blob. Deterministic for identical input.
type slicBackend struct{}

func (slicBackend) Name() string     { return "slic" }
func (slicBackend) Available() error { return nil }

type slicCenter struct {
	l, a, b float64
	x, y    float64
	count   float64
}

func (slicBackend) Segment(img gocv.Mat, regionSize int, ruler float64) ([]int32, int, error) {
	w, h := img.Cols(), img.Rows()
	if regionSize < slicMinRegion {
		return nil, 0, fmt.Errorf("region size %d below minimum %d", regionSize, slicMinRegion)
	}
	if w < regionSize || h < regionSize {
		return nil, 0, fmt.Errorf("image %dx%d smaller than region size %d", w, h, regionSize)
	}
	if ruler <= 0 {
		ruler = 10.0
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)
	pix := lab.ToBytes() // 3 bytes per pixel, row-major

	s := regionSize
	centers := seedCenters(pix, w, h, s)
	if len(centers) == 0 {
		return nil, 0, fmt.Errorf("no seeds for %dx%d at region size %d", w, h, s)
	}

	labels := make([]int32, w*h)
	dists := make([]float64, w*h)
	spatialWeight := (ruler * ruler) / float64(s*s)

	for iter := 0; iter < slicIterations; iter++ {
		for i := range dists {
			dists[i] = math.Inf(1)
		}

		for k := range centers {
			c := &centers[k]
			x0 := max(0, int(c.x)-s)
			x1 := min(w-1, int(c.x)+s)
			y0 := max(0, int(c.y)-s)
			y1 := min(h-1, int(c.y)+s)

			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					idx := y*w + x
					off := idx * 3
					dl := float64(pix[off]) - c.l
					da := float64(pix[off+1]) - c.a
					db := float64(pix[off+2]) - c.b
					dx := float64(x) - c.x
					dy := float64(y) - c.y
					d := dl*dl + da*da + db*db + (dx*dx+dy*dy)*spatialWeight
					if d < dists[idx] {
						dists[idx] = d
						labels[idx] = int32(k)
					}
				}
			}
		}

		// Recompute centers as the mean of their members.
		for k := range centers {
			centers[k] = slicCenter{}
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				c := &centers[labels[idx]]
				off := idx * 3
				c.l += float64(pix[off])
				c.a += float64(pix[off+1])
				c.b += float64(pix[off+2])
				c.x += float64(x)
				c.y += float64(y)
				c.count++
			}
		}
		for k := range centers {
			c := &centers[k]
			if c.count > 0 {
				c.l /= c.count
				c.a /= c.count
				c.b /= c.count
				c.x /= c.count
				c.y /= c.count
			}
		}
	}

	count := enforceConnectivity(labels, w, h, s)
	return labels, count, nil
}

// seedCenters places cluster seeds on a regular grid, nudged to the lowest
// gradient pixel in a 3x3 window so seeds do not sit on edges.
func seedCenters(pix []byte, w, h, s int) []slicCenter {
	var centers []slicCenter
	for y := s / 2; y < h; y += s {
		for x := s / 2; x < w; x += s {
			sx, sy := lowestGradient(pix, w, h, x, y)
			off := (sy*w + sx) * 3
			centers = append(centers, slicCenter{
				l: float64(pix[off]),
				a: float64(pix[off+1]),
				b: float64(pix[off+2]),
				x: float64(sx),
				y: float64(sy),
			})
		}
	}
	return centers
}

func lowestGradient(pix []byte, w, h, x, y int) (int, int) {
	bestX, bestY := x, y
	bestGrad := math.Inf(1)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 1 || nx >= w-1 || ny < 1 || ny >= h-1 {
				continue
			}
			g := gradientAt(pix, w, nx, ny)
			if g < bestGrad {
				bestGrad = g
				bestX, bestY = nx, ny
			}
		}
	}
	return bestX, bestY
}

func gradientAt(pix []byte, w, x, y int) float64 {
	l := func(px, py int) float64 { return float64(pix[(py*w+px)*3]) }
	gx := l(x+1, y) - l(x-1, y)
	gy := l(x, y+1) - l(x, y-1)
	return gx*gx + gy*gy
}

// enforceConnectivity relabels the raster so every label is one 4-connected
// blob: fragments smaller than s*s/4 are absorbed into the neighboring label
// encountered first in scan order. Returns the final label count.
func enforceConnectivity(labels []int32, w, h, s int) int {
	minSize := (s * s) / 4
	newLabels := make([]int32, len(labels))
	for i := range newLabels {
		newLabels[i] = -1
	}

	var next int32
	stack := make([]int, 0, minSize*4)

	for start := range labels {
		if newLabels[start] >= 0 {
			continue
		}

		// Label of an already-relabeled 4-neighbor, used to absorb
		// undersized fragments.
		adjacent := int32(0)
		sx, sy := start%w, start/w
		if sx > 0 && newLabels[start-1] >= 0 {
			adjacent = newLabels[start-1]
		} else if sy > 0 && newLabels[start-w] >= 0 {
			adjacent = newLabels[start-w]
		}

		stack = append(stack[:0], start)
		newLabels[start] = next
		member := []int{start}
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := idx % w
			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= len(labels) {
					continue
				}
				// Horizontal neighbors must stay on the row.
				if (n == idx-1 && x == 0) || (n == idx+1 && x == w-1) {
					continue
				}
				if newLabels[n] < 0 && labels[n] == labels[start] {
					newLabels[n] = next
					stack = append(stack, n)
					member = append(member, n)
				}
			}
		}

		if len(member) < minSize && next > 0 {
			for _, idx := range member {
				newLabels[idx] = adjacent
			}
		} else {
			next++
		}
	}

	copy(labels, newLabels)
	return compactLabels(labels)
}
