// Contour helpers shared by the detectors and segmenters
package imgio

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var maskWhite = color.RGBA{255, 255, 255, 255}

// LargestContour extracts the external contours of a binary mask and returns
// the one with the largest area, copied out of gocv's vector storage. Returns
// nil when the mask has no contours.
func LargestContour(mask gocv.Mat) []image.Point {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return contours.At(best).ToPoints()
}

// ContourCentroid computes the area-moment centroid of a closed polygon. On
// degenerate moments (near-zero signed area) it falls back to the bbox
// center.
func ContourCentroid(pts []image.Point) image.Point {
	if len(pts) == 0 {
		return image.Point{}
	}
	var a, cx, cy float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := float64(pts[i].X*pts[j].Y - pts[j].X*pts[i].Y)
		a += cross
		cx += float64(pts[i].X+pts[j].X) * cross
		cy += float64(pts[i].Y+pts[j].Y) * cross
	}
	a /= 2
	if math.Abs(a) < 1e-6 || !isFinite(a) {
		return boundsCenter(pts)
	}
	return image.Pt(int(cx/(6*a)), int(cy/(6*a)))
}

// ContourBounds returns the bounding rectangle of a point set.
func ContourBounds(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// DrawFilledContour rasterizes one contour as a filled 255 blob onto dst.
func DrawFilledContour(dst *gocv.Mat, contour []image.Point) {
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{contour})
	defer pv.Close()
	gocv.DrawContours(dst, pv, 0, maskWhite, -1)
}

func boundsCenter(pts []image.Point) image.Point {
	b := ContourBounds(pts)
	return image.Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
