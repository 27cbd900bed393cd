// Point-seeded interactive foreground extraction
package segment

import (
	"errors"
	"image"
	"log/slog"
	"math"

	"gocv.io/x/gocv"

	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

// ErrEstimatorFailed marks a numerical failure of the foreground/background
// estimator. It is logged and converted to a no-result at the operation
// boundary so one bad region never aborts an interactive session.
var ErrEstimatorFailed = errors.New("foreground estimator failed")

const (
	grabCutIterations = 5
	cutMinContourArea = 100.0
)

// CutSegmenter runs a rectangle-seeded iterative foreground/background
// estimator (GrabCut) around a clicked point.
type CutSegmenter struct {
	logger *slog.Logger
}

func NewCutSegmenter(logger *slog.Logger) *CutSegmenter {
	return &CutSegmenter{logger: logger}
}

// SegmentAtPoint builds a hint rectangle of side 2*expansion around the
// clamped seed point, runs the estimator, and picks the best foreground
// contour: the largest one containing the seed, falling back to the one whose
// centroid lies nearest the seed. Returns (nil, empty Mat, nil) when no
// contour qualifies or the estimator fails.
//
// The returned mask is image-sized, 0/255, filled from the selected contour
// only; the caller owns both the region and the mask.
func (cs *CutSegmenter) SegmentAtPoint(img gocv.Mat, x, y, expansion int) (*roi.Region, gocv.Mat, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, gocv.NewMat(), err
	}

	bgr := toBGR(img)
	defer bgr.Close()

	w, h := bgr.Cols(), bgr.Rows()
	x = clamp(x, 0, w-1)
	y = clamp(y, 0, h-1)

	rectX := max(0, x-expansion)
	rectY := max(0, y-expansion)
	rectW := min(w-rectX, expansion*2)
	rectH := min(h-rectY, expansion*2)
	// The estimator needs background samples outside the hint rect; a rect
	// that degenerates or swallows the image cannot be iterated.
	if rectW < 3 || rectH < 3 || (rectW >= w && rectH >= h) {
		cs.logger.Warn("Cut segmentation skipped", "error", ErrEstimatorFailed,
			"rect_w", rectW, "rect_h", rectH)
		return nil, gocv.NewMat(), nil
	}
	hint := image.Rect(rectX, rectY, rectX+rectW, rectY+rectH)

	mask := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	defer mask.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(bgr, &mask, hint, &bgdModel, &fgdModel, grabCutIterations, gocv.GCInitWithRect)

	// Collapse the 4-level label map: definite/probable foreground -> 255.
	binary := foregroundMask(mask)
	defer binary.Close()

	contour := cs.selectContour(binary, x, y)
	if contour == nil {
		cs.logger.Debug("Cut segmentation found no qualifying contour", "x", x, "y", y)
		return nil, gocv.NewMat(), nil
	}

	bounds := imgio.ContourBounds(contour)
	r := roi.New(bounds.Min.X, bounds.Min.Y, bounds.Dx(), bounds.Dy())
	r.Rename("segmented")
	r.Segmented = true
	r.Shape = roi.FreeformShape{Contour: contour}

	finalMask := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	imgio.DrawFilledContour(&finalMask, contour)
	r.Mask = finalMask.Clone()

	cs.logger.Info("Cut segmentation done",
		"x", x, "y", y,
		"bbox_w", bounds.Dx(), "bbox_h", bounds.Dy())
	return &r, finalMask, nil
}

// SegmentWithRefinement runs SegmentAtPoint and smooths the mask boundary
// with open/close morphology, Gaussian blur and a re-threshold.
func (cs *CutSegmenter) SegmentWithRefinement(img gocv.Mat, x, y, expansion int) (*roi.Region, gocv.Mat, error) {
	r, mask, err := cs.SegmentAtPoint(img, x, y, expansion)
	if err != nil || r == nil {
		return r, mask, err
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()

	opened := gocv.NewMat()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)
	closed := gocv.NewMat()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)
	opened.Close()

	blurred := gocv.NewMat()
	gocv.GaussianBlur(closed, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
	closed.Close()

	refined := gocv.NewMat()
	gocv.Threshold(blurred, &refined, 127, 255, gocv.ThresholdBinary)
	blurred.Close()
	mask.Close()

	r.Mask.Close()
	r.Mask = refined.Clone()
	return r, refined, nil
}

// CreateTransparentCrop crops image and mask to the region bbox and returns
// a BGRA image whose alpha channel is the cropped mask.
func (cs *CutSegmenter) CreateTransparentCrop(img, mask gocv.Mat, r *roi.Region) (gocv.Mat, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return gocv.NewMat(), err
	}
	if mask.Empty() {
		return gocv.NewMat(), imgio.ErrEmptyImage
	}

	rect := r.Rect().Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if rect.Empty() {
		return gocv.NewMat(), errors.New("region outside image bounds")
	}

	imgView := img.Region(rect)
	defer imgView.Close()
	maskView := mask.Region(rect)
	defer maskView.Close()

	bgra := gocv.NewMat()
	gocv.CvtColor(imgView, &bgra, gocv.ColorBGRToBGRA)

	channels := gocv.Split(bgra)
	bgra.Close()
	alpha := maskView.Clone()
	channels[3].Close()
	channels[3] = alpha

	out := gocv.NewMat()
	gocv.Merge(channels, &out)
	for _, ch := range channels {
		ch.Close()
	}
	return out, nil
}

// selectContour applies the contour selection policy around the seed point.
func (cs *CutSegmenter) selectContour(binary gocv.Mat, x, y int) []image.Point {
	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best []image.Point
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < cutMinContourArea {
			continue
		}
		if gocv.PointPolygonTest(c, image.Pt(x, y), false) >= 0 && area > bestArea {
			bestArea = area
			best = c.ToPoints()
		}
	}
	if best != nil {
		return best
	}

	// No contour contains the seed: take the one whose centroid is nearest.
	minDist := math.Inf(1)
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) < cutMinContourArea {
			continue
		}
		pts := c.ToPoints()
		centroid := imgio.ContourCentroid(pts)
		dx := float64(x - centroid.X)
		dy := float64(y - centroid.Y)
		if dist := math.Hypot(dx, dy); dist < minDist {
			minDist = dist
			best = pts
		}
	}
	return best
}

// foregroundMask collapses GrabCut's 4-level label map into a 0/255 raster.
// Labels 0 (background) and 2 (probable background) map to 0.
func foregroundMask(labelMap gocv.Mat) gocv.Mat {
	fg := gocv.NewMat()
	one := gocv.NewScalar(1, 0, 0, 0)
	gocv.InRangeWithScalar(labelMap, one, one, &fg)

	probFg := gocv.NewMat()
	three := gocv.NewScalar(3, 0, 0, 0)
	gocv.InRangeWithScalar(labelMap, three, three, &probFg)

	out := gocv.NewMat()
	gocv.BitwiseOr(fg, probFg, &out)
	fg.Close()
	probFg.Close()
	return out
}
