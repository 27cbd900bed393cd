// Seed-point color flood segmentation
package segment

import (
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

// minComponentArea filters connected components considered speckle.
const minComponentArea = 20

// FloodSegmenter extracts the connected component of color-similar pixels
// around a seed point. Fully deterministic for identical input.
type FloodSegmenter struct {
	logger *slog.Logger
}

func NewFloodSegmenter(logger *slog.Logger) *FloodSegmenter {
	return &FloodSegmenter{logger: logger}
}

// DetectAtPoint samples the color at the (clamped) seed point, binarizes the
// whole image by Euclidean color distance against the seed, cleans the mask
// with open/close morphology and extracts 8-connected components.
//
// With mergeAll false the component containing the seed is returned, nil when
// that component is background or smaller than the speckle floor. With
// mergeAll true the bboxes of all qualifying components are unioned; the
// returned region's mask covers exactly the member components.
func (fs *FloodSegmenter) DetectAtPoint(img gocv.Mat, x, y int, tolerance float64, mergeAll bool) (*roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	bgr := toBGR(img)
	defer bgr.Close()

	w, h := bgr.Cols(), bgr.Rows()
	x = clamp(x, 0, w-1)
	y = clamp(y, 0, h-1)

	mask := colorDistanceMask(bgr, x, y, tolerance)
	defer mask.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)
	cleaned := gocv.NewMat()
	defer cleaned.Close()
	gocv.MorphologyEx(opened, &cleaned, gocv.MorphClose, kernel)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	numLabels := gocv.ConnectedComponentsWithStats(cleaned, &labels, &stats, &centroids)

	if numLabels < 2 { // background only
		return nil, nil
	}

	if mergeAll {
		return fs.mergeAllComponents(labels, stats, numLabels, w, h)
	}
	return fs.seedComponent(labels, stats, x, y)
}

// seedComponent returns the component under the seed point.
func (fs *FloodSegmenter) seedComponent(labels, stats gocv.Mat, x, y int) (*roi.Region, error) {
	label := int(labels.GetIntAt(y, x))
	if label == 0 {
		return nil, nil
	}
	area := int(stats.GetIntAt(label, 4))
	if area < minComponentArea {
		return nil, nil
	}

	compMask := componentMask(labels, label)
	contour := imgio.LargestContour(compMask)

	r := roi.New(
		int(stats.GetIntAt(label, 0)),
		int(stats.GetIntAt(label, 1)),
		int(stats.GetIntAt(label, 2)),
		int(stats.GetIntAt(label, 3)),
	)
	r.Rename("color_blob")
	r.Mask = compMask
	if contour != nil {
		r.Shape = roi.FreeformShape{Contour: contour}
	}

	fs.logger.Debug("Flood component extracted", "label", label, "area", area)
	return &r, nil
}

// mergeAllComponents unions the bboxes of every qualifying component.
func (fs *FloodSegmenter) mergeAllComponents(labels, stats gocv.Mat, numLabels, w, h int) (*roi.Region, error) {
	x1, y1, x2, y2 := w, h, 0, 0
	valid := 0

	memberMask := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	for label := 1; label < numLabels; label++ {
		area := int(stats.GetIntAt(label, 4))
		if area < minComponentArea {
			continue
		}
		cx := int(stats.GetIntAt(label, 0))
		cy := int(stats.GetIntAt(label, 1))
		cw := int(stats.GetIntAt(label, 2))
		ch := int(stats.GetIntAt(label, 3))
		x1 = min(x1, cx)
		y1 = min(y1, cy)
		x2 = max(x2, cx+cw)
		y2 = max(y2, cy+ch)
		valid++

		comp := componentMask(labels, label)
		merged := gocv.NewMat()
		gocv.BitwiseOr(memberMask, comp, &merged)
		comp.Close()
		memberMask.Close()
		memberMask = merged
	}

	if valid == 0 {
		memberMask.Close()
		return nil, nil
	}

	contour := imgio.LargestContour(memberMask)

	r := roi.New(x1, y1, x2-x1, y2-y1)
	r.Rename("color_merged")
	r.Mask = memberMask
	if contour != nil {
		r.Shape = roi.FreeformShape{Contour: contour}
	}

	fs.logger.Debug("Flood components merged", "components", valid)
	return &r, nil
}

// colorDistanceMask binarizes the image by per-pixel Euclidean distance to
// the seed color.
func colorDistanceMask(bgr gocv.Mat, x, y int, tolerance float64) gocv.Mat {
	w, h := bgr.Cols(), bgr.Rows()
	data := bgr.ToBytes()
	seedOff := (y*w + x) * 3
	sb := float64(data[seedOff])
	sg := float64(data[seedOff+1])
	sr := float64(data[seedOff+2])

	tolSq := tolerance * tolerance
	out := make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		db := float64(data[i*3]) - sb
		dg := float64(data[i*3+1]) - sg
		dr := float64(data[i*3+2]) - sr
		if db*db+dg*dg+dr*dr <= tolSq {
			out[i] = 255
		}
	}

	mask, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, out)
	if err != nil {
		return gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	}
	return mask
}

// componentMask builds the 0/255 mask of one connected-component label.
func componentMask(labels gocv.Mat, label int) gocv.Mat {
	mask := gocv.NewMat()
	lb := gocv.NewScalar(float64(label), 0, 0, 0)
	gocv.InRangeWithScalar(labels, lb, lb, &mask)
	return mask
}

func toBGR(img gocv.Mat) gocv.Mat {
	switch img.Channels() {
	case 3:
		return img.Clone()
	case 4:
		out := gocv.NewMat()
		gocv.CvtColor(img, &out, gocv.ColorBGRAToBGR)
		return out
	default:
		out := gocv.NewMat()
		gocv.CvtColor(img, &out, gocv.ColorGrayToBGR)
		return out
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
