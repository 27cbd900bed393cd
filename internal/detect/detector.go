// Shape-based region detectors for UI screenshots
package detect

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"gocv.io/x/gocv"

	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

// Hough circle transform sensitivity. Tuned for mobile-UI screenshots at
// typical phone resolutions.
const (
	houghDP        = 1.0
	houghMinDist   = 20.0
	houghParam1    = 50.0
	houghParam2    = 30.0
	circleMargin   = 2
	redDotMinArea  = 30.0
	redDotMaxArea  = 5000.0
	minCircularity = 0.6
	buttonMinArea  = 200.0
	iconMinArea    = 100.0
)

// Detector finds candidate regions via geometric heuristics. Every method
// returns an empty slice, never an error, when nothing qualifies; errors are
// reserved for malformed input.
type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// DetectCircles runs a Hough circle transform and returns one square region
// per hit (circle bbox plus margin, clamped to the image).
func (d *Detector) DetectCircles(img gocv.Mat, minRadius, maxRadius int) ([]roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	gray := toGray(img)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, 5)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		houghDP, houghMinDist, houghParam1, houghParam2, minRadius, maxRadius)

	var regions []roi.Region
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		if len(v) < 3 {
			continue
		}
		cx, cy, radius := int(v[0]), int(v[1]), int(v[2])
		r := circleRegion(img, cx, cy, radius)
		r.Rename(fmt.Sprintf("circle_%02d", len(regions)+1))
		regions = append(regions, r)
	}

	d.logger.Debug("Circle detection done", "count", len(regions))
	return regions, nil
}

// DetectRedDots finds small red circular markers (notification badges). Red
// wraps around hue 0, so the mask is the union of the two end bands.
func (d *Detector) DetectRedDots(img gocv.Mat) ([]roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	mask1 := gocv.NewMat()
	defer mask1.Close()
	gocv.InRangeWithScalar(hsv, gocv.NewScalar(0, 100, 100, 0), gocv.NewScalar(10, 255, 255, 0), &mask1)

	mask2 := gocv.NewMat()
	defer mask2.Close()
	gocv.InRangeWithScalar(hsv, gocv.NewScalar(160, 100, 100, 0), gocv.NewScalar(180, 255, 255, 0), &mask2)

	redMask := gocv.NewMat()
	defer redMask.Close()
	gocv.BitwiseOr(mask1, mask2, &redMask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyExWithParams(redMask, &closed, gocv.MorphClose, kernel, 2, gocv.BorderConstant)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []roi.Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < redDotMinArea || area > redDotMaxArea {
			continue
		}

		perimeter := gocv.ArcLength(contour, true)
		if perimeter <= 0 {
			continue
		}
		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity <= minCircularity {
			continue
		}

		x, y, radius := gocv.MinEnclosingCircle(contour)
		r := circleRegion(img, int(x), int(y), int(radius))
		r.Rename(fmt.Sprintf("red_dot_%02d", len(regions)+1))
		regions = append(regions, r)
	}

	d.logger.Debug("Red dot detection done", "count", len(regions))
	return regions, nil
}

// DetectUIButtons finds high-contrast closed areas that look like buttons or
// rounded rectangles.
func (d *Detector) DetectUIButtons(img gocv.Mat) ([]roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	gray := toGray(img)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, 11, 2)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()
	morph := gocv.NewMat()
	defer morph.Close()
	gocv.MorphologyExWithParams(thresh, &morph, gocv.MorphClose, kernel, 2, gocv.BorderConstant)

	contours := gocv.FindContours(morph, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	maxArea := float64(img.Cols()*img.Rows()) * 0.5
	var regions []roi.Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < buttonMinArea || area > maxArea {
			continue
		}

		rect := gocv.BoundingRect(contour)
		if rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < 0.1 || aspect > 10 {
			continue
		}

		// Rounded rectangles and circles approximate to >= 4 vertices;
		// line fragments do not.
		approx := gocv.ApproxPolyDP(contour, 0.02*gocv.ArcLength(contour, true), true)
		vertices := approx.Size()
		approx.Close()
		if vertices < 4 {
			continue
		}

		r := roi.New(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		r.Rename(fmt.Sprintf("button_%02d", len(regions)+1))
		regions = append(regions, r)
	}

	d.logger.Debug("Button detection done", "count", len(regions))
	return regions, nil
}

// DetectIcons finds compact near-square elements via edge contours.
func (d *Detector) DetectIcons(img gocv.Mat) ([]roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	gray := toGray(img)
	defer gray.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	contours := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	maxArea := float64(img.Cols()*img.Rows()) * 0.3
	var regions []roi.Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < iconMinArea || area > maxArea {
			continue
		}

		rect := gocv.BoundingRect(contour)
		shorter := min(rect.Dx(), rect.Dy())
		if shorter == 0 {
			continue
		}
		if float64(max(rect.Dx(), rect.Dy()))/float64(shorter) > 2 {
			continue
		}

		r := roi.New(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		r.Rename(fmt.Sprintf("icon_%02d", len(regions)+1))
		regions = append(regions, r)
	}

	d.logger.Debug("Icon detection done", "count", len(regions))
	return regions, nil
}

// DetectAll runs all four detectors, deduplicates the concatenated candidates
// and renames the survivors auto_NN in merge order.
func (d *Detector) DetectAll(img gocv.Mat) ([]roi.Region, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	var all []roi.Region
	circles, _ := d.DetectCircles(img, 5, 100)
	all = append(all, circles...)
	redDots, _ := d.DetectRedDots(img)
	all = append(all, redDots...)
	buttons, _ := d.DetectUIButtons(img)
	all = append(all, buttons...)
	icons, _ := d.DetectIcons(img)
	all = append(all, icons...)

	merged := MergeOverlapping(all, DefaultIoUThreshold)
	for i := range merged {
		merged[i].Rename(fmt.Sprintf("auto_%02d", i+1))
	}

	d.logger.Info("Auto detection done",
		"candidates", len(all),
		"kept", len(merged))
	return merged, nil
}

// RenderDetections draws region boundaries and labels onto a copy of the
// input for preview output. Circles draw in blue, everything else in green.
func RenderDetections(img gocv.Mat, regions []roi.Region) gocv.Mat {
	out := img.Clone()
	green := color.RGBA{0, 255, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}

	for i := range regions {
		r := &regions[i]
		c := green
		if circle, ok := r.Shape.(roi.CircleShape); ok {
			c = blue
			gocv.Circle(&out, circle.Center, circle.Radius, c, 2)
		}
		gocv.Rectangle(&out, r.Rect(), c, 2)
		gocv.PutText(&out, r.Name, image.Pt(r.X, r.Y-5), gocv.FontHersheySimplex, 0.4, c, 1)
	}
	return out
}

// circleRegion builds a circle-shaped region: square bbox enclosing the
// circle plus margin, clamped to the image.
func circleRegion(img gocv.Mat, cx, cy, radius int) roi.Region {
	x := max(0, cx-radius-circleMargin)
	y := max(0, cy-radius-circleMargin)
	w := min(img.Cols()-x, radius*2+2*circleMargin)
	h := min(img.Rows()-y, radius*2+2*circleMargin)

	r := roi.New(x, y, w, h)
	r.Shape = roi.CircleShape{Center: image.Pt(cx, cy), Radius: radius}
	return r
}

func toGray(img gocv.Mat) gocv.Mat {
	if img.Channels() == 1 {
		return img.Clone()
	}
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return gray
}
