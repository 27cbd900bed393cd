// ROI (Region of Interest) data model
package roi

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// RegionType distinguishes image-template regions from functional regions.
type RegionType string

const (
	TypeImage  RegionType = "image"
	TypeRegion RegionType = "region"
)

// Action is the interaction bound to a functional region.
type Action string

const (
	ActionNone  Action = ""
	ActionClick Action = "click"
	ActionOCR   Action = "ocr"
	ActionSwipe Action = "swipe"
)

// Shape is the geometric variant of a region. The bounding box lives on the
// Region itself; the shape only carries the variant-specific payload.
type Shape interface {
	shapeKind() string
}

// RectShape is a plain axis-aligned rectangle.
type RectShape struct{}

// CircleShape marks a region produced by circle detection. The bbox is the
// square enclosing the circle plus margin.
type CircleShape struct {
	Center image.Point
	Radius int
}

// FreeformShape carries the external contour of a segmented region.
type FreeformShape struct {
	Contour []image.Point
}

func (RectShape) shapeKind() string     { return "rect" }
func (CircleShape) shapeKind() string   { return "circle" }
func (FreeformShape) shapeKind() string { return "freeform" }

// ClickConfig holds click-action parameters.
type ClickConfig struct {
	Mode       string // "single" or "loop"
	Count      int    // -1 means unlimited
	IntervalMS int
}

// SwipeConfig holds swipe-action parameters.
type SwipeConfig struct {
	Direction string // top_to_bottom, bottom_to_top, left_to_right, right_to_left
	SpeedPxS  int
}

// Region is a rectangular/circular/freeform area of interest in source-image
// coordinates. Detectors create Regions; after creation only the owning
// collection mutates them.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int

	Name      string
	NodeName  string
	ImageName string

	Type        RegionType
	Action      Action
	Click       ClickConfig
	Swipe       SwipeConfig
	ImageAction string // "detect" or "detect_and_click"

	Shape Shape

	// Mask is an optional dense binary raster (0/255). The zero Mat means
	// no mask. The region owns it; callers must not Close it.
	Mask gocv.Mat

	ID         string
	Color      string
	Tags       []string
	ImagePath  string
	CreatedAt  time.Time
	ModifiedAt time.Time

	// Segmented marks regions produced by a segmentation pass rather than
	// a manual or geometric-detector rectangle.
	Segmented bool
}

// New creates a region with the given bbox and defaulted metadata.
func New(x, y, w, h int) Region {
	now := time.Now()
	return Region{
		X:           x,
		Y:           y,
		Width:       w,
		Height:      h,
		Type:        TypeImage,
		ImageAction: "detect",
		Click:       ClickConfig{Mode: "single", Count: 1, IntervalMS: 500},
		Swipe:       SwipeConfig{Direction: "top_to_bottom", SpeedPxS: 400},
		Shape:       RectShape{},
		ID:          uuid.NewString()[:8],
		Color:       "#00FF00",
		Mask:        gocv.NewMat(),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
}

// Rect returns the bounding box as an image.Rectangle.
func (r *Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Center returns the bbox center point.
func (r *Region) Center() image.Point {
	return image.Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

// Area returns the region area: mask pixel count when a mask is attached,
// otherwise bbox width*height.
func (r *Region) Area() int {
	if !r.Mask.Empty() {
		return gocv.CountNonZero(r.Mask)
	}
	return r.Width * r.Height
}

// Right returns the exclusive right edge.
func (r *Region) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r *Region) Bottom() int { return r.Y + r.Height }

// Contains reports whether the point lies inside the bbox.
func (r *Region) Contains(pt image.Point) bool {
	return pt.In(r.Rect())
}

// SetRect replaces the bbox and stamps the modification time.
func (r *Region) SetRect(rect image.Rectangle) {
	rect = rect.Canon()
	r.X = rect.Min.X
	r.Y = rect.Min.Y
	r.Width = rect.Dx()
	r.Height = rect.Dy()
	r.ModifiedAt = time.Now()
}

// Translate moves the region by (dx, dy).
func (r *Region) Translate(dx, dy int) {
	r.X += dx
	r.Y += dy
	r.ModifiedAt = time.Now()
}

// Rename sets the region name.
func (r *Region) Rename(name string) {
	r.Name = name
	r.ModifiedAt = time.Now()
}

// ClampToImage clamps the bbox into [0,w)x[0,h) keeping Width and Height
// positive. A region entirely outside the image collapses onto the border
// with 1x1 size.
func (r *Region) ClampToImage(w, h int) {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X > w-1 {
		r.X = w - 1
	}
	if r.Y > h-1 {
		r.Y = h - 1
	}
	if r.X+r.Width > w {
		r.Width = w - r.X
	}
	if r.Y+r.Height > h {
		r.Height = h - r.Y
	}
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	r.ModifiedAt = time.Now()
}

// Copy returns a duplicate with a fresh ID and a "_copy" name suffix. The
// mask, when present, is cloned so the copies do not alias.
func (r *Region) Copy() Region {
	dup := *r
	dup.ID = uuid.NewString()[:8]
	dup.Name = r.Name + "_copy"
	dup.Tags = append([]string(nil), r.Tags...)
	if !r.Mask.Empty() {
		dup.Mask = r.Mask.Clone()
	} else {
		dup.Mask = gocv.NewMat()
	}
	now := time.Now()
	dup.CreatedAt = now
	dup.ModifiedAt = now
	return dup
}

// Close releases the mask raster, if any.
func (r *Region) Close() {
	if !r.Mask.Empty() {
		r.Mask.Close()
	}
	r.Mask = gocv.NewMat()
}

func (r *Region) String() string {
	return fmt.Sprintf("Region(%s: %d,%d %dx%d)", r.Name, r.X, r.Y, r.Width, r.Height)
}
