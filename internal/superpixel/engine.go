// Superpixel segmentation engine with generation-stamped results
package superpixel

import (
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

// Region is one superpixel cell extracted from a segmentation run. Labels are
// only valid against the run (Result) that produced them.
type Region struct {
	Label    int
	Mask     gocv.Mat // image-sized 0/255 raster
	Contour  []image.Point
	Bounds   image.Rectangle
	Area     float64 // mask pixel count
	Centroid image.Point
	AvgColor [3]float64 // BGR mean over the mask
}

// Result is one generation-stamped segmentation run. Regions are sorted by
// area descending. Callers holding a Result across Segment calls compare
// Generation before trusting cached label lookups.
type Result struct {
	Generation uint64
	Backend    string
	Labels     gocv.Mat // CV32S label raster
	Regions    []Region

	raster  []int32
	width   int
	height  int
	byLabel map[int]int
}

// Region returns the region for a label, nil when the label does not exist
// in this run.
func (r *Result) Region(label int) *Region {
	idx, ok := r.byLabel[label]
	if !ok {
		return nil
	}
	return &r.Regions[idx]
}

// Close releases the label raster and every region mask.
func (r *Result) Close() {
	if !r.Labels.Empty() {
		r.Labels.Close()
	}
	for i := range r.Regions {
		if !r.Regions[i].Mask.Empty() {
			r.Regions[i].Mask.Close()
		}
	}
	r.Regions = nil
	r.raster = nil
	r.byLabel = nil
}

// Engine partitions whole images into superpixels. The preferred backend is
// tried first; on failure the engine transparently falls back and records
// which backend served the result. Each Segment call fully replaces the
// engine state; callers must serialize concurrent use.
type Engine struct {
	mu         sync.RWMutex
	backends   []Backend
	logger     *slog.Logger
	current    *Result
	generation uint64
	processing bool
}

// NewEngine probes the standard backends (SLIC preferred, k-means fallback)
// and returns an engine over the available ones.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	return NewEngineWithBackends(logger, slicBackend{}, kmeansBackend{})
}

// NewEngineWithBackends builds an engine over an explicit backend preference
// order, dropping backends whose probe fails.
func NewEngineWithBackends(logger *slog.Logger, backends ...Backend) (*Engine, error) {
	available := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if err := b.Available(); err != nil {
			logger.Warn("Superpixel backend unavailable", "backend", b.Name(), "error", err)
			continue
		}
		available = append(available, b)
	}
	if len(available) == 0 {
		return nil, ErrBackendUnavailable
	}
	return &Engine{backends: available, logger: logger}, nil
}

// Segment partitions the image into approximately area/regionSize^2 cells.
// ruler weights spatial compactness against color fidelity. The previous
// run's raster and regions are released; stale labels must not be
// dereferenced afterwards.
func (e *Engine) Segment(img gocv.Mat, regionSize int, ruler float64) (*Result, error) {
	if err := imgio.ValidateImage(img); err != nil {
		return nil, err
	}

	bgr := toBGR(img)
	defer bgr.Close()
	w, h := bgr.Cols(), bgr.Rows()

	var labels []int32
	var count int
	var backend string
	var lastErr error
	for _, b := range e.backends {
		var err error
		labels, count, err = b.Segment(bgr, regionSize, ruler)
		if err == nil {
			backend = b.Name()
			break
		}
		lastErr = err
		e.logger.Warn("Superpixel backend failed, falling back",
			"backend", b.Name(), "error", err)
		labels = nil
	}
	if labels == nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
	}

	labelMat, err := labelsToMat(labels, w, h)
	if err != nil {
		return nil, fmt.Errorf("build label raster: %w", err)
	}

	regions := extractRegions(bgr, labels, count, w, h)
	byLabel := make(map[int]int, len(regions))
	for i := range regions {
		byLabel[regions[i].Label] = i
	}

	e.mu.Lock()
	e.generation++
	res := &Result{
		Generation: e.generation,
		Backend:    backend,
		Labels:     labelMat,
		Regions:    regions,
		raster:     labels,
		width:      w,
		height:     h,
		byLabel:    byLabel,
	}
	if e.current != nil {
		e.current.Close()
	}
	e.current = res
	e.mu.Unlock()

	e.logger.Info("Superpixel segmentation done",
		"backend", backend,
		"generation", res.Generation,
		"regions", len(regions),
		"region_size", regionSize,
		"ruler", ruler)
	return res, nil
}

// SegmentAsync runs Segment on a worker goroutine and reports completion via
// the done callback. A second call while one run is in flight is rejected.
func (e *Engine) SegmentAsync(img gocv.Mat, regionSize int, ruler float64, done func(*Result, error)) error {
	e.mu.Lock()
	if e.processing {
		e.mu.Unlock()
		return fmt.Errorf("segmentation already in progress")
	}
	e.processing = true
	e.mu.Unlock()

	owned := img.Clone()
	go func() {
		defer owned.Close()
		res, err := e.Segment(owned, regionSize, ruler)

		e.mu.Lock()
		e.processing = false
		e.mu.Unlock()

		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

// IsProcessing reports whether an async run is in flight.
func (e *Engine) IsProcessing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.processing
}

// Current returns the latest result, nil before the first Segment call.
func (e *Engine) Current() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// RegionAtPoint is an O(1) label-raster lookup. Out-of-bounds points and
// calls before the first run return nil.
func (e *Engine) RegionAtPoint(x, y int) *Region {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := e.current
	if res == nil || x < 0 || x >= res.width || y < 0 || y >= res.height {
		return nil
	}
	return res.Region(int(res.raster[y*res.width+x]))
}

// RegionsInRect returns every region whose label appears anywhere inside the
// normalized, clamped rectangle.
func (e *Engine) RegionsInRect(x1, y1, x2, y2 int) []*Region {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := e.current
	if res == nil {
		return nil
	}

	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	x1 = max(0, x1)
	y1 = max(0, y1)
	x2 = min(res.width, x2)
	y2 = min(res.height, y2)

	seen := make(map[int32]bool)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			seen[res.raster[y*res.width+x]] = true
		}
	}

	var out []*Region
	for i := range res.Regions {
		if seen[int32(res.Regions[i].Label)] {
			out = append(out, &res.Regions[i])
		}
	}
	return out
}

// MergeRegions unions the member masks into one freeform region. A single
// region returns its own bbox and contour unchanged; an empty list returns
// nil.
func (e *Engine) MergeRegions(regions []*Region) *roi.Region {
	if len(regions) == 0 {
		return nil
	}

	if len(regions) == 1 {
		src := regions[0]
		r := roi.New(src.Bounds.Min.X, src.Bounds.Min.Y, src.Bounds.Dx(), src.Bounds.Dy())
		r.Segmented = true
		r.Shape = roi.FreeformShape{Contour: append([]image.Point(nil), src.Contour...)}
		if !src.Mask.Empty() {
			r.Mask = src.Mask.Clone()
		}
		return &r
	}

	merged := regions[0].Mask.Clone()
	for _, src := range regions[1:] {
		next := gocv.NewMat()
		gocv.BitwiseOr(merged, src.Mask, &next)
		merged.Close()
		merged = next
	}

	contour := imgio.LargestContour(merged)
	if contour == nil {
		merged.Close()
		return nil
	}

	bounds := imgio.ContourBounds(contour)
	r := roi.New(bounds.Min.X, bounds.Min.Y, bounds.Dx(), bounds.Dy())
	r.Rename(fmt.Sprintf("superpixel_merge_%d", len(regions)))
	r.Segmented = true
	r.Shape = roi.FreeformShape{Contour: contour}
	r.Mask = merged
	return &r
}

// FilterRegions returns the current regions passing the attribute predicate.
// maxArea <= 0 means unbounded.
func (e *Engine) FilterRegions(minArea, maxArea float64, minWH int) []*Region {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := e.current
	if res == nil {
		return nil
	}

	var out []*Region
	for i := range res.Regions {
		r := &res.Regions[i]
		if r.Area < minArea {
			continue
		}
		if maxArea > 0 && r.Area > maxArea {
			continue
		}
		if r.Bounds.Dx() < minWH || r.Bounds.Dy() < minWH {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RenderBoundaries overlays superpixel cell boundaries in red onto a copy of
// the image for preview output.
func (e *Engine) RenderBoundaries(img gocv.Mat) gocv.Mat {
	e.mu.RLock()
	res := e.current
	e.mu.RUnlock()
	if res == nil || img.Empty() {
		return img.Clone()
	}

	bgr := toBGR(img)
	w, h := bgr.Cols(), bgr.Rows()
	if w != res.width || h != res.height {
		return bgr
	}

	data := bgr.ToBytes()
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			l := res.raster[idx]
			if res.raster[idx-1] != l || res.raster[idx+1] != l ||
				res.raster[idx-w] != l || res.raster[idx+w] != l {
				data[idx*3] = 0
				data[idx*3+1] = 0
				data[idx*3+2] = 255
			}
		}
	}
	bgr.Close()

	out, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.NewMat()
	}
	return out
}

// Close releases the current result.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Close()
		e.current = nil
	}
}

// extractRegions builds one Region per label: mask, largest external
// contour, bbox, pixel-count area, centroid and mean color, sorted by area
// descending.
func extractRegions(bgr gocv.Mat, labels []int32, count, w, h int) []Region {
	masks := make([][]byte, count)
	areas := make([]int, count)
	for idx, v := range labels {
		if masks[v] == nil {
			masks[v] = make([]byte, w*h)
		}
		masks[v][idx] = 255
		areas[v]++
	}

	regions := make([]Region, 0, count)
	for label, raw := range masks {
		if raw == nil {
			continue
		}
		mask, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, raw)
		if err != nil {
			continue
		}

		contour := imgio.LargestContour(mask)
		if contour == nil {
			mask.Close()
			continue
		}

		mean := bgr.MeanWithMask(mask)

		regions = append(regions, Region{
			Label:    label,
			Mask:     mask,
			Contour:  contour,
			Bounds:   imgio.ContourBounds(contour),
			Area:     float64(areas[label]),
			Centroid: imgio.ContourCentroid(contour),
			AvgColor: [3]float64{mean.Val1, mean.Val2, mean.Val3},
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})
	return regions
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
