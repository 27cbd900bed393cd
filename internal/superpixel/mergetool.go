package superpixel

import (
	"log/slog"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"screen-region-engine/internal/roi"
)

// MergeTool drives interactive superpixel merging: click and rectangle
// selection over the engine's current run, plus a similarity-based automatic
// pass. Selection state is keyed by label and tied to the run generation that
// produced it.
type MergeTool struct {
	engine *Engine
	logger *slog.Logger

	selected   map[int]bool
	generation uint64
	merged     []*roi.Region
}

func NewMergeTool(engine *Engine, logger *slog.Logger) *MergeTool {
	return &MergeTool{
		engine:   engine,
		logger:   logger,
		selected: make(map[int]bool),
	}
}

// syncGeneration drops the selection when the engine has been re-run since
// it was built.
func (t *MergeTool) syncGeneration() {
	res := t.engine.Current()
	if res == nil {
		t.selected = make(map[int]bool)
		t.generation = 0
		return
	}
	if res.Generation != t.generation {
		t.selected = make(map[int]bool)
		t.generation = res.Generation
	}
}

// ClickSelect resolves the region under the point. With additive set the
// region's membership toggles; otherwise the selection is replaced by the
// region alone. A miss clears the selection in non-additive mode.
func (t *MergeTool) ClickSelect(x, y int, additive bool) *Region {
	t.syncGeneration()

	region := t.engine.RegionAtPoint(x, y)
	if region == nil {
		if !additive {
			t.selected = make(map[int]bool)
		}
		return nil
	}

	if additive {
		if t.selected[region.Label] {
			delete(t.selected, region.Label)
		} else {
			t.selected[region.Label] = true
		}
	} else {
		t.selected = map[int]bool{region.Label: true}
	}
	return region
}

// RectSelect adds every region touching the rectangle to the selection.
// Existing members stay selected.
func (t *MergeTool) RectSelect(x1, y1, x2, y2 int) []*Region {
	t.syncGeneration()

	hits := t.engine.RegionsInRect(x1, y1, x2, y2)
	for _, r := range hits {
		t.selected[r.Label] = true
	}
	return hits
}

// SelectedRegions returns the currently selected regions in the result's
// area-descending order.
func (t *MergeTool) SelectedRegions() []*Region {
	t.syncGeneration()

	res := t.engine.Current()
	if res == nil {
		return nil
	}
	var out []*Region
	for i := range res.Regions {
		if t.selected[res.Regions[i].Label] {
			out = append(out, &res.Regions[i])
		}
	}
	return out
}

// SelectedCount reports the selection size.
func (t *MergeTool) SelectedCount() int {
	t.syncGeneration()
	return len(t.selected)
}

// MergeSelected merges the selected cells into one freeform ROI and clears
// the selection. Fewer than two selected cells is a no-op returning nil.
func (t *MergeTool) MergeSelected() *roi.Region {
	members := t.SelectedRegions()
	if len(members) < 2 {
		return nil
	}

	merged := t.engine.MergeRegions(members)
	if merged == nil {
		return nil
	}

	t.selected = make(map[int]bool)
	t.merged = append(t.merged, merged)
	t.logger.Info("Merged superpixel selection",
		"members", len(members), "region", merged.Name)
	return merged
}

// ClearSelection drops the current selection without merging.
func (t *MergeTool) ClearSelection() {
	t.selected = make(map[int]bool)
}

// MergedRegions returns every ROI produced by this tool, in creation order.
func (t *MergeTool) MergedRegions() []*roi.Region {
	return t.merged
}

// AutoMergeAll groups similar adjacent-ish cells in one pass. Walking the
// cells by area descending, every unconsumed cell with area below minArea
// seeds a group and absorbs unconsumed cells whose mean color is within
// colorThreshold (Euclidean, 0-255 per channel) and whose centroid lies
// within the combined extents of the pair. The centroid bound is an
// adjacency heuristic, not exact connectivity. Each cell is absorbed at most
// once per pass; only groups of two or more produce an ROI.
func (t *MergeTool) AutoMergeAll(minArea, colorThreshold float64) []*roi.Region {
	res := t.engine.Current()
	if res == nil {
		return nil
	}

	consumed := make([]bool, len(res.Regions))
	var out []*roi.Region

	for i := range res.Regions {
		if consumed[i] {
			continue
		}
		seed := &res.Regions[i]
		if seed.Area >= minArea {
			continue
		}
		group := []*Region{seed}
		consumed[i] = true

		for j := i + 1; j < len(res.Regions); j++ {
			if consumed[j] {
				continue
			}
			cand := &res.Regions[j]
			if colorDistance(seed.AvgColor, cand.AvgColor) >= colorThreshold {
				continue
			}
			reach := float64(maxDim(seed.Bounds.Dx(), seed.Bounds.Dy()) +
				maxDim(cand.Bounds.Dx(), cand.Bounds.Dy()))
			if centroidDistance(seed, cand) >= reach {
				continue
			}
			group = append(group, cand)
			consumed[j] = true
		}

		if len(group) < 2 {
			continue
		}
		if merged := t.engine.MergeRegions(group); merged != nil {
			t.merged = append(t.merged, merged)
			out = append(out, merged)
		}
	}

	t.logger.Info("Auto-merge pass done",
		"groups", len(out), "color_threshold", colorThreshold)
	return out
}

// Close releases every merged ROI's mask.
func (t *MergeTool) Close() {
	for _, r := range t.merged {
		r.Close()
	}
	t.merged = nil
}

func colorDistance(a, b [3]float64) float64 {
	ca := colorful.Color{R: a[2] / 255.0, G: a[1] / 255.0, B: a[0] / 255.0}
	cb := colorful.Color{R: b[2] / 255.0, G: b[1] / 255.0, B: b[0] / 255.0}
	return ca.DistanceRgb(cb) * 255.0
}

func centroidDistance(a, b *Region) float64 {
	dx := float64(a.Centroid.X - b.Centroid.X)
	dy := float64(a.Centroid.Y - b.Centroid.Y)
	return math.Hypot(dx, dy)
}

func maxDim(w, h int) int {
	if w > h {
		return w
	}
	return h
}
