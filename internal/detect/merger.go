// Candidate region deduplication
package detect

import (
	"sort"

	"screen-region-engine/internal/roi"
)

// DefaultIoUThreshold is the overlap ratio above which two candidate regions
// are considered duplicates.
const DefaultIoUThreshold = 0.3

// IoU returns the intersection-over-union of two region bboxes: 0 for
// disjoint boxes, 1 for identical ones.
func IoU(a, b *roi.Region) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.Right(), b.Right())
	y2 := min(a.Bottom(), b.Bottom())

	if x2 <= x1 || y2 <= y1 {
		return 0.0
	}

	intersection := float64((x2 - x1) * (y2 - y1))
	union := float64(a.Width*a.Height+b.Width*b.Height) - intersection
	if union <= 0 {
		return 0.0
	}
	return intersection / union
}

// MergeOverlapping deduplicates candidates: stable-sorted by bbox area
// descending, a candidate is kept unless its IoU with an already-kept region
// exceeds the threshold. Deterministic for a fixed input order.
func MergeOverlapping(regions []roi.Region, iouThreshold float64) []roi.Region {
	if len(regions) == 0 {
		return nil
	}

	sorted := make([]roi.Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Width*sorted[i].Height > sorted[j].Width*sorted[j].Height
	})

	kept := make([]roi.Region, 0, len(sorted))
	for i := range sorted {
		duplicate := false
		for j := range kept {
			if IoU(&sorted[i], &kept[j]) > iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, sorted[i])
		}
	}
	return kept
}
