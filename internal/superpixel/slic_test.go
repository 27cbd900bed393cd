package superpixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// twoToneImage is half dark, half bright, split vertically.
func twoToneImage(w, h int) gocv.Mat {
	img := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&img, image.Rect(0, 0, w/2, h),
		color.RGBA{R: 30, G: 30, B: 30, A: 255}, -1)
	gocv.Rectangle(&img, image.Rect(w/2, 0, w, h),
		color.RGBA{R: 220, G: 220, B: 220, A: 255}, -1)
	return img
}

func TestSlicPartitionsEveryPixel(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	labels, count, err := slicBackend{}.Segment(img, 30, 10.0)
	require.NoError(t, err)
	require.Len(t, labels, 120*90)
	require.Greater(t, count, 0)

	seen := make(map[int32]bool)
	for _, l := range labels {
		require.GreaterOrEqual(t, l, int32(0))
		require.Less(t, l, int32(count))
		seen[l] = true
	}
	// labels are dense after compaction
	assert.Len(t, seen, count)
}

func TestSlicCellCountNearGrid(t *testing.T) {
	img := twoToneImage(120, 120)
	defer img.Close()

	_, count, err := slicBackend{}.Segment(img, 30, 10.0)
	require.NoError(t, err)
	// 4x4 seed grid, connectivity enforcement may merge a few
	assert.GreaterOrEqual(t, count, 4)
	assert.LessOrEqual(t, count, 32)
}

func TestSlicRejectsTinyInputs(t *testing.T) {
	img := twoToneImage(20, 20)
	defer img.Close()

	_, _, err := slicBackend{}.Segment(img, 30, 10.0)
	assert.Error(t, err)

	_, _, err = slicBackend{}.Segment(img, 2, 10.0)
	assert.Error(t, err)
}

func TestSlicDeterministic(t *testing.T) {
	img := twoToneImage(90, 90)
	defer img.Close()

	a, countA, err := slicBackend{}.Segment(img, 30, 10.0)
	require.NoError(t, err)
	b, countB, err := slicBackend{}.Segment(img, 30, 10.0)
	require.NoError(t, err)

	assert.Equal(t, countA, countB)
	assert.Equal(t, a, b)
}

func TestKmeansPartitionsEveryPixel(t *testing.T) {
	img := twoToneImage(100, 80)
	defer img.Close()

	labels, count, err := kmeansBackend{}.Segment(img, 30, 10.0)
	require.NoError(t, err)
	require.Len(t, labels, 100*80)
	require.Greater(t, count, 0)

	for _, l := range labels {
		require.GreaterOrEqual(t, l, int32(0))
		require.Less(t, l, int32(count))
	}
}

func TestCompactLabels(t *testing.T) {
	labels := []int32{5, 5, 9, 2, 9, 5}
	count := compactLabels(labels)

	assert.Equal(t, 3, count)
	// first-seen order: 5 -> 0, 9 -> 1, 2 -> 2
	assert.Equal(t, []int32{0, 0, 1, 2, 1, 0}, labels)
}
