package imgio

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func maskWithRect(r image.Rectangle) gocv.Mat {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8UC1)
	gocv.Rectangle(&mask, r, maskWhite, -1)
	return mask
}

func TestLargestContour(t *testing.T) {
	mask := maskWithRect(image.Rect(10, 10, 50, 50))
	defer mask.Close()
	// add a smaller second blob
	gocv.Rectangle(&mask, image.Rect(70, 70, 80, 80), maskWhite, -1)

	contour := LargestContour(mask)
	require.NotNil(t, contour)

	bounds := ContourBounds(contour)
	assert.InDelta(t, 10, bounds.Min.X, 1)
	assert.InDelta(t, 10, bounds.Min.Y, 1)
	assert.InDelta(t, 40, bounds.Dx(), 2)
}

func TestLargestContourEmptyMask(t *testing.T) {
	mask := gocv.Zeros(50, 50, gocv.MatTypeCV8UC1)
	defer mask.Close()
	assert.Nil(t, LargestContour(mask))
}

func TestContourCentroid(t *testing.T) {
	contour := []image.Point{{10, 10}, {50, 10}, {50, 30}, {10, 30}}
	c := ContourCentroid(contour)
	assert.Equal(t, image.Pt(30, 20), c)
}

func TestContourCentroidDegenerate(t *testing.T) {
	// collinear points have zero area; bbox center is the fallback
	line := []image.Point{{0, 0}, {10, 0}, {20, 0}}
	c := ContourCentroid(line)
	assert.Equal(t, image.Pt(10, 0), c)
}

func TestContourBounds(t *testing.T) {
	contour := []image.Point{{5, 7}, {20, 3}, {15, 25}}
	b := ContourBounds(contour)
	assert.Equal(t, image.Rect(5, 3, 21, 26), b)

	assert.True(t, ContourBounds(nil).Empty())
}

func TestDrawFilledContour(t *testing.T) {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8UC1)
	defer mask.Close()

	contour := []image.Point{{10, 10}, {60, 10}, {60, 40}, {10, 40}}
	DrawFilledContour(&mask, contour)

	filled := gocv.CountNonZero(mask)
	assert.InDelta(t, 51*31, filled, 120)
}
