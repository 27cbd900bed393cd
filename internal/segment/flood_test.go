package segment

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// white blob on black background
func blobImage() gocv.Mat {
	img := gocv.NewMatWithSize(120, 120, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&img, image.Rect(30, 30, 70, 70),
		color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return img
}

func TestDetectAtPointSeedInsideBlob(t *testing.T) {
	img := blobImage()
	defer img.Close()

	fs := NewFloodSegmenter(testLogger())
	r, err := fs.DetectAtPoint(img, 50, 50, 30, false)
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()

	assert.Equal(t, "color_blob", r.Name)
	assert.InDelta(t, 30, r.X, 2)
	assert.InDelta(t, 30, r.Y, 2)
	assert.InDelta(t, 40, r.Width, 3)
	assert.InDelta(t, 40, r.Height, 3)
	assert.Greater(t, r.Area(), 1000)
}

func TestDetectAtPointSeedOnBackground(t *testing.T) {
	img := blobImage()
	defer img.Close()

	fs := NewFloodSegmenter(testLogger())
	// seed on black: the similar-color mask covers the background, whose
	// component is relabeled as foreground component 1 here, so a region
	// spanning the frame comes back
	r, err := fs.DetectAtPoint(img, 5, 5, 30, false)
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()
	assert.GreaterOrEqual(t, r.Width, 100)
}

func TestDetectAtPointClampsSeed(t *testing.T) {
	img := blobImage()
	defer img.Close()

	fs := NewFloodSegmenter(testLogger())
	r, err := fs.DetectAtPoint(img, -50, 500, 30, false)
	require.NoError(t, err)
	if r != nil {
		r.Close()
	}
}

func TestDetectAtPointZeroTolerance(t *testing.T) {
	img := blobImage()
	defer img.Close()

	fs := NewFloodSegmenter(testLogger())
	r, err := fs.DetectAtPoint(img, 50, 50, 0, false)
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()
	assert.InDelta(t, 40, r.Width, 3)
}

func TestDetectAtPointMergeAll(t *testing.T) {
	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.Rectangle(&img, image.Rect(20, 20, 60, 60), white, -1)
	gocv.Rectangle(&img, image.Rect(140, 140, 180, 180), white, -1)

	fs := NewFloodSegmenter(testLogger())
	r, err := fs.DetectAtPoint(img, 30, 30, 30, true)
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()

	assert.Equal(t, "color_merged", r.Name)
	// union bbox spans both blobs
	assert.InDelta(t, 20, r.X, 2)
	assert.InDelta(t, 20, r.Y, 2)
	assert.InDelta(t, 160, r.Width, 4)
	assert.InDelta(t, 160, r.Height, 4)
	// mask covers only the two blobs, not the gap between them
	assert.Less(t, r.Area(), 2*45*45)
}

func TestDetectAtPointRejectsEmpty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	fs := NewFloodSegmenter(testLogger())
	_, err := fs.DetectAtPoint(empty, 0, 0, 30, false)
	assert.Error(t, err)
}
