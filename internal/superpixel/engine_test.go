package superpixel

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingBackend struct{}

func (failingBackend) Name() string     { return "failing" }
func (failingBackend) Available() error { return nil }
func (failingBackend) Segment(gocv.Mat, int, float64) ([]int32, int, error) {
	return nil, 0, errors.New("backend exploded")
}

type unavailableBackend struct{}

func (unavailableBackend) Name() string     { return "unavailable" }
func (unavailableBackend) Available() error { return errors.New("not built") }
func (unavailableBackend) Segment(gocv.Mat, int, float64) ([]int32, int, error) {
	return nil, 0, errors.New("unreachable")
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testLogger())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestSegmentProducesOrderedRegions(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	res, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Regions)
	assert.Equal(t, "slic", res.Backend)
	assert.Equal(t, uint64(1), res.Generation)

	for i := 1; i < len(res.Regions); i++ {
		assert.GreaterOrEqual(t, res.Regions[i-1].Area, res.Regions[i].Area)
	}

	for i := range res.Regions {
		r := &res.Regions[i]
		assert.False(t, r.Mask.Empty())
		assert.NotEmpty(t, r.Contour)
		assert.True(t, r.Centroid.In(image.Rect(0, 0, 120, 90)))
	}
}

func TestSegmentPartitionInvariant(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	res, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	// every pixel belongs to exactly one region
	total := 0.0
	for i := range res.Regions {
		r := &res.Regions[i]
		assert.Equal(t, int(r.Area), gocv.CountNonZero(r.Mask))
		total += r.Area
	}
	assert.Equal(t, float64(120*90), total)
}

func TestGenerationIncreasesPerRun(t *testing.T) {
	img := twoToneImage(90, 90)
	defer img.Close()

	e := newTestEngine(t)
	first, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)
	firstGen := first.Generation

	second, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)
	assert.Greater(t, second.Generation, firstGen)
	assert.Same(t, second, e.Current())
}

func TestRegionAtPoint(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	_, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	r := e.RegionAtPoint(15, 15)
	require.NotNil(t, r)
	assert.True(t, gocv.CountNonZero(r.Mask) > 0)

	assert.Nil(t, e.RegionAtPoint(-1, 10))
	assert.Nil(t, e.RegionAtPoint(120, 10))
	assert.Nil(t, e.RegionAtPoint(10, 90))
}

func TestRegionAtPointBeforeSegment(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.RegionAtPoint(10, 10))
	assert.Nil(t, e.Current())
}

func TestRegionsInRect(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	res, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	all := e.RegionsInRect(0, 0, 120, 90)
	assert.Len(t, all, len(res.Regions))

	// coordinates normalize and clamp
	some := e.RegionsInRect(200, 200, -5, -5)
	assert.Len(t, some, len(res.Regions))

	corner := e.RegionsInRect(0, 0, 10, 10)
	assert.NotEmpty(t, corner)
	assert.Less(t, len(corner), len(res.Regions))
}

func TestMergeRegions(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	_, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	// two horizontally adjacent cells inside the dark half
	a := e.RegionAtPoint(15, 15)
	b := e.RegionAtPoint(45, 15)
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotEqual(t, a.Label, b.Label)

	members := []*Region{a, b}
	merged := e.MergeRegions(members)
	require.NotNil(t, merged)
	defer merged.Close()

	assert.True(t, merged.Segmented)
	assert.Equal(t, "superpixel_merge_2", merged.Name)

	// merged bbox contains every member bbox
	rect := merged.Rect()
	for _, m := range members {
		assert.True(t, m.Bounds.Intersect(rect) == m.Bounds,
			"member bbox must lie inside the merged bbox")
	}

	// single-region merge keeps the cell's own geometry
	single := e.MergeRegions(members[:1])
	require.NotNil(t, single)
	defer single.Close()
	assert.Equal(t, members[0].Bounds.Min.X, single.X)
	assert.Equal(t, members[0].Bounds.Dy(), single.Height)

	assert.Nil(t, e.MergeRegions(nil))
}

func TestFilterRegions(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	res, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	assert.Len(t, e.FilterRegions(0, 0, 0), len(res.Regions))
	assert.Empty(t, e.FilterRegions(1e9, 0, 0))
	assert.Empty(t, e.FilterRegions(0, 0, 10000))

	for _, r := range e.FilterRegions(400, 0, 5) {
		assert.GreaterOrEqual(t, r.Area, 400.0)
		assert.GreaterOrEqual(t, r.Bounds.Dx(), 5)
	}
}

func TestRenderBoundaries(t *testing.T) {
	img := twoToneImage(120, 90)
	defer img.Close()

	e := newTestEngine(t)
	_, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)

	preview := e.RenderBoundaries(img)
	defer preview.Close()
	require.False(t, preview.Empty())
	assert.Equal(t, 90, preview.Rows())
	assert.Equal(t, 120, preview.Cols())

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(img, preview, &diff)
	assert.Greater(t, gocv.CountNonZero(diff), 0)
}

func TestBackendFallback(t *testing.T) {
	img := twoToneImage(90, 90)
	defer img.Close()

	e, err := NewEngineWithBackends(testLogger(), failingBackend{}, kmeansBackend{})
	require.NoError(t, err)
	defer e.Close()

	res, err := e.Segment(img, 30, 10.0)
	require.NoError(t, err)
	assert.Equal(t, "kmeans", res.Backend)
}

func TestNoBackendAvailable(t *testing.T) {
	_, err := NewEngineWithBackends(testLogger(), unavailableBackend{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestAllBackendsFail(t *testing.T) {
	img := twoToneImage(90, 90)
	defer img.Close()

	e, err := NewEngineWithBackends(testLogger(), failingBackend{})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Segment(img, 30, 10.0)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSegmentAsyncRejectsReentry(t *testing.T) {
	img := twoToneImage(120, 120)
	defer img.Close()

	e := newTestEngine(t)

	var wg sync.WaitGroup
	wg.Add(1)
	err := e.SegmentAsync(img, 30, 10.0, func(res *Result, err error) {
		defer wg.Done()
		assert.NoError(t, err)
		assert.NotNil(t, res)
	})
	require.NoError(t, err)

	// the in-flight run makes a second trigger fail fast
	if e.IsProcessing() {
		assert.Error(t, e.SegmentAsync(img, 30, 10.0, nil))
	}
	wg.Wait()
	assert.NotNil(t, e.Current())
}
