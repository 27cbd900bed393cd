package roi

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionAutoNaming(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(0, 0, 10, 10))
	c.Add(New(10, 0, 10, 10))

	named := New(20, 0, 10, 10)
	named.Rename("custom")
	c.Add(named)

	assert.Equal(t, "ROI_001", c.Get(0).Name)
	assert.Equal(t, "ROI_002", c.Get(1).Name)
	assert.Equal(t, "custom", c.Get(2).Name)
}

func TestCollectionRemoveFixesSelection(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(0, 0, 10, 10))
	c.Add(New(20, 0, 10, 10))
	c.Add(New(40, 0, 10, 10))

	c.Select(2)
	require.True(t, c.Remove(0))
	assert.Equal(t, 1, c.SelectedIndex())

	c.Select(0)
	require.True(t, c.Remove(0))
	assert.Equal(t, -1, c.SelectedIndex())
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Remove(5))
}

func TestSelectByPoint(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(0, 0, 10, 10))
	c.Add(New(50, 50, 10, 10))

	assert.Equal(t, 1, c.SelectByPoint(image.Pt(55, 55)))
	assert.Equal(t, 1, c.SelectedIndex())

	assert.Equal(t, -1, c.SelectByPoint(image.Pt(30, 30)))
	assert.Equal(t, -1, c.SelectedIndex())
	assert.Nil(t, c.Selected())
}

func TestCopySelectedOffsets(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(5, 5, 10, 10))
	c.Select(0)

	dup := c.CopySelected()
	require.NotNil(t, dup)
	assert.Equal(t, 25, dup.X)
	assert.Equal(t, 25, dup.Y)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.SelectedIndex())

	c.Select(-1)
	assert.Nil(t, c.CopySelected())
}

func TestHandleAt(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(10, 10, 20, 20))

	assert.Equal(t, HandleTopLeft, c.HandleAt(image.Pt(10, 10), 0))
	assert.Equal(t, HandleTopLeft, c.HandleAt(image.Pt(13, 12), 0))
	assert.Equal(t, HandleBottomRight, c.HandleAt(image.Pt(30, 30), 0))
	assert.Equal(t, HandleTop, c.HandleAt(image.Pt(20, 10), 0))
	assert.Equal(t, HandleRight, c.HandleAt(image.Pt(30, 20), 0))
	assert.Equal(t, HandleNone, c.HandleAt(image.Pt(20, 20), 0))
	assert.Equal(t, HandleNone, c.HandleAt(image.Pt(0, 0), 3))
}

func TestResizeRegion(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(10, 10, 20, 20))

	c.ResizeRegion(0, HandleBottomRight, image.Pt(50, 40))
	assert.Equal(t, image.Rect(10, 10, 50, 40), c.Get(0).Rect())

	c.ResizeRegion(0, HandleTopLeft, image.Pt(0, 0))
	assert.Equal(t, image.Rect(0, 0, 50, 40), c.Get(0).Rect())

	// dragging past the opposite edge flips the rect instead of
	// producing negative extents
	c.ResizeRegion(0, HandleRight, image.Pt(-10, 0))
	assert.Equal(t, image.Rect(-10, 0, 0, 40), c.Get(0).Rect())
}

func TestMoveRegion(t *testing.T) {
	c := NewCollection()
	defer c.Clear()

	c.Add(New(10, 10, 20, 20))
	c.MoveRegion(0, image.Pt(5, -5))
	assert.Equal(t, image.Rect(15, 5, 35, 25), c.Get(0).Rect())
}
