package roi

import (
	"fmt"
	"image"
)

// ResizeHandle identifies one of the eight bbox resize handles.
type ResizeHandle int

const (
	HandleNone        ResizeHandle = -1
	HandleTopLeft     ResizeHandle = 0
	HandleTop         ResizeHandle = 1
	HandleTopRight    ResizeHandle = 2
	HandleLeft        ResizeHandle = 3
	HandleRight       ResizeHandle = 4
	HandleBottomLeft  ResizeHandle = 5
	HandleBottom      ResizeHandle = 6
	HandleBottomRight ResizeHandle = 7
)

const handleSize = 8

// Collection is the caller-owned ordered set of regions with a mutable
// selection index. It is not safe for concurrent use; the interactive caller
// serializes access.
type Collection struct {
	regions     []Region
	selected    int
	nameCounter int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{selected: -1}
}

// Add appends a region, auto-naming it ROI_NNN when unnamed, and returns its
// index.
func (c *Collection) Add(r Region) int {
	if r.Name == "" {
		c.nameCounter++
		r.Name = fmt.Sprintf("ROI_%03d", c.nameCounter)
	}
	c.regions = append(c.regions, r)
	return len(c.regions) - 1
}

// Remove deletes the region at index, fixing up the selection index.
func (c *Collection) Remove(index int) bool {
	if index < 0 || index >= len(c.regions) {
		return false
	}
	c.regions[index].Close()
	c.regions = append(c.regions[:index], c.regions[index+1:]...)
	switch {
	case c.selected == index:
		c.selected = -1
	case c.selected > index:
		c.selected--
	}
	return true
}

// RemoveSelected deletes the currently selected region.
func (c *Collection) RemoveSelected() bool {
	if c.selected < 0 {
		return false
	}
	return c.Remove(c.selected)
}

// Get returns a pointer to the region at index, or nil.
func (c *Collection) Get(index int) *Region {
	if index < 0 || index >= len(c.regions) {
		return nil
	}
	return &c.regions[index]
}

// Selected returns the selected region, or nil.
func (c *Collection) Selected() *Region {
	return c.Get(c.selected)
}

// SelectedIndex returns the selection index, -1 when nothing is selected.
func (c *Collection) SelectedIndex() int { return c.selected }

// Select sets the selection index; out-of-range clears it.
func (c *Collection) Select(index int) {
	if index < 0 || index >= len(c.regions) {
		c.selected = -1
		return
	}
	c.selected = index
}

// SelectByPoint selects the first region containing the point and returns its
// index, -1 when none does.
func (c *Collection) SelectByPoint(pt image.Point) int {
	for i := range c.regions {
		if c.regions[i].Contains(pt) {
			c.selected = i
			return i
		}
	}
	c.selected = -1
	return -1
}

// CopySelected duplicates the selected region, offset by (20,20) so it does
// not sit exactly on top of the source, selects the copy and returns it.
func (c *Collection) CopySelected() *Region {
	src := c.Selected()
	if src == nil {
		return nil
	}
	dup := src.Copy()
	dup.Translate(20, 20)
	c.Add(dup)
	c.selected = len(c.regions) - 1
	return &c.regions[c.selected]
}

// Clear removes every region and resets naming.
func (c *Collection) Clear() {
	for i := range c.regions {
		c.regions[i].Close()
	}
	c.regions = nil
	c.selected = -1
	c.nameCounter = 0
}

// Len returns the number of regions.
func (c *Collection) Len() int { return len(c.regions) }

// Regions returns the backing slice. Callers use it for iteration and must
// not reorder it behind the collection's back.
func (c *Collection) Regions() []Region { return c.regions }

// HandleAt returns which resize handle of the indexed region the point hits.
func (c *Collection) HandleAt(pt image.Point, index int) ResizeHandle {
	r := c.Get(index)
	if r == nil {
		return HandleNone
	}
	rect := r.Rect()
	cx := (rect.Min.X + rect.Max.X) / 2
	cy := (rect.Min.Y + rect.Max.Y) / 2
	handles := []image.Point{
		{rect.Min.X, rect.Min.Y},
		{cx, rect.Min.Y},
		{rect.Max.X, rect.Min.Y},
		{rect.Min.X, cy},
		{rect.Max.X, cy},
		{rect.Min.X, rect.Max.Y},
		{cx, rect.Max.Y},
		{rect.Max.X, rect.Max.Y},
	}
	half := handleSize / 2
	for i, h := range handles {
		if abs(pt.X-h.X) <= half && abs(pt.Y-h.Y) <= half {
			return ResizeHandle(i)
		}
	}
	return HandleNone
}

// ResizeRegion drags the given handle of the indexed region to pos.
func (c *Collection) ResizeRegion(index int, handle ResizeHandle, pos image.Point) {
	r := c.Get(index)
	if r == nil {
		return
	}
	rect := r.Rect()
	switch handle {
	case HandleTopLeft:
		rect.Min.X, rect.Min.Y = pos.X, pos.Y
	case HandleTop:
		rect.Min.Y = pos.Y
	case HandleTopRight:
		rect.Max.X, rect.Min.Y = pos.X, pos.Y
	case HandleLeft:
		rect.Min.X = pos.X
	case HandleRight:
		rect.Max.X = pos.X
	case HandleBottomLeft:
		rect.Min.X, rect.Max.Y = pos.X, pos.Y
	case HandleBottom:
		rect.Max.Y = pos.Y
	case HandleBottomRight:
		rect.Max.X, rect.Max.Y = pos.X, pos.Y
	default:
		return
	}
	r.SetRect(rect)
}

// MoveRegion translates the indexed region.
func (c *Collection) MoveRegion(index int, delta image.Point) {
	r := c.Get(index)
	if r == nil {
		return
	}
	r.Translate(delta.X, delta.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
