package roi

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r := New(10, 20, 30, 40)
	defer r.Close()

	assert.Equal(t, TypeImage, r.Type)
	assert.Equal(t, "detect", r.ImageAction)
	assert.Equal(t, "single", r.Click.Mode)
	assert.Equal(t, 1, r.Click.Count)
	assert.Equal(t, 500, r.Click.IntervalMS)
	assert.Equal(t, "top_to_bottom", r.Swipe.Direction)
	assert.Len(t, r.ID, 8)
	assert.IsType(t, RectShape{}, r.Shape)
	assert.False(t, r.Segmented)
}

func TestGeometry(t *testing.T) {
	r := New(10, 20, 30, 40)
	defer r.Close()

	assert.Equal(t, image.Rect(10, 20, 40, 60), r.Rect())
	assert.Equal(t, image.Pt(25, 40), r.Center())
	assert.Equal(t, 40, r.Right())
	assert.Equal(t, 60, r.Bottom())
	assert.Equal(t, 1200, r.Area())

	assert.True(t, r.Contains(image.Pt(10, 20)))
	assert.True(t, r.Contains(image.Pt(39, 59)))
	assert.False(t, r.Contains(image.Pt(40, 60)))
	assert.False(t, r.Contains(image.Pt(9, 20)))
}

func TestSetRectCanonicalizes(t *testing.T) {
	r := New(0, 0, 10, 10)
	defer r.Close()

	r.SetRect(image.Rect(50, 60, 20, 30))
	assert.Equal(t, 20, r.X)
	assert.Equal(t, 30, r.Y)
	assert.Equal(t, 30, r.Width)
	assert.Equal(t, 30, r.Height)
}

func TestTranslate(t *testing.T) {
	r := New(10, 10, 5, 5)
	defer r.Close()

	r.Translate(-3, 7)
	assert.Equal(t, 7, r.X)
	assert.Equal(t, 17, r.Y)
}

func TestClampToImage(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		want       image.Rectangle
	}{
		{"inside untouched", 10, 10, 20, 20, image.Rect(10, 10, 30, 30)},
		{"negative origin trimmed", -5, -5, 20, 20, image.Rect(0, 0, 15, 15)},
		{"overflow trimmed", 90, 90, 50, 50, image.Rect(90, 90, 100, 100)},
		{"fully outside collapses", 200, 200, 10, 10, image.Rect(99, 99, 100, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.x, tt.y, tt.w, tt.h)
			defer r.Close()
			r.ClampToImage(100, 100)
			assert.Equal(t, tt.want, r.Rect())
		})
	}
}

func TestCopyIsIndependent(t *testing.T) {
	r := New(10, 10, 20, 20)
	defer r.Close()
	r.Rename("button")
	r.Tags = []string{"a"}

	dup := r.Copy()
	defer dup.Close()

	require.NotEqual(t, r.ID, dup.ID)
	assert.Equal(t, "button_copy", dup.Name)

	dup.Tags[0] = "b"
	assert.Equal(t, "a", r.Tags[0])
}
