// Pixel-buffer boundary between the capture collaborator and the engine
package imgio

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned for nil or zero-sized input buffers and Mats.
var ErrEmptyImage = errors.New("empty image")

// PixelBuffer is the raw 3-channel BGR frame handed over by the capture or
// canvas collaborator: row-major bytes with an explicit stride. The engine
// copies the data on conversion and never mutates the caller's slice.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int // bytes per row, >= Width*3
	Pix    []byte
}

// ToMat converts the buffer into an exclusively-owned CV8UC3 Mat. The caller
// owns the returned Mat and must Close it.
func (b *PixelBuffer) ToMat() (gocv.Mat, error) {
	if b == nil || b.Width <= 0 || b.Height <= 0 || len(b.Pix) == 0 {
		return gocv.NewMat(), ErrEmptyImage
	}
	rowBytes := b.Width * 3
	stride := b.Stride
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes {
		return gocv.NewMat(), fmt.Errorf("stride %d smaller than row size %d", stride, rowBytes)
	}
	if len(b.Pix) < (b.Height-1)*stride+rowBytes {
		return gocv.NewMat(), fmt.Errorf("pixel data truncated: have %d bytes", len(b.Pix))
	}

	packed := make([]byte, b.Height*rowBytes)
	for y := 0; y < b.Height; y++ {
		copy(packed[y*rowBytes:(y+1)*rowBytes], b.Pix[y*stride:y*stride+rowBytes])
	}
	return gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC3, packed)
}

// FromMat snapshots a CV8UC3 Mat into a tightly-packed PixelBuffer.
func FromMat(m gocv.Mat) (*PixelBuffer, error) {
	if err := ValidateImage(m); err != nil {
		return nil, err
	}
	if m.Channels() != 3 {
		return nil, fmt.Errorf("expected 3 channels, got %d", m.Channels())
	}
	data := m.ToBytes()
	pix := make([]byte, len(data))
	copy(pix, data)
	return &PixelBuffer{
		Width:  m.Cols(),
		Height: m.Rows(),
		Stride: m.Cols() * 3,
		Pix:    pix,
	}, nil
}

// ValidateImage validates a Mat for basic processing requirements.
func ValidateImage(m gocv.Mat) error {
	if m.Empty() {
		return ErrEmptyImage
	}
	if m.Cols() <= 0 || m.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", m.Cols(), m.Rows())
	}
	channels := m.Channels()
	if channels < 1 || channels > 4 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}
	const maxDimension = 16384
	if m.Cols() > maxDimension || m.Rows() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", m.Cols(), m.Rows(), maxDimension)
	}
	return nil
}
